package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"client_name",
			"client_phone",
			"start_date",
			"end_date",
			"items",
			"status",
			"access_token",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"client_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"client_phone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"start_date": bson.M{
				"bsonType": "date",
			},

			"end_date": bson.M{
				"bsonType": "date",
			},

			"items": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"product_id", "quantity", "rental_type", "duration"},
					"properties": bson.M{
						"product_id": bson.M{
							"bsonType": "string",
						},
						"quantity": bson.M{
							"bsonType": "int",
							"minimum":  1,
							"maximum":  50,
						},
						"rental_type": bson.M{
							"bsonType": "string",
							"enum":     []string{"day", "hour"},
						},
						"duration": bson.M{
							"bsonType": "int",
							"minimum":  1,
						},
					},
				},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pendiente",
					"confirmada",
					"completada",
					"cancelada",
					"expirada",
				},
			},

			"access_token": bson.M{
				"bsonType": "string",
			},

			"hold_expires_at": bson.M{
				"bsonType": []string{"date", "null"},
			},

			"expired": bson.M{
				"bsonType": "bool",
			},

			"stock_released": bson.M{
				"bsonType": "bool",
			},

			"paid": bson.M{
				"bsonType": "bool",
			},

			"signed": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

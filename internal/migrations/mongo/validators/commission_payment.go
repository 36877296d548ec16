package validators

import "go.mongodb.org/mongo-driver/bson"

var CommissionPaymentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"partner_id",
			"amount",
			"method",
			"booking_ids",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"partner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"amount": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
			},

			"method": bson.M{
				"bsonType": "string",
			},

			"booking_ids": bson.M{
				"bsonType": "array",
				"minItems": 1,
				"items": bson.M{
					"bsonType": "string",
				},
			},

			"allocations": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"booking_id", "amount"},
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

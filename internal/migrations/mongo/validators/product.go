package validators

import "go.mongodb.org/mongo-driver/bson"

var ProductValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"name",
			"active",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"price_per_day": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
			},

			"price_per_hour": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
			},

			"commission_pct": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal"},
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

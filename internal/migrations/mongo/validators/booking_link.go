package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingLinkValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"token",
			"active",
			"single_use",
			"used",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"token": bson.M{
				"bsonType":  "string",
				"minLength": 16,
			},

			"partner_id": bson.M{
				"bsonType": "string",
			},

			"active": bson.M{
				"bsonType": "bool",
			},

			"single_use": bson.M{
				"bsonType": "bool",
			},

			"used": bson.M{
				"bsonType": "bool",
			},

			"visits": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"reservations_created": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

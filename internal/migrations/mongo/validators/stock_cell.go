package validators

import "go.mongodb.org/mongo-driver/bson"

var StockCellValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"date",
			"product_id",
			"available",
			"reserved",
		},
		"additionalProperties": true,

		"properties": bson.M{
			// Composite key "{date}_{productId}".
			"_id": bson.M{
				"bsonType": "string",
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"product_id": bson.M{
				"bsonType": "string",
			},

			"available": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			// Reserved never goes negative: release decrements exactly what
			// reservation added.
			"reserved": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},
		},
	},
}

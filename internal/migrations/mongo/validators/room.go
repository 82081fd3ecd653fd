package validators

import "go.mongodb.org/mongo-driver/bson"

var RoomTypeValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "base_price", "max_occupancy", "created_at"},
		"properties": bson.M{
			"_id": bson.M{"bsonType": "long"},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},
			"base_price": bson.M{
				"bsonType": "long",
				"minimum":  0,
			},
			"max_occupancy": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  20,
			},
			"amenities": bson.M{
				"bsonType": []string{"array", "null"},
				"items":    bson.M{"bsonType": "string"},
			},
		},
	},
}

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"room_type_id", "room_number", "status", "created_at"},
		"properties": bson.M{
			"_id":          bson.M{"bsonType": "long"},
			"room_type_id": bson.M{"bsonType": "long", "minimum": 1},
			"room_number": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 20,
			},
			"price_per_night": bson.M{"bsonType": "long", "minimum": 0},
			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"available", "occupied", "maintenance"},
			},
			"featured": bson.M{"bsonType": "bool"},
		},
	},
}

var RoomImageValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"room_id", "path"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "long"},
			"room_id":    bson.M{"bsonType": "long", "minimum": 1},
			"path":       bson.M{"bsonType": "string", "maxLength": 255},
			"is_primary": bson.M{"bsonType": "bool"},
		},
	},
}

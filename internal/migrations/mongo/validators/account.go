package validators

import "go.mongodb.org/mongo-driver/bson"

var UserValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"name", "email", "password_hash", "created_at"},
		"properties": bson.M{
			"_id":           bson.M{"bsonType": "long"},
			"name":          bson.M{"bsonType": "string", "minLength": 2, "maxLength": 100},
			"email":         bson.M{"bsonType": "string", "maxLength": 255},
			"password_hash": bson.M{"bsonType": "string"},
		},
	},
}

var AdminValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"username", "email", "name", "role", "password_hash", "created_at"},
		"properties": bson.M{
			"_id":      bson.M{"bsonType": "long"},
			"username": bson.M{"bsonType": "string", "minLength": 3, "maxLength": 50},
			"role": bson.M{
				"bsonType": "string",
				"enum":     []string{"staff", "manager"},
			},
			"password_hash": bson.M{"bsonType": "string"},
		},
	},
}

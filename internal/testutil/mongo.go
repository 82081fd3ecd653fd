package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	mongodb "hotelbooking/pkg/db/mongo"

	"go.mongodb.org/mongo-driver/mongo"
)

const ConnectionTimeout = 10 * time.Second

// MongoHelper is a throwaway database on the server named by MONGO_URI.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

// NewMongo skips the test unless MONGO_URI is set. Transactions need a
// replica set, so point it at one (a single-node rs is enough).
func NewMongo(t *testing.T) *MongoHelper {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set; skipping MongoDB test")
	}

	ctx := context.Background()
	client, err := mongodb.Connect(ctx, uri, ConnectionTimeout)
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	dbName := fmt.Sprintf("hotel_test_%d", time.Now().UnixNano())
	h := &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}

	t.Cleanup(func() {
		cctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
		defer cancel()
		_ = h.Database.Drop(cctx)
		_ = client.Disconnect(cctx)
	})
	return h
}

package server

import (
	"context"
	"errors"
	"fmt"

	mongomigration "hotelbooking/internal/migrations/mongo"
	sqlitemigration "hotelbooking/internal/migrations/sqlite"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Backend is the open storage handle. Exactly one of SQLite and Mongo is
// set, chosen by STORE_DRIVER.
type Backend struct {
	Driver  string
	SQLite  *sqlite.DB
	Mongo   *mongo.Client
	MongoDB *mongo.Database

	log *logger.Logger
}

func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{Driver: cfg.StoreDriver, log: cfg.Log}

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := mongotx.Connect(ctx, cfg.MongoURI, cfg.MongoConnTimeout)
		if err != nil {
			return nil, err
		}
		b.Mongo = client
		b.MongoDB = client.Database(cfg.MongoDatabaseName)
		cfg.Log.Info("Connected to MongoDB", "database", cfg.MongoDatabaseName)
	case config.StoreSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.SQLite = db
		cfg.Log.Info("Opened SQLite database", "path", cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return b, nil
}

// NewSQLiteBackend wraps an already open database.
func NewSQLiteBackend(db *sqlite.DB, log *logger.Logger) *Backend {
	return &Backend{Driver: config.StoreSQLite, SQLite: db, log: log}
}

// Migrate brings the schema (or the Mongo collections and indexes) up to
// date.
func (b *Backend) Migrate(ctx context.Context) error {
	if b.MongoDB != nil {
		return mongomigration.RunMigration(ctx, b.MongoDB, b.log)
	}
	return sqlitemigration.Migrate(ctx, b.SQLite, b.log)
}

func (b *Backend) Ping(ctx context.Context) error {
	if b.Mongo != nil {
		return b.Mongo.Ping(ctx, readpref.Primary())
	}
	if b.SQLite != nil {
		return b.SQLite.PingContext(ctx)
	}
	return errors.New("no backend open")
}

func (b *Backend) Close(ctx context.Context) error {
	if b.Mongo != nil {
		return b.Mongo.Disconnect(ctx)
	}
	if b.SQLite != nil {
		return b.SQLite.Close()
	}
	return nil
}

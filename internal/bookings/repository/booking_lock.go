package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingLockRepository stores advisory per-room locks shared by every
// process talking to the same database.
type BookingLockRepository interface {
	// Acquire returns ErrLockHeld while another owner holds an unexpired
	// lock with the same id.
	Acquire(ctx context.Context, lock *model.BookingLock) error
	Release(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(db *mongo.Database, cfg *config.Config) BookingLockRepository {
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: db.Collection(mongotx.BookingLocksCollection),
	}
}

func (r *mongoBookingLockRepository) Acquire(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongotx.IsDuplicateKey(err) {
		return fmt.Errorf("failed to acquire booking lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so an expired lock may still
	// be present. Take it over if so.
	err = r.collection.FindOneAndReplace(ctx,
		bson.M{"_id": lock.ID, "expires_at": bson.M{"$lte": lock.CreatedAt}},
		lock,
		options.FindOneAndReplace().SetProjection(bson.M{"_id": 1}),
	).Err()
	if err != nil {
		if mongotx.IsNoDocuments(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to take over expired booking lock: %w", err)
	}
	return nil
}

// Release removes the lock only if owner still holds it.
func (r *mongoBookingLockRepository) Release(ctx context.Context, lockID, owner string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release booking lock: %w", err)
	}
	return nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const roomImagesSequence = "room_images"

type mongoRoomImageRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoRoomImageRepository(db *mongo.Database, cfg *config.Config) RoomImageRepository {
	return &mongoRoomImageRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(mongotx.RoomImagesCollection),
		txManager:  mongotx.NewTransactionManager(db.Client()),
	}
}

func (r *mongoRoomImageRepository) FindByRoom(ctx context.Context, roomID int64) ([]model.RoomImage, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find room images: %w", err)
	}
	defer cursor.Close(ctx)

	var images []model.RoomImage
	if err := cursor.All(ctx, &images); err != nil {
		return nil, fmt.Errorf("failed to decode room images: %w", err)
	}
	return images, nil
}

func (r *mongoRoomImageRepository) ReplaceForRoom(ctx context.Context, roomID int64, images []model.RoomImage) error {
	return r.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if _, err := r.collection.DeleteMany(ctx, bson.M{"room_id": roomID}); err != nil {
			return fmt.Errorf("failed to clear room images: %w", err)
		}
		if len(images) == 0 {
			return nil
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		docs := make([]any, 0, len(images))
		for i := range images {
			id, err := mongotx.NextID(ctx, r.db, roomImagesSequence)
			if err != nil {
				return err
			}
			images[i].ID = id
			images[i].RoomID = roomID
			images[i].CreatedAt = now
			docs = append(docs, images[i])
		}
		if _, err := r.collection.InsertMany(ctx, docs); err != nil {
			return fmt.Errorf("failed to insert room images: %w", err)
		}
		return nil
	})
}

func (r *mongoRoomImageRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete room image: %w", err)
	}
	if result.DeletedCount == 0 {
		return roomserrors.ErrImageNotFound
	}
	return nil
}

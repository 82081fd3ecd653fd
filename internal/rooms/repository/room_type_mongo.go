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

const roomTypesSequence = "room_types"

type mongoRoomTypeRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
}

func NewMongoRoomTypeRepository(db *mongo.Database, cfg *config.Config) RoomTypeRepository {
	return &mongoRoomTypeRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(mongotx.RoomTypesCollection),
	}
}

func (r *mongoRoomTypeRepository) FindAll(ctx context.Context) ([]*model.RoomType, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "base_price", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find room types: %w", err)
	}
	defer cursor.Close(ctx)

	var types []*model.RoomType
	if err := cursor.All(ctx, &types); err != nil {
		return nil, fmt.Errorf("failed to decode room types: %w", err)
	}
	return types, nil
}

func (r *mongoRoomTypeRepository) FindByID(ctx context.Context, id int64) (*model.RoomType, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var rt model.RoomType
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rt); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, roomserrors.ErrRoomTypeNotFound
		}
		return nil, fmt.Errorf("failed to find room type: %w", err)
	}
	return &rt, nil
}

func (r *mongoRoomTypeRepository) Create(ctx context.Context, rt *model.RoomType) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	id, err := mongotx.NextID(ctx, r.db, roomTypesSequence)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	rt.ID = id
	rt.CreatedAt, rt.UpdatedAt = now, now
	if _, err := r.collection.InsertOne(ctx, rt); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateRoomType
		}
		return fmt.Errorf("failed to create room type: %w", err)
	}
	return nil
}

func (r *mongoRoomTypeRepository) Update(ctx context.Context, rt *model.RoomType) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rt.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": rt.ID}, bson.M{
		"$set": bson.M{
			"name":          rt.Name,
			"description":   rt.Description,
			"base_price":    rt.BasePrice,
			"max_occupancy": rt.MaxOccupancy,
			"amenities":     rt.Amenities,
			"updated_at":    rt.UpdatedAt,
		},
	})
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateRoomType
		}
		return fmt.Errorf("failed to update room type: %w", err)
	}
	if result.MatchedCount == 0 {
		return roomserrors.ErrRoomTypeNotFound
	}
	return nil
}

func (r *mongoRoomTypeRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	n, err := r.db.Collection(mongotx.RoomsCollection).CountDocuments(ctx, bson.M{"room_type_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check room type usage: %w", err)
	}
	if n > 0 {
		return roomserrors.ErrRoomTypeInUse
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete room type: %w", err)
	}
	if result.DeletedCount == 0 {
		return roomserrors.ErrRoomTypeNotFound
	}
	return nil
}

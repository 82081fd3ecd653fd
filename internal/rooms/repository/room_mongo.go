package repository

import (
	"context"
	"fmt"
	"time"

	roomserrors "hotelbooking/internal/rooms/errors"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/contracts"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const roomsSequence = "rooms"

type mongoRoomRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	bookings   *mongo.Collection
	txManager  mongotx.TransactionManager
}

// roomDetailDoc is the shape produced by the detail pipeline.
type roomDetailDoc struct {
	model.Room `bson:",inline"`
	Type       model.RoomType    `bson:"type"`
	Images     []model.RoomImage `bson:"images"`
}

func (d *roomDetailDoc) detail() *model.RoomDetail {
	return &model.RoomDetail{Room: d.Room, Type: d.Type, Images: d.Images}
}

func NewMongoRoomRepository(db *mongo.Database, cfg *config.Config) RoomRepository {
	return &mongoRoomRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(mongotx.RoomsCollection),
		bookings:   db.Collection(mongotx.BookingsCollection),
		txManager:  mongotx.NewTransactionManager(db.Client()),
	}
}

func (r *mongoRoomRepository) FindByID(ctx context.Context, id int64) (*model.Room, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var room model.Room
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, roomserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}

func (r *mongoRoomRepository) FindDetail(ctx context.Context, id int64) (*model.RoomDetail, error) {
	details, err := r.aggregateDetails(ctx, bson.M{"_id": id}, nil, 1, 0, nil)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, roomserrors.ErrNotFound
	}
	return details[0], nil
}

func (r *mongoRoomRepository) FindAll(ctx context.Context, filter model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, error) {
	sort := bson.D{{Key: "featured", Value: -1}, {Key: "room_number", Value: 1}}
	return r.aggregateDetails(ctx, roomFilterDoc(filter), nil, limit, offset, sort)
}

func (r *mongoRoomRepository) Count(ctx context.Context, filter model.RoomFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, roomFilterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count rooms: %w", err)
	}
	return count, nil
}

func (r *mongoRoomRepository) FindFeatured(ctx context.Context, limit int) ([]*model.RoomDetail, error) {
	return r.FindAll(ctx, model.RoomFilter{FeaturedOnly: true, Status: model.RoomStatusAvailable}, limit, 0)
}

func (r *mongoRoomRepository) SearchAvailable(ctx context.Context, c model.AvailabilityCriteria) ([]*model.RoomDetail, error) {
	match := bson.M{"status": bson.M{"$ne": model.RoomStatusMaintenance}}
	if c.RoomTypeID > 0 {
		match["room_type_id"] = c.RoomTypeID
	}

	if c.HasDates() {
		busy, err := r.busyRoomIDs(ctx, c.CheckIn, c.CheckOut)
		if err != nil {
			return nil, err
		}
		if len(busy) > 0 {
			match["_id"] = bson.M{"$nin": busy}
		}
	}

	var typeMatch bson.M
	if c.Guests > 0 {
		typeMatch = bson.M{"type.max_occupancy": bson.M{"$gte": c.Guests}}
	}
	sort := bson.D{{Key: "type.base_price", Value: 1}, {Key: "room_number", Value: 1}}
	return r.aggregateDetails(ctx, match, typeMatch, 0, 0, sort)
}

func (r *mongoRoomRepository) busyRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]any, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	ids, err := r.bookings.Distinct(ctx, "room_id", bson.M{
		"status":    bson.M{"$in": model.ActiveBookingStatuses},
		"check_in":  bson.M{"$lt": checkOut},
		"check_out": bson.M{"$gt": checkIn},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find booked rooms: %w", err)
	}
	return ids, nil
}

func (r *mongoRoomRepository) Create(ctx context.Context, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := r.ensureRoomType(ctx, room.RoomTypeID); err != nil {
		return err
	}
	id, err := mongotx.NextID(ctx, r.db, roomsSequence)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	room.ID = id
	room.CreatedAt, room.UpdatedAt = now, now
	if _, err := r.collection.InsertOne(ctx, room); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("failed to create room: %w", err)
	}
	return nil
}

func (r *mongoRoomRepository) Update(ctx context.Context, room *model.Room) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := r.ensureRoomType(ctx, room.RoomTypeID); err != nil {
		return err
	}

	room.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"room_type_id":    room.RoomTypeID,
			"room_number":     room.RoomNumber,
			"floor":           room.Floor,
			"price_per_night": room.PricePerNight,
			"status":          room.Status,
			"description":     room.Description,
			"featured":        room.Featured,
			"updated_at":      room.UpdatedAt,
		},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": room.ID}, update)
	if err != nil {
		if mongotx.IsDuplicateKey(err) {
			return roomserrors.ErrDuplicateRoomNumber
		}
		return fmt.Errorf("failed to update room: %w", err)
	}
	if result.MatchedCount == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}

func (r *mongoRoomRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now().UTC().Truncate(time.Millisecond)},
	})
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	if result.MatchedCount == 0 {
		return roomserrors.ErrNotFound
	}
	return nil
}

// Delete refuses rooms referenced by any booking, matching the relational
// backend's foreign key. The check and the deletes share one transaction: a
// booking committed in between touches the room document, so the delete
// write-conflicts and is retried against the new booking.
func (r *mongoRoomRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	return r.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		n, err := r.bookings.CountDocuments(ctx, bson.M{"room_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return fmt.Errorf("failed to check room bookings: %w", err)
		}
		if n > 0 {
			return roomserrors.ErrRoomInUse
		}

		result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			return fmt.Errorf("failed to delete room: %w", err)
		}
		if result.DeletedCount == 0 {
			return roomserrors.ErrNotFound
		}
		if _, err := r.db.Collection(mongotx.RoomImagesCollection).DeleteMany(ctx, bson.M{"room_id": id}); err != nil {
			return fmt.Errorf("failed to delete room images: %w", err)
		}
		return nil
	})
}

func (r *mongoRoomRepository) HasActiveBookings(ctx context.Context, id int64) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.bookings.CountDocuments(ctx,
		bson.M{"room_id": id, "status": bson.M{"$in": model.ActiveBookingStatuses}},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check room bookings: %w", err)
	}
	return n > 0, nil
}

func (r *mongoRoomRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoRoomRepository) ensureRoomType(ctx context.Context, id int64) error {
	n, err := r.db.Collection(mongotx.RoomTypesCollection).CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check room type: %w", err)
	}
	if n == 0 {
		return roomserrors.ErrRoomTypeNotFound
	}
	return nil
}

// aggregateDetails joins rooms with their type and ordered images.
// typeMatch filters on the joined type document.
func (r *mongoRoomRepository) aggregateDetails(ctx context.Context, match, typeMatch bson.M, limit int, offset int64, sort bson.D) ([]*model.RoomDetail, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$lookup", Value: bson.M{
			"from":         mongotx.RoomTypesCollection,
			"localField":   "room_type_id",
			"foreignField": "_id",
			"as":           "type",
		}}},
		{{Key: "$unwind", Value: "$type"}},
	}
	if len(typeMatch) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: typeMatch}})
	}
	if len(sort) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	if offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: offset}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from": mongotx.RoomImagesCollection,
		"let":  bson.M{"rid": "$_id"},
		"pipeline": bson.A{
			bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$room_id", "$$rid"}}}},
			bson.M{"$sort": bson.D{{Key: "sort_order", Value: 1}, {Key: "_id", Value: 1}}},
		},
		"as": "images",
	}}})

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []roomDetailDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}

	details := make([]*model.RoomDetail, 0, len(docs))
	for i := range docs {
		details = append(details, docs[i].detail())
	}
	return details, nil
}

func roomFilterDoc(f model.RoomFilter) bson.M {
	filter := bson.M{}
	if f.RoomTypeID > 0 {
		filter["room_type_id"] = f.RoomTypeID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.FeaturedOnly {
		filter["featured"] = true
	}
	return filter
}

package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/contracts"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bookingsSequence = "bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id int64) (*model.Booking, error)
	FindDetail(ctx context.Context, id int64) (*model.BookingDetail, error)
	FindByReference(ctx context.Context, reference string) (*model.BookingDetail, error)
	FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, error)
	Count(ctx context.Context, filter model.BookingFilter) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
	// HasConflict reports whether an active booking of the room overlaps
	// [checkIn, checkOut). excludeID skips one booking, 0 skips none.
	HasConflict(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (bool, error)
	ActiveRanges(ctx context.Context, roomID int64, from, to time.Time) ([]model.DateRange, error)
	// UpdateStatus moves a booking to status only if its current status
	// allows it, so two admins cannot both win.
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateDates(ctx context.Context, id int64, checkIn, checkOut time.Time, totalPrice int64) error
	ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	rooms      *mongo.Collection
	txManager  mongotx.TransactionManager
}

// bookingDetailDoc is the shape produced by the detail pipeline.
type bookingDetailDoc struct {
	model.Booking `bson:",inline"`
	RoomNumber    string `bson:"room_number"`
	RoomTypeName  string `bson:"room_type_name"`
	ImagePath     string `bson:"image_path"`
}

func NewMongoBookingRepository(db *mongo.Database, cfg *config.Config) BookingRepository {
	return &mongoBookingRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(mongotx.BookingsCollection),
		rooms:      db.Collection(mongotx.RoomsCollection),
		txManager:  mongotx.NewTransactionManager(db.Client()),
	}
}

// Create claims the room document inside the caller's transaction before
// inserting. Two transactions booking the same room then write the same
// document, and the driver retries the loser, which sees the winner's row.
func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	claim, err := r.rooms.UpdateOne(ctx,
		bson.M{"_id": booking.RoomID},
		bson.M{"$inc": bson.M{"booking_seq": 1}})
	if err != nil {
		return fmt.Errorf("failed to claim room: %w", err)
	}
	if claim.MatchedCount == 0 {
		return bookingserrors.ErrRoomNotFound
	}

	id, err := mongotx.NextID(ctx, r.db, bookingsSequence)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if mongotx.IsDuplicateKey(err) {
			return bookingserrors.ErrDuplicateReference
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id int64) (*model.Booking, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		if mongotx.IsNoDocuments(err) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindDetail(ctx context.Context, id int64) (*model.BookingDetail, error) {
	return r.findOneDetail(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepository) FindByReference(ctx context.Context, reference string) (*model.BookingDetail, error) {
	return r.findOneDetail(ctx, bson.M{"reference": reference})
}

func (r *mongoBookingRepository) findOneDetail(ctx context.Context, match bson.M) (*model.BookingDetail, error) {
	details, err := r.aggregateDetails(ctx, match, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return nil, bookingserrors.ErrNotFound
	}
	return details[0], nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, error) {
	return r.aggregateDetails(ctx, bookingFilterDoc(filter), limit, offset)
}

func (r *mongoBookingRepository) Count(ctx context.Context, filter model.BookingFilter) (int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bookingFilterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

func (r *mongoBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode booking counts: %w", err)
	}

	counts := make(map[string]int64, len(model.BookingStatuses))
	for _, s := range model.BookingStatuses {
		counts[s] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *mongoBookingRepository) HasConflict(ctx context.Context, roomID int64, checkIn, checkOut time.Time, excludeID int64) (bool, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := overlapFilter(roomID, checkIn, checkOut)
	if excludeID > 0 {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check booking conflicts: %w", err)
	}
	return count > 0, nil
}

func (r *mongoBookingRepository) ActiveRanges(ctx context.Context, roomID int64, from, to time.Time) ([]model.DateRange, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "check_in", Value: 1}}).
		SetProjection(bson.M{"check_in": 1, "check_out": 1})

	cursor, err := r.collection.Find(ctx, overlapFilter(roomID, from, to), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booked ranges: %w", err)
	}
	defer cursor.Close(ctx)

	var ranges []model.DateRange
	for cursor.Next(ctx) {
		var doc struct {
			CheckIn  time.Time `bson:"check_in"`
			CheckOut time.Time `bson:"check_out"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode booked range: %w", err)
		}
		ranges = append(ranges, model.DateRange{CheckIn: doc.CheckIn.UTC(), CheckOut: doc.CheckOut.UTC()})
	}
	return ranges, cursor.Err()
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": model.AllowedFrom(status)}},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC().Truncate(time.Millisecond)}})
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *mongoBookingRepository) UpdateDates(ctx context.Context, id int64, checkIn, checkOut time.Time, totalPrice int64) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": model.ActiveBookingStatuses}},
		bson.M{"$set": bson.M{
			"check_in":    checkIn,
			"check_out":   checkOut,
			"total_price": totalPrice,
			"updated_at":  time.Now().UTC().Truncate(time.Millisecond),
		}})
	if err != nil {
		return fmt.Errorf("failed to reschedule booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missingOrStale(ctx, id)
	}
	return nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoBookingRepository) missingOrStale(ctx context.Context, id int64) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to find booking: %w", err)
	}
	if count == 0 {
		return bookingserrors.ErrNotFound
	}
	return bookingserrors.ErrInvalidTransition
}

func (r *mongoBookingRepository) aggregateDetails(ctx context.Context, match bson.M, limit int, offset int64) ([]*model.BookingDetail, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: offset}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         mongotx.RoomsCollection,
			"localField":   "room_id",
			"foreignField": "_id",
			"as":           "room",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$room", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         mongotx.RoomTypesCollection,
			"localField":   "room.room_type_id",
			"foreignField": "_id",
			"as":           "type",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{"path": "$type", "preserveNullAndEmptyArrays": true}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from": mongotx.RoomImagesCollection,
			"let":  bson.M{"rid": "$room_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$room_id", "$$rid"}}}},
				bson.M{"$sort": bson.D{{Key: "is_primary", Value: -1}, {Key: "sort_order", Value: 1}}},
				bson.M{"$limit": 1},
			},
			"as": "image",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"room_number":    bson.M{"$ifNull": bson.A{"$room.room_number", ""}},
			"room_type_name": bson.M{"$ifNull": bson.A{"$type.name", ""}},
			"image_path":     bson.M{"$ifNull": bson.A{bson.M{"$arrayElemAt": bson.A{"$image.path", 0}}, ""}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"room": 0, "type": 0, "image": 0}}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bookingDetailDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	details := make([]*model.BookingDetail, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		details = append(details, &model.BookingDetail{
			Booking:      d.Booking,
			RoomNumber:   d.RoomNumber,
			RoomTypeName: d.RoomTypeName,
			ImagePath:    d.ImagePath,
		})
	}
	return details, nil
}

func overlapFilter(roomID int64, checkIn, checkOut time.Time) bson.M {
	return bson.M{
		"room_id":   roomID,
		"status":    bson.M{"$in": model.ActiveBookingStatuses},
		"check_in":  bson.M{"$lt": checkOut},
		"check_out": bson.M{"$gt": checkIn},
	}
}

func bookingFilterDoc(f model.BookingFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.RoomID > 0 {
		filter["room_id"] = f.RoomID
	}
	if f.UserID > 0 {
		filter["user_id"] = f.UserID
	}
	return filter
}

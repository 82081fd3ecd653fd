package repository

import (
	"context"

	"hotelbooking/pkg/contracts"
	"hotelbooking/pkg/model"
)

type RoomRepository interface {
	FindByID(ctx context.Context, id int64) (*model.Room, error)
	FindDetail(ctx context.Context, id int64) (*model.RoomDetail, error)
	FindAll(ctx context.Context, filter model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, error)
	Count(ctx context.Context, filter model.RoomFilter) (int64, error)
	FindFeatured(ctx context.Context, limit int) ([]*model.RoomDetail, error)
	// SearchAvailable returns bookable rooms matching the criteria. With
	// dates set, rooms holding an active booking that overlaps the stay are
	// left out.
	SearchAvailable(ctx context.Context, criteria model.AvailabilityCriteria) ([]*model.RoomDetail, error)
	Create(ctx context.Context, room *model.Room) error
	Update(ctx context.Context, room *model.Room) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	HasActiveBookings(ctx context.Context, id int64) (bool, error)
	ExecuteTransaction(ctx context.Context, fn contracts.TransactionFunc) error
}

type RoomTypeRepository interface {
	FindAll(ctx context.Context) ([]*model.RoomType, error)
	FindByID(ctx context.Context, id int64) (*model.RoomType, error)
	Create(ctx context.Context, rt *model.RoomType) error
	Update(ctx context.Context, rt *model.RoomType) error
	Delete(ctx context.Context, id int64) error
}

type RoomImageRepository interface {
	FindByRoom(ctx context.Context, roomID int64) ([]model.RoomImage, error)
	// ReplaceForRoom swaps the room's image set for images, in order.
	ReplaceForRoom(ctx context.Context, roomID int64, images []model.RoomImage) error
	Delete(ctx context.Context, id int64) error
}

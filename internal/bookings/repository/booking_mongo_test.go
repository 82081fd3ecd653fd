package repository

import (
	"context"
	"testing"

	"hotelbooking/internal/testutil"
	"hotelbooking/pkg/config"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoBookingRepository_HasConflict(t *testing.T) {
	h := testutil.NewMongo(t)
	ctx := context.Background()
	const roomID = 1

	if _, err := h.Database.Collection(mongotx.RoomsCollection).InsertOne(ctx, bson.M{
		"_id":         roomID,
		"room_number": "101",
		"status":      model.RoomStatusAvailable,
	}); err != nil {
		t.Fatalf("insert room: %v", err)
	}

	repo := NewMongoBookingRepository(h.Database, config.FromEnv())
	insert := func(reference string, in, out int, status string) int64 {
		t.Helper()
		b := &model.Booking{
			Reference:  reference,
			RoomID:     roomID,
			UserID:     1,
			GuestName:  "Ada Guest",
			GuestEmail: "ada@example.com",
			CheckIn:    testutil.Date(2025, 6, in),
			CheckOut:   testutil.Date(2025, 6, out),
			Guests:     1,
			Status:     status,
		}
		if err := repo.Create(ctx, b); err != nil {
			t.Fatalf("create %s: %v", reference, err)
		}
		return b.ID
	}
	held := insert("HB-00000001", 10, 14, model.BookingStatusConfirmed)
	insert("HB-00000002", 20, 22, model.BookingStatusCancelled)

	tests := []struct {
		name      string
		in, out   int
		excludeID int64
		want      bool
	}{
		{name: "overlap at start", in: 8, out: 11, want: true},
		{name: "contained", in: 11, out: 12, want: true},
		{name: "ends on check-in", in: 6, out: 10},
		{name: "starts on check-out", in: 14, out: 16},
		{name: "cancelled bookings do not hold the room", in: 20, out: 22},
		{name: "own booking excluded", in: 11, out: 13, excludeID: held},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.HasConflict(ctx, roomID, testutil.Date(2025, 6, tt.in), testutil.Date(2025, 6, tt.out), tt.excludeID)
			if err != nil {
				t.Fatalf("HasConflict() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("HasConflict() = %v, want %v", got, tt.want)
			}
		})
	}
}

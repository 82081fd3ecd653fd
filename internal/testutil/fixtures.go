package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hotelbooking/pkg/db/sqlite"
	"hotelbooking/pkg/model"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

type RoomTypeBuilder struct {
	rt model.RoomType
}

func NewRoomTypeBuilder() *RoomTypeBuilder {
	return &RoomTypeBuilder{
		rt: model.RoomType{
			Name:         "Deluxe",
			Description:  "King bed, city view",
			BasePrice:    12000,
			MaxOccupancy: 2,
			Amenities:    []string{"WiFi", "Minibar"},
		},
	}
}

func (b *RoomTypeBuilder) WithName(name string) *RoomTypeBuilder {
	b.rt.Name = name
	return b
}

func (b *RoomTypeBuilder) WithBasePrice(cents int64) *RoomTypeBuilder {
	b.rt.BasePrice = cents
	return b
}

func (b *RoomTypeBuilder) WithMaxOccupancy(n int) *RoomTypeBuilder {
	b.rt.MaxOccupancy = n
	return b
}

func (b *RoomTypeBuilder) Build() model.RoomType {
	return b.rt
}

type RoomBuilder struct {
	room model.Room
}

func NewRoomBuilder(roomTypeID int64) *RoomBuilder {
	return &RoomBuilder{
		room: model.Room{
			RoomTypeID:    roomTypeID,
			RoomNumber:    "101",
			Floor:         1,
			PricePerNight: 15000,
			Status:        model.RoomStatusAvailable,
		},
	}
}

func (b *RoomBuilder) WithNumber(number string) *RoomBuilder {
	b.room.RoomNumber = number
	return b
}

func (b *RoomBuilder) WithPrice(cents int64) *RoomBuilder {
	b.room.PricePerNight = cents
	return b
}

func (b *RoomBuilder) WithStatus(status string) *RoomBuilder {
	b.room.Status = status
	return b
}

func (b *RoomBuilder) Featured() *RoomBuilder {
	b.room.Featured = true
	return b
}

func (b *RoomBuilder) Build() model.Room {
	return b.room
}

// InsertRoomType writes rt straight into SQLite and returns its id.
func InsertRoomType(t *testing.T, db *sqlite.DB, rt model.RoomType) int64 {
	t.Helper()
	amenities, _ := json.Marshal(rt.Amenities)
	now := sqlite.FormatTime(time.Now())
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO room_types (name, description, base_price, max_occupancy, amenities, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rt.Name, rt.Description, rt.BasePrice, rt.MaxOccupancy, string(amenities), now, now)
	if err != nil {
		t.Fatalf("insert room type: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func InsertRoom(t *testing.T, db *sqlite.DB, room model.Room) int64 {
	t.Helper()
	now := sqlite.FormatTime(time.Now())
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO rooms (room_type_id, room_number, floor, price_per_night, status, description, featured, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.RoomTypeID, room.RoomNumber, room.Floor, room.PricePerNight, room.Status, room.Description, room.Featured, now, now)
	if err != nil {
		t.Fatalf("insert room: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func InsertImage(t *testing.T, db *sqlite.DB, roomID int64, path string, primary bool) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO room_images (room_id, path, caption, is_primary, sort_order, created_at) VALUES (?, ?, '', ?, 0, ?)`,
		roomID, path, primary, sqlite.FormatTime(time.Now()))
	if err != nil {
		t.Fatalf("insert image: %v", err)
	}
}

func InsertUser(t *testing.T, db *sqlite.DB, name, email string) int64 {
	t.Helper()
	now := sqlite.FormatTime(time.Now())
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO users (name, email, phone, password_hash, created_at, updated_at) VALUES (?, ?, '', 'x', ?, ?)`,
		name, email, now, now)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

// InsertBooking writes a booking with the given stay and status.
func InsertBooking(t *testing.T, db *sqlite.DB, roomID, userID int64, checkIn, checkOut time.Time, status string) int64 {
	t.Helper()
	now := sqlite.FormatTime(time.Now())
	res, err := db.ExecContext(context.Background(),
		`INSERT INTO bookings (reference, room_id, user_id, guest_name, guest_email, check_in, check_out, guests, total_price, status, created_at, updated_at)
		 VALUES (?, ?, ?, 'Guest', 'guest@example.com', ?, ?, 1, 10000, ?, ?, ?)`,
		"HB-"+sqlite.FormatDate(checkIn)+"-"+status+"-"+time.Now().Format("150405.000000000"),
		roomID, userID, sqlite.FormatDate(checkIn), sqlite.FormatDate(checkOut), status, now, now)
	if err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

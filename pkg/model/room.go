package model

import "time"

const (
	RoomStatusAvailable   = "available"
	RoomStatusOccupied    = "occupied"
	RoomStatusMaintenance = "maintenance"
)

var RoomStatuses = []string{RoomStatusAvailable, RoomStatusOccupied, RoomStatusMaintenance}

type RoomType struct {
	ID           int64     `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Description  string    `json:"description" bson:"description" validate:"max=2000"`
	BasePrice    int64     `json:"base_price" bson:"base_price" validate:"min=0"`
	MaxOccupancy int       `json:"max_occupancy" bson:"max_occupancy" validate:"required,min=1,max=20"`
	Amenities    []string  `json:"amenities" bson:"amenities" validate:"omitempty,max=30,dive,min=1,max=60"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type Room struct {
	ID            int64     `json:"id" bson:"_id"`
	RoomTypeID    int64     `json:"room_type_id" bson:"room_type_id" validate:"required,gt=0"`
	RoomNumber    string    `json:"room_number" bson:"room_number" validate:"required,min=1,max=20"`
	Floor         int       `json:"floor" bson:"floor" validate:"min=0,max=200"`
	PricePerNight int64     `json:"price_per_night" bson:"price_per_night" validate:"min=0"`
	Status        string    `json:"status" bson:"status" validate:"required,oneof=available occupied maintenance"`
	Description   string    `json:"description" bson:"description" validate:"max=2000"`
	Featured      bool      `json:"featured" bson:"featured"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

type RoomImage struct {
	ID        int64     `json:"id" bson:"_id"`
	RoomID    int64     `json:"room_id" bson:"room_id"`
	Path      string    `json:"path" bson:"path" validate:"required,max=255"`
	Caption   string    `json:"caption" bson:"caption" validate:"max=200"`
	IsPrimary bool      `json:"is_primary" bson:"is_primary"`
	SortOrder int       `json:"sort_order" bson:"sort_order"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// RoomDetail is a room joined with its type and images.
type RoomDetail struct {
	Room
	Type   RoomType    `json:"type"`
	Images []RoomImage `json:"images"`
}

// NightlyRate is the room's own price, or the type's base price when the
// room has none.
func (d *RoomDetail) NightlyRate() int64 {
	if d.PricePerNight > 0 {
		return d.PricePerNight
	}
	return d.Type.BasePrice
}

func (d *RoomDetail) PrimaryImage() string {
	for _, img := range d.Images {
		if img.IsPrimary {
			return img.Path
		}
	}
	if len(d.Images) > 0 {
		return d.Images[0].Path
	}
	return ""
}

func (d *RoomDetail) Bookable() bool {
	return d.Status != RoomStatusMaintenance
}

type RoomFilter struct {
	RoomTypeID   int64
	Status       string
	FeaturedOnly bool
}

// AvailabilityCriteria drives room search. Zero dates mean "any dates".
type AvailabilityCriteria struct {
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	RoomTypeID int64
}

func (c AvailabilityCriteria) HasDates() bool {
	return !c.CheckIn.IsZero() && !c.CheckOut.IsZero()
}

// RoomInput is the admin room form after decoding. Images holds one path
// per entry; the first becomes the primary image.
type RoomInput struct {
	RoomTypeID    int64    `form:"room_type_id" validate:"required,gt=0"`
	RoomNumber    string   `form:"room_number" validate:"required,min=1,max=20,room_number"`
	Floor         int      `form:"floor" validate:"min=0,max=200"`
	PricePerNight int64    `form:"price" validate:"min=0"`
	Status        string   `form:"status" validate:"required,oneof=available occupied maintenance"`
	Description   string   `form:"description" validate:"max=2000"`
	Featured      bool     `form:"featured"`
	Images        []string `form:"images" validate:"max=12,dive,min=1,max=255"`
}

// Availability lists the stays that hold a room within a window.
type Availability struct {
	RoomID int64       `json:"room_id"`
	From   time.Time   `json:"from"`
	To     time.Time   `json:"to"`
	Booked []DateRange `json:"booked"`
}

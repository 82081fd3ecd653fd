package model

import (
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusRejected  = "rejected"
)

var BookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusRejected}

// ActiveBookingStatuses are the statuses that hold a room.
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusConfirmed}

var bookingTransitions = map[string][]string{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled},
}

type Booking struct {
	ID              int64     `json:"id" bson:"_id"`
	Reference       string    `json:"reference" bson:"reference"`
	RoomID          int64     `json:"room_id" bson:"room_id" validate:"required,gt=0"`
	UserID          int64     `json:"user_id" bson:"user_id" validate:"required,gt=0"`
	GuestName       string    `json:"guest_name" bson:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail      string    `json:"guest_email" bson:"guest_email" validate:"required,email,max=255"`
	GuestPhone      string    `json:"guest_phone" bson:"guest_phone" validate:"omitempty,e164"`
	CheckIn         time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut        time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Guests          int       `json:"guests" bson:"guests" validate:"required,min=1,max=20"`
	TotalPrice      int64     `json:"total_price" bson:"total_price" validate:"min=0"`
	Status          string    `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled rejected"`
	SpecialRequests string    `json:"special_requests" bson:"special_requests" validate:"max=1000"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Nights() int {
	return NightsBetween(b.CheckIn, b.CheckOut)
}

func (b *Booking) IsActive() bool {
	return IsActiveStatus(b.Status)
}

// BookingDetail is a booking joined with the room it holds.
type BookingDetail struct {
	Booking
	RoomNumber   string `json:"room_number"`
	RoomTypeName string `json:"room_type_name"`
	ImagePath    string `json:"image_path"`
}

type BookingFilter struct {
	Status string
	RoomID int64
	UserID int64
}

// BookingRequest is a booking submission after form decoding.
type BookingRequest struct {
	RoomID          int64     `form:"room_id" validate:"required,gt=0"`
	UserID          int64     `form:"-" validate:"required,gt=0"`
	CheckIn         time.Time `form:"check_in" validate:"required"`
	CheckOut        time.Time `form:"check_out" validate:"required"`
	Guests          int       `form:"guests" validate:"required,min=1,max=20"`
	GuestName       string    `form:"guest_name" validate:"required,min=2,max=100"`
	GuestEmail      string    `form:"guest_email" validate:"required,email,max=255"`
	GuestPhone      string    `form:"guest_phone" validate:"omitempty,e164"`
	SpecialRequests string    `form:"special_requests" validate:"max=1000"`
}

// RescheduleRequest moves a booking to new dates.
type RescheduleRequest struct {
	CheckIn  time.Time `form:"check_in" validate:"required"`
	CheckOut time.Time `form:"check_out" validate:"required"`
}

// Quote is the price of a stay.
type Quote struct {
	RoomID      int64     `json:"room_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Nights      int       `json:"nights"`
	NightlyRate int64     `json:"nightly_rate"`
	Total       int64     `json:"total"`
}

// DateRange is a half-open stay [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Overlaps reports whether [aIn, aOut) and [bIn, bOut) share a night.
// Back-to-back stays, where one ends the day the other starts, do not.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

func NightsBetween(checkIn, checkOut time.Time) int {
	if !checkOut.After(checkIn) {
		return 0
	}
	return int(checkOut.Sub(checkIn).Hours()+0.5) / 24
}

func IsBookingStatus(status string) bool {
	for _, s := range BookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func IsActiveStatus(status string) bool {
	return status == BookingStatusPending || status == BookingStatusConfirmed
}

func CanTransition(from, to string) bool {
	for _, s := range bookingTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// AllowedFrom lists the statuses a booking may move to the target from.
func AllowedFrom(to string) []string {
	var out []string
	for from, targets := range bookingTransitions {
		for _, t := range targets {
			if t == to {
				out = append(out, from)
			}
		}
	}
	return out
}

package validator

import (
	"fmt"
	"time"

	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/validation"
)

type BookingValidator struct {
	validate *validation.Validator
	clock    clock.Clock
	maxStay  int
	logger   *logger.Logger
}

func NewBookingValidator(clk clock.Clock, maxStayNights int, log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		validate: validation.New(log),
		clock:    clk,
		maxStay:  maxStayNights,
		logger:   log,
	}
}

// ValidateRequest checks a guest's booking form against the room's
// occupancy. Field rules run first; stay rules only once both dates parse.
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest, maxOccupancy int) validation.FieldErrors {
	errs := v.validate.Struct(req)
	if errs == nil {
		errs = validation.FieldErrors{}
	}

	if _, bad := errs["check_in"]; !bad {
		if _, bad := errs["check_out"]; !bad {
			for field, msg := range v.ValidateStay(req.CheckIn, req.CheckOut) {
				errs.Add(field, msg)
			}
		}
	}

	if maxOccupancy > 0 && req.Guests > maxOccupancy {
		errs.Add("guests", fmt.Sprintf("This room sleeps at most %d guests", maxOccupancy))
	}
	return errs
}

// ValidateStay applies the date rules shared by new bookings and
// reschedules.
func (v *BookingValidator) ValidateStay(checkIn, checkOut time.Time) validation.FieldErrors {
	errs := validation.FieldErrors{}
	if checkIn.Before(clock.Today(v.clock)) {
		errs.Add("check_in", "Check-in cannot be in the past")
	}
	if !checkOut.After(checkIn) {
		errs.Add("check_out", "Check-out must be after check-in")
		return errs
	}
	if nights := model.NightsBetween(checkIn, checkOut); v.maxStay > 0 && nights > v.maxStay {
		errs.Add("check_out", fmt.Sprintf("Stays are limited to %d nights", v.maxStay))
	}
	return errs
}

func (v *BookingValidator) ValidateReschedule(req *model.RescheduleRequest) validation.FieldErrors {
	if errs := v.validate.Struct(req); errs.Any() {
		return errs
	}
	return v.ValidateStay(req.CheckIn, req.CheckOut)
}

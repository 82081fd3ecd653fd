package validator

import (
	"regexp"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/validation"

	"github.com/go-playground/validator/v10"
)

var roomNumberRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9-]{0,19}$`)

type RoomValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	v := validation.New(log)
	v.RegisterValidation("room_number", validateRoomNumber)
	return &RoomValidator{validate: v, logger: log}
}

func validateRoomNumber(fl validator.FieldLevel) bool {
	return roomNumberRegex.MatchString(fl.Field().String())
}

// ValidateInput checks an admin room form. Room numbers are expected
// already upper-cased by the sanitizer.
func (v *RoomValidator) ValidateInput(in *model.RoomInput) validation.FieldErrors {
	return v.validate.Struct(in)
}

func (v *RoomValidator) ValidateRoomType(rt *model.RoomType) validation.FieldErrors {
	return v.validate.Struct(rt)
}

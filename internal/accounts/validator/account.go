package validator

import (
	"unicode"

	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AccountValidator struct {
	validate *validation.Validator
	logger   *logger.Logger
}

func NewAccountValidator(log *logger.Logger) *AccountValidator {
	v := validation.New(log)
	v.RegisterValidation("password_mix", validatePasswordMix)
	return &AccountValidator{validate: v, logger: log}
}

// validatePasswordMix requires at least one letter and one digit.
func validatePasswordMix(fl validator.FieldLevel) bool {
	var letter, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return letter && digit
}

func (v *AccountValidator) ValidateRegistration(reg *model.Registration) validation.FieldErrors {
	return v.validate.Struct(reg)
}

func (v *AccountValidator) ValidateCredentials(c *model.Credentials) validation.FieldErrors {
	return v.validate.Struct(c)
}

func (v *AccountValidator) ValidateProfile(p *model.ProfileUpdate) validation.FieldErrors {
	return v.validate.Struct(p)
}

func (v *AccountValidator) ValidatePasswordChange(c *model.PasswordChange) validation.FieldErrors {
	return v.validate.Struct(c)
}

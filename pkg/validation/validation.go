// Package validation runs go-playground struct validation and turns the
// result into form field messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps form field names to a message.
type FieldErrors map[string]string

func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f FieldErrors) Any() bool {
	return len(f) > 0
}

// Err returns nil when there are no field errors, otherwise a 422 AppError.
func (f FieldErrors) Err(message string) error {
	if len(f) == 0 {
		return nil
	}
	if message == "" {
		message = "Please correct the highlighted fields"
	}
	return apperrors.ValidationFields(message, map[string]string(f))
}

type Validator struct {
	validate *validator.Validate
	log      *logger.Logger
}

func New(log *logger.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)
	return &Validator{validate: v, log: log}
}

// RegisterValidation adds a custom tag. Registration failures are start-up
// bugs and stop the process.
func (v *Validator) RegisterValidation(tag string, fn validator.Func) {
	if err := v.validate.RegisterValidation(tag, fn); err != nil {
		v.log.Fatal("Failed to register validation", "tag", tag, "error", err)
	}
}

// Struct validates s and returns per-field messages, or nil.
func (v *Validator) Struct(s any) FieldErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		v.log.Error("Struct validation failed unexpectedly", "error", err)
		return FieldErrors{"_": "The submitted data could not be validated"}
	}
	return translate(validationErrs)
}

func translate(errs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, len(errs))
	for _, err := range errs {
		label := humanize(err.Field())
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", label)
		case "min":
			if err.Kind() == reflect.String {
				message = fmt.Sprintf("%s must be at least %s characters", label, err.Param())
			} else {
				message = fmt.Sprintf("%s must be at least %s", label, err.Param())
			}
		case "max":
			if err.Kind() == reflect.String {
				message = fmt.Sprintf("%s must be at most %s characters", label, err.Param())
			} else {
				message = fmt.Sprintf("%s must be at most %s", label, err.Param())
			}
		case "gt":
			message = fmt.Sprintf("%s must be greater than %s", label, err.Param())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", label)
		case "e164":
			message = fmt.Sprintf("%s must be a valid phone number (e.g., +14155550123)", label)
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", label, strings.ReplaceAll(err.Param(), " ", ", "))
		case "eqfield":
			message = fmt.Sprintf("%s does not match", label)
		case "gtfield":
			message = fmt.Sprintf("%s must be after %s", label, strings.ToLower(humanize(snake(err.Param()))))
		case "password_mix":
			message = fmt.Sprintf("%s must contain at least one letter and one digit", label)
		case "alphanum":
			message = fmt.Sprintf("%s may only contain letters and digits", label)
		default:
			message = fmt.Sprintf("%s is invalid", label)
		}
		out.Add(err.Field(), message)
	}
	return out
}

// fieldName reports fields by their form/json name, falling back to
// snake_case of the Go name.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
			return name
		}
	}
	return snake(f.Name)
}

func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

package validation

import (
	"testing"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

type signup struct {
	FullName        string `validate:"required,min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `validate:"required,min=8"`
	PasswordConfirm string `validate:"eqfield=Password"`
	Guests          int    `form:"guests" validate:"min=1,max=6"`
}

func TestStruct(t *testing.T) {
	v := New(logger.Discard())

	tests := []struct {
		name       string
		in         signup
		wantFields map[string]string
	}{
		{
			name: "valid",
			in:   signup{FullName: "Ada", Email: "ada@example.com", Password: "longenough", PasswordConfirm: "longenough", Guests: 2},
		},
		{
			name: "several problems",
			in:   signup{FullName: "A", Email: "not-an-email", Password: "longenough", PasswordConfirm: "different", Guests: 9},
			wantFields: map[string]string{
				"full_name":        "Full name must be at least 2 characters",
				"email":            "Email must be a valid email address",
				"password_confirm": "Password confirm does not match",
				"guests":           "Guests must be at most 6",
			},
		},
		{
			name: "required",
			in:   signup{Guests: 1},
			wantFields: map[string]string{
				"full_name": "Full name is required",
				"email":     "Email is required",
				"password":  "Password is required",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Struct(tt.in)
			if len(tt.wantFields) == 0 {
				if got.Any() {
					t.Fatalf("unexpected errors: %v", got)
				}
				return
			}
			for field, msg := range tt.wantFields {
				if got[field] != msg {
					t.Errorf("%s: got %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}

func TestFieldErrors_Err(t *testing.T) {
	var none FieldErrors
	if err := none.Err(""); err != nil {
		t.Errorf("empty field errors must produce nil, got %v", err)
	}

	fe := FieldErrors{}
	fe.Add("check_in", "Check-in cannot be in the past")
	fe.Add("check_in", "ignored second message")

	appErr := apperrors.AsAppError(fe.Err("Invalid booking"))
	if appErr.Code != apperrors.CodeValidation || appErr.HTTPStatus != 422 {
		t.Fatalf("got %+v", appErr)
	}
	if appErr.FieldErrors()["check_in"] != "Check-in cannot be in the past" {
		t.Errorf("first message per field should win, got %v", appErr.FieldErrors())
	}
}

func TestSnake(t *testing.T) {
	for in, want := range map[string]string{
		"RoomID":        "room_id",
		"CheckIn":       "check_in",
		"PricePerNight": "price_per_night",
		"Name":          "name",
	} {
		if got := snake(in); got != want {
			t.Errorf("snake(%q) = %q, want %q", in, got, want)
		}
	}
}

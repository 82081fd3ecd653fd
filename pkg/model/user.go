package model

import "time"

const (
	AdminRoleStaff   = "staff"
	AdminRoleManager = "manager"
)

type User struct {
	ID           int64     `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email        string    `json:"email" bson:"email" validate:"required,email,max=255"`
	Phone        string    `json:"phone" bson:"phone" validate:"omitempty,e164"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

type Admin struct {
	ID           int64     `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username" validate:"required,min=3,max=50,alphanum"`
	Email        string    `json:"email" bson:"email" validate:"required,email,max=255"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=staff manager"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	LastLoginAt  time.Time `json:"last_login_at" bson:"last_login_at"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type Registration struct {
	Name            string `form:"name" validate:"required,min=2,max=100"`
	Email           string `form:"email" validate:"required,email,max=255"`
	Phone           string `form:"phone" validate:"omitempty,e164"`
	Password        string `form:"password" validate:"required,min=8,max=72,password_mix"`
	PasswordConfirm string `form:"password_confirmation" validate:"required,eqfield=Password"`
}

// Credentials is a login attempt. Login is the email for customers and the
// username for admins.
type Credentials struct {
	Login    string `form:"login" validate:"required,max=255"`
	Password string `form:"password" validate:"required,max=72"`
}

type ProfileUpdate struct {
	Name  string `form:"name" validate:"required,min=2,max=100"`
	Email string `form:"email" validate:"required,email,max=255"`
	Phone string `form:"phone" validate:"omitempty,e164"`
}

type PasswordChange struct {
	Current         string `form:"current_password" validate:"required"`
	Password        string `form:"password" validate:"required,min=8,max=72,password_mix"`
	PasswordConfirm string `form:"password_confirmation" validate:"required,eqfield=Password"`
}

type ContactMessage struct {
	Name    string    `json:"name" form:"name" validate:"required,min=2,max=100"`
	Email   string    `json:"email" form:"email" validate:"required,email,max=255"`
	Subject string    `json:"subject" form:"subject" validate:"required,min=3,max=150"`
	Message string    `json:"message" form:"message" validate:"required,min=10,max=5000"`
	SentAt  time.Time `json:"sent_at"`
}

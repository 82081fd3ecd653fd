package errors

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrAdminNotFound = errors.New("admin not found")

	ErrDuplicateEmail = errors.New("email already registered")

	ErrDuplicateUsername = errors.New("username already taken")
)

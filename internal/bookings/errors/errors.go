package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrRoomNotFound = errors.New("room not found")

	ErrDatesConflict = errors.New("booking dates conflict with an existing booking")

	ErrDuplicateReference = errors.New("booking reference already exists")

	ErrInvalidTransition = errors.New("booking status does not allow this change")

	ErrLockHeld = errors.New("room is locked by another booking request")
)

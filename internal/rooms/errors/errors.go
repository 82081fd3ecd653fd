package errors

import "errors"

var (
	ErrNotFound = errors.New("room not found")

	ErrRoomTypeNotFound = errors.New("room type not found")

	ErrImageNotFound = errors.New("room image not found")

	ErrDuplicateRoomNumber = errors.New("room number already exists")

	ErrDuplicateRoomType = errors.New("room type name already exists")

	ErrRoomTypeInUse = errors.New("room type still has rooms")

	ErrRoomInUse = errors.New("room has bookings")
)

package model

import (
	"strconv"
	"time"
)

// BookingLock is an advisory per-room lock document. Its _id is derived from
// the room id, so a second holder fails with a duplicate key.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func RoomLockID(roomID int64) string {
	return "room_lock_" + strconv.FormatInt(roomID, 10)
}

package notifier

import (
	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/model"
)

// Context carries one message through its flow.
type Context struct {
	Message kafka.Message

	Booking *model.BookingEvent
	Contact *model.ContactMessage

	Process       map[string]any
	Notifications []Notification
}

func NewContext(msg kafka.Message) *Context {
	return &Context{
		Message: msg,
		Process: make(map[string]any),
	}
}

// Package events publishes booking and contact events. The website never
// fails a request because a notification could not be queued: publishers
// log and swallow transport errors.
package events

import (
	"context"
	"strconv"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
)

const source = "hotel-web"

type Publisher interface {
	PublishBooking(ctx context.Context, event model.BookingEvent)
	PublishContact(ctx context.Context, msg model.ContactMessage)
}

// MessagePublisher is the part of *kafka.Producer the publisher uses.
type MessagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	bookings MessagePublisher
	contact  MessagePublisher
	log      *logger.Logger
}

func NewKafkaPublisher(bookings, contact MessagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{bookings: bookings, contact: contact, log: log}
}

func (p *KafkaPublisher) PublishBooking(ctx context.Context, event model.BookingEvent) {
	msg, err := kafka.NewMessage().
		WithKey(strconv.FormatInt(event.RoomID, 10)).
		WithEventType(event.Type).
		WithCorrelationID(requestID(ctx)).
		WithSchemaVersion(model.EventSchemaVersion).
		WithSource(source).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
	if err != nil {
		p.log.Error("Failed to build booking event", "reference", event.Reference, "error", err)
		return
	}
	if err := p.bookings.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.WithRequest(ctx).Error("Failed to publish booking event",
			"event_type", event.Type,
			"reference", event.Reference,
			"error", err,
		)
	}
}

func (p *KafkaPublisher) PublishContact(ctx context.Context, contact model.ContactMessage) {
	if p.contact == nil {
		return
	}
	msg, err := kafka.NewMessage().
		WithKey(contact.Email).
		WithEventType(model.EventContactSubmitted).
		WithCorrelationID(requestID(ctx)).
		WithSchemaVersion(model.EventSchemaVersion).
		WithSource(source).
		WithValue(contact).
		Build()
	if err != nil {
		p.log.Error("Failed to build contact event", "error", err)
		return
	}
	if err := p.contact.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.WithRequest(ctx).Error("Failed to publish contact event", "error", err)
	}
}

// LogPublisher records events in the application log. Used when Kafka is
// disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) PublishBooking(ctx context.Context, event model.BookingEvent) {
	p.log.WithRequest(ctx).Info("Booking event",
		"event_type", event.Type,
		"booking_id", event.BookingID,
		"reference", event.Reference,
		"status", event.Status,
	)
}

func (p *LogPublisher) PublishContact(ctx context.Context, msg model.ContactMessage) {
	p.log.WithRequest(ctx).Info("Contact message received",
		"email", msg.Email,
		"subject", msg.Subject,
	)
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(logger.RequestIDKey).(string)
	return id
}

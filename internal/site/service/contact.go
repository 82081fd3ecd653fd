package service

import (
	"context"

	"hotelbooking/internal/events"
	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/validation"
)

type ContactService interface {
	Submit(ctx context.Context, msg *model.ContactMessage) error
}

type contactService struct {
	validator *validation.Validator
	publisher events.Publisher
	clock     clock.Clock
	log       *logger.Logger
}

func NewContactService(publisher events.Publisher, clk clock.Clock, log *logger.Logger) ContactService {
	return &contactService{
		validator: validation.New(log),
		publisher: publisher,
		clock:     clk,
		log:       log,
	}
}

// Submit validates the message and hands it to the front desk through the
// event stream.
func (s *contactService) Submit(ctx context.Context, msg *model.ContactMessage) error {
	msg.Name = sanitizer.NormalizeName(msg.Name)
	msg.Email = sanitizer.NormalizeEmail(msg.Email)
	msg.Subject = sanitizer.TrimAndNormalize(msg.Subject)
	msg.Message = sanitizer.NormalizeText(msg.Message)

	if errs := s.validator.Struct(msg); errs.Any() {
		return errs.Err("")
	}

	msg.SentAt = s.clock.Now()
	s.publisher.PublishContact(ctx, *msg)
	s.log.WithRequest(ctx).Info("Contact message received", "subject", msg.Subject)
	return nil
}

package notifier

import (
	"context"

	"hotelbooking/pkg/logger"
)

type Notification struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, n Notification) error
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(ctx context.Context, n Notification) error {
	m.log.WithRequest(ctx).Info("Notification sent",
		"to", n.To,
		"subject", n.Subject,
		"body", n.Body,
	)
	return nil
}

package notifier

import (
	"context"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
)

type Options struct {
	// FrontDesk receives copies of new requests, cancellations and contact
	// messages. Empty disables them.
	FrontDesk   string
	Concurrency int
}

type Notifier struct {
	engine *Engine
	log    *logger.Logger
}

func New(mailer Mailer, opts Options, log *logger.Logger) *Notifier {
	d := &deliverer{
		mailer:    mailer,
		limiter:   NewLimiter(opts.Concurrency),
		frontDesk: opts.FrontDesk,
	}
	flows := append(bookingFlows(d), &contactFlow{d: d})
	return &Notifier{engine: NewEngine(flows...), log: log}
}

// Handle is a kafka.MessageHandler. Unknown event types are skipped so new
// producers never wedge the consumer.
func (n *Notifier) Handle(ctx context.Context, msg kafka.Message) error {
	eventType := msg.GetEventType()
	if !n.engine.Supports(eventType) {
		n.log.Warn("Skipping event with no notification flow",
			"event_type", eventType,
			"event_id", msg.GetEventID(),
		)
		return nil
	}
	return n.engine.Run(ctx, eventType, NewContext(msg))
}

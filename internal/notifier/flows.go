package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/render"
)

const (
	processGuestLine = "guest_line"
	processDeskLine  = "desk_line"
)

// bookingFlow notifies the guest about a booking change and copies the front
// desk when the change needs staff attention.
type bookingFlow struct {
	eventType string
	subject   string
	guestLine func(e *model.BookingEvent) string
	deskLine  func(e *model.BookingEvent) string
	d         *deliverer
}

func (f *bookingFlow) Name() string { return f.eventType }

func (f *bookingFlow) Steps() []Step {
	return []Step{
		NewStep("decode", decodeBooking),
		NewStep("compose", f.compose),
		NewStep("deliver", f.d.deliver),
	}
}

func (f *bookingFlow) compose(_ context.Context, nc *Context) error {
	e := nc.Booking
	nc.Process[processGuestLine] = f.guestLine(e)

	subject := fmt.Sprintf("%s (%s)", f.subject, e.Reference)
	if e.GuestEmail != "" {
		nc.Notifications = append(nc.Notifications, Notification{
			To:      e.GuestEmail,
			Subject: subject,
			Body:    bookingBody(e, f.guestLine(e)),
		})
	}
	if f.deskLine != nil && f.d.frontDesk != "" {
		line := f.deskLine(e)
		nc.Process[processDeskLine] = line
		nc.Notifications = append(nc.Notifications, Notification{
			To:      f.d.frontDesk,
			Subject: subject,
			Body:    bookingBody(e, line),
		})
	}
	return nil
}

func decodeBooking(_ context.Context, nc *Context) error {
	var e model.BookingEvent
	if err := nc.Message.DecodeValue(&e); err != nil {
		return err
	}
	if e.Reference == "" {
		return kafka.NewPermanentError("booking event has no reference", nil)
	}
	nc.Booking = &e
	return nil
}

func bookingBody(e *model.BookingEvent, line string) string {
	var b strings.Builder
	if e.GuestName != "" {
		fmt.Fprintf(&b, "Dear %s,\n\n", e.GuestName)
	}
	b.WriteString(line)
	fmt.Fprintf(&b, "\n\nReference: %s\nCheck-in: %s\nCheck-out: %s\nTotal: %s\n",
		e.Reference, e.CheckIn, e.CheckOut, render.Money(e.TotalPrice))
	return b.String()
}

type contactFlow struct {
	d *deliverer
}

func (f *contactFlow) Name() string { return model.EventContactSubmitted }

func (f *contactFlow) Steps() []Step {
	return []Step{
		NewStep("decode", decodeContact),
		NewStep("compose", f.compose),
		NewStep("deliver", f.d.deliver),
	}
}

func decodeContact(_ context.Context, nc *Context) error {
	var m model.ContactMessage
	if err := nc.Message.DecodeValue(&m); err != nil {
		return err
	}
	if m.Email == "" {
		return kafka.NewPermanentError("contact message has no email", nil)
	}
	nc.Contact = &m
	return nil
}

func (f *contactFlow) compose(_ context.Context, nc *Context) error {
	m := nc.Contact
	if f.d.frontDesk != "" {
		nc.Notifications = append(nc.Notifications, Notification{
			To:      f.d.frontDesk,
			Subject: "Contact form: " + m.Subject,
			Body:    fmt.Sprintf("From %s <%s>\n\n%s", m.Name, m.Email, m.Message),
		})
	}
	nc.Notifications = append(nc.Notifications, Notification{
		To:      m.Email,
		Subject: "We received your message",
		Body:    fmt.Sprintf("Hello %s,\n\nThanks for getting in touch. We will reply to %q shortly.", m.Name, m.Subject),
	})
	return nil
}

type deliverer struct {
	mailer    Mailer
	limiter   *Limiter
	frontDesk string
}

// deliver sends every composed notification concurrently. Failures are
// transient so the consumer retries the whole message.
func (d *deliverer) deliver(ctx context.Context, nc *Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, n := range nc.Notifications {
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.limiter.Run(func() {
				if err := d.mailer.Send(ctx, n); err != nil {
					mu.Lock()
					errs = append(errs, fmt.Errorf("send to %s: %w", n.To, err))
					mu.Unlock()
				}
			})
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		return kafka.NewTransientError("notification delivery failed", errors.Join(errs...))
	}
	return nil
}

func bookingFlows(d *deliverer) []Flow {
	return []Flow{
		&bookingFlow{
			eventType: model.EventBookingCreated,
			subject:   "We received your booking request",
			guestLine: func(e *model.BookingEvent) string {
				return "Thank you for your booking request. We will confirm it shortly."
			},
			deskLine: func(e *model.BookingEvent) string {
				return fmt.Sprintf("New booking request from %s <%s> awaits approval.", e.GuestName, e.GuestEmail)
			},
			d: d,
		},
		&bookingFlow{
			eventType: model.EventBookingConfirmed,
			subject:   "Your booking is confirmed",
			guestLine: func(e *model.BookingEvent) string {
				return "Good news: your booking is confirmed. We look forward to welcoming you."
			},
			d: d,
		},
		&bookingFlow{
			eventType: model.EventBookingRejected,
			subject:   "Your booking could not be accepted",
			guestLine: func(e *model.BookingEvent) string {
				return "Unfortunately we are unable to accept your booking for these dates."
			},
			d: d,
		},
		&bookingFlow{
			eventType: model.EventBookingCancelled,
			subject:   "Your booking was cancelled",
			guestLine: func(e *model.BookingEvent) string {
				return "Your booking has been cancelled."
			},
			deskLine: func(e *model.BookingEvent) string {
				return fmt.Sprintf("Booking cancelled by %s.", actor(e))
			},
			d: d,
		},
		&bookingFlow{
			eventType: model.EventBookingRescheduled,
			subject:   "Your booking dates have changed",
			guestLine: func(e *model.BookingEvent) string {
				return "Your stay has been moved to the dates below."
			},
			d: d,
		},
	}
}

func actor(e *model.BookingEvent) string {
	if e.Actor != "" {
		return e.Actor
	}
	return "the guest"
}

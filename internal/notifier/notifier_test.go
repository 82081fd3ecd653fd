package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"hotelbooking/pkg/kafka"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
)

type mockMailer struct {
	mu   sync.Mutex
	sent []Notification
	send func(n Notification) error
}

func (m *mockMailer) Send(_ context.Context, n Notification) error {
	if m.send != nil {
		if err := m.send(n); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockMailer) recipients() map[string]Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Notification, len(m.sent))
	for _, n := range m.sent {
		out[n.To] = n
	}
	return out
}

func bookingMessage(t *testing.T, eventType string) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().
		WithKey("4").
		WithEventType(eventType).
		WithValue(model.BookingEvent{
			Type:       eventType,
			BookingID:  9,
			Reference:  "HB-7F3A9C21",
			RoomID:     4,
			GuestName:  "Ada Lovelace",
			GuestEmail: "ada@example.com",
			CheckIn:    "2025-06-01",
			CheckOut:   "2025-06-05",
			Status:     model.BookingStatusPending,
			TotalPrice: 60000,
			OccurredAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
		}).
		Build()
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestHandle_BookingEvents(t *testing.T) {
	tests := []struct {
		eventType   string
		wantSubject string
		wantDesk    bool
	}{
		{eventType: model.EventBookingCreated, wantSubject: "We received your booking request", wantDesk: true},
		{eventType: model.EventBookingConfirmed, wantSubject: "Your booking is confirmed"},
		{eventType: model.EventBookingRejected, wantSubject: "could not be accepted"},
		{eventType: model.EventBookingCancelled, wantSubject: "cancelled", wantDesk: true},
		{eventType: model.EventBookingRescheduled, wantSubject: "dates have changed"},
	}
	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			mailer := &mockMailer{}
			n := New(mailer, Options{FrontDesk: "desk@hotel.test"}, logger.Discard())

			if err := n.Handle(context.Background(), bookingMessage(t, tt.eventType)); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			sent := mailer.recipients()
			guest, ok := sent["ada@example.com"]
			if !ok {
				t.Fatalf("guest not notified, sent = %+v", mailer.sent)
			}
			if !strings.Contains(guest.Subject, tt.wantSubject) || !strings.Contains(guest.Subject, "HB-7F3A9C21") {
				t.Errorf("subject = %q", guest.Subject)
			}
			if !strings.Contains(guest.Body, "Dear Ada Lovelace") || !strings.Contains(guest.Body, "$600.00") {
				t.Errorf("body = %q", guest.Body)
			}
			if _, ok := sent["desk@hotel.test"]; ok != tt.wantDesk {
				t.Errorf("front desk notified = %v, want %v", ok, tt.wantDesk)
			}
		})
	}
}

func TestHandle_Contact(t *testing.T) {
	msg, err := kafka.NewMessage().
		WithKey("grace@example.com").
		WithEventType(model.EventContactSubmitted).
		WithValue(model.ContactMessage{Name: "Grace", Email: "grace@example.com", Subject: "Parking", Message: "Is there parking?"}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	mailer := &mockMailer{}
	n := New(mailer, Options{FrontDesk: "desk@hotel.test"}, logger.Discard())

	if err := n.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	sent := mailer.recipients()
	if desk := sent["desk@hotel.test"]; !strings.Contains(desk.Body, "Is there parking?") {
		t.Errorf("desk body = %q", desk.Body)
	}
	if _, ok := sent["grace@example.com"]; !ok {
		t.Error("sender did not get an acknowledgement")
	}
}

func TestHandle_SkipsUnknownEvents(t *testing.T) {
	msg, _ := kafka.NewMessage().WithKey("k").WithEventType("room.painted").WithValue(map[string]string{}).Build()
	mailer := &mockMailer{}
	if err := New(mailer, Options{}, logger.Discard()).Handle(context.Background(), msg); err != nil {
		t.Fatalf("unknown events should be skipped, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Errorf("sent = %+v", mailer.sent)
	}
}

func TestHandle_ErrorClasses(t *testing.T) {
	t.Run("bad payload is permanent", func(t *testing.T) {
		msg := kafka.Message{
			Value:   []byte("{not json"),
			Headers: map[string]string{kafka.HeaderEventType: model.EventBookingCreated},
		}
		err := New(&mockMailer{}, Options{}, logger.Discard()).Handle(context.Background(), msg)
		if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
			t.Errorf("expected permanent error, got %v", err)
		}
		if !strings.Contains(err.Error(), "decode step failed") {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("missing reference is permanent", func(t *testing.T) {
		msg, _ := kafka.NewMessage().WithKey("1").WithEventType(model.EventBookingConfirmed).
			WithValue(model.BookingEvent{GuestEmail: "ada@example.com"}).Build()
		err := New(&mockMailer{}, Options{}, logger.Discard()).Handle(context.Background(), msg)
		if kafka.ClassifyError(err) != kafka.ErrorTypePermanent {
			t.Errorf("expected permanent error, got %v", err)
		}
	})

	t.Run("delivery failure is transient", func(t *testing.T) {
		down := errors.New("smtp: connection refused")
		mailer := &mockMailer{send: func(Notification) error { return down }}
		err := New(mailer, Options{}, logger.Discard()).Handle(context.Background(), bookingMessage(t, model.EventBookingConfirmed))
		if !kafka.ShouldRetry(err, 0, 3) {
			t.Errorf("expected a retryable error, got %v", err)
		}
		if !errors.Is(err, down) {
			t.Errorf("cause lost: %v", err)
		}
	})
}

func TestEngine_StopsAtFailingStep(t *testing.T) {
	var ran []string
	step := func(name string, err error) Step {
		return NewStep(name, func(context.Context, *Context) error {
			ran = append(ran, name)
			return err
		})
	}
	e := NewEngine(testFlow{name: "x", steps: []Step{step("a", nil), step("b", errors.New("boom")), step("c", nil)}})

	err := e.Run(context.Background(), "x", NewContext(kafka.Message{}))
	if err == nil || !strings.Contains(err.Error(), "b step failed") {
		t.Fatalf("error = %v", err)
	}
	if strings.Join(ran, ",") != "a,b" {
		t.Errorf("ran = %v", ran)
	}
	if err := e.Run(context.Background(), "y", NewContext(kafka.Message{})); err == nil {
		t.Error("expected unsupported flow error")
	}
}

type testFlow struct {
	name  string
	steps []Step
}

func (f testFlow) Name() string  { return f.name }
func (f testFlow) Steps() []Step { return f.steps }

func TestLimiter_BoundsConcurrency(t *testing.T) {
	l := NewLimiter(2)
	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Run(func() {
				c := current.Add(1)
				for {
					p := peak.Load()
					if c <= p || peak.CompareAndSwap(p, c) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
			})
		}()
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
	if l.InFlight() != 0 {
		t.Errorf("slots leaked: %d", l.InFlight())
	}
}

func TestLimiter_ReleasesOnPanic(t *testing.T) {
	l := NewLimiter(1)
	func() {
		defer func() { _ = recover() }()
		l.Run(func() { panic("boom") })
	}()
	if l.InFlight() != 0 {
		t.Fatal("slot not released after panic")
	}
}

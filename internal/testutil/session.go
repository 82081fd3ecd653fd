package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/session"
)

// WithSession attaches a new session to r. A non-zero subject is logged in.
func WithSession(t *testing.T, r *http.Request, sub session.Subject) (*http.Request, *session.Session) {
	t.Helper()
	mgr := newManager(clock.NewSystem())

	s, err := mgr.Start(r.Context(), r)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if sub.ID != 0 {
		if err := s.Login(sub); err != nil {
			t.Fatalf("login: %v", err)
		}
	}
	return r.WithContext(session.NewContext(r.Context(), s)), s
}

// WithExpiredSession attaches a session whose sub was logged in and then
// left idle past the timeout, as the session middleware would hand it over.
func WithExpiredSession(t *testing.T, r *http.Request, sub session.Subject) (*http.Request, *session.Session) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	mgr := newManager(clk)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	s, err := mgr.Start(first.Context(), first)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if err := s.Login(sub); err != nil {
		t.Fatalf("login: %v", err)
	}
	w := httptest.NewRecorder()
	if err := mgr.Commit(first.Context(), w, s); err != nil {
		t.Fatalf("commit: %v", err)
	}
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}

	clk.Advance(time.Hour)
	s, err = mgr.Start(r.Context(), r)
	if err != nil {
		t.Fatalf("restart session: %v", err)
	}
	if !s.Expired() {
		t.Fatal("session did not expire")
	}
	return r.WithContext(session.NewContext(r.Context(), s)), s
}

func newManager(clk clock.Clock) *session.Manager {
	return session.NewManager(session.NewMemoryStore(clk), session.Config{
		CookieName:  "hotel_session",
		HashKey:     []byte("0123456789abcdef0123456789abcdef"),
		IdleTimeout: 30 * time.Minute,
		Lifetime:    24 * time.Hour,
	}, clk, logger.Discard())
}

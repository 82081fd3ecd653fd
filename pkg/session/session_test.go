package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
)

const testIdle = 30 * time.Minute

func newTestManager(t *testing.T) (*Manager, *MemoryStore, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := NewMemoryStore(clk)
	m := NewManager(store, Config{
		CookieName:  "hotel_session",
		HashKey:     []byte("0123456789abcdef0123456789abcdef"),
		IdleTimeout: testIdle,
		Lifetime:    24 * time.Hour,
	}, clk, logger.Discard())
	return m, store, clk
}

// roundTrip starts a session from the cookies of prev, runs fn and commits.
func roundTrip(t *testing.T, m *Manager, prev *httptest.ResponseRecorder, fn func(s *Session)) (*Session, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if prev != nil {
		for _, c := range prev.Result().Cookies() {
			req.AddCookie(c)
		}
	}
	s, err := m.Start(context.Background(), req)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if fn != nil {
		fn(s)
	}
	w := httptest.NewRecorder()
	if err := m.Commit(context.Background(), w, s); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return s, w
}

func TestCSRF_NeverIssuedFails(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, err := m.Start(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatal(err)
	}

	if s.VerifyCSRF("") {
		t.Error("empty token must not verify")
	}
	if s.VerifyCSRF("guessed-token") {
		t.Error("verification must fail when no token was issued")
	}
}

func TestCSRF_IssuedTokenVerifies(t *testing.T) {
	m, _, _ := newTestManager(t)

	var token string
	_, w := roundTrip(t, m, nil, func(s *Session) {
		var err error
		token, err = s.CSRFToken()
		if err != nil {
			t.Fatal(err)
		}
	})

	s, _ := roundTrip(t, m, w, nil)
	if !s.VerifyCSRF(token) {
		t.Error("the issued token must verify on the next request")
	}
	if s.VerifyCSRF(token[:len(token)-1] + "x") {
		t.Error("a modified token must not verify")
	}
	if again, _ := s.CSRFToken(); again != token {
		t.Error("CSRFToken must be stable within a session")
	}
}

func TestCSRF_TokensAreUnpredictable(t *testing.T) {
	m, _, _ := newTestManager(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		s, err := m.Start(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
		if err != nil {
			t.Fatal(err)
		}
		token, err := s.CSRFToken()
		if err != nil {
			t.Fatal(err)
		}
		if len(token) < 43 {
			t.Fatalf("token too short: %q", token)
		}
		if seen[token] {
			t.Fatalf("token repeated: %q", token)
		}
		seen[token] = true
	}
}

func TestLogin_RotatesIDAndKeepsCSRF(t *testing.T) {
	m, store, _ := newTestManager(t)

	var token string
	first, w := roundTrip(t, m, nil, func(s *Session) { token, _ = s.CSRFToken() })
	oldID := first.ID()

	second, w2 := roundTrip(t, m, w, func(s *Session) {
		if err := s.Login(Subject{Kind: KindUser, ID: 7, Name: "Ada", Email: "ada@example.com"}); err != nil {
			t.Fatal(err)
		}
	})

	if second.ID() == oldID {
		t.Error("login must rotate the session id")
	}
	if _, err := store.Load(context.Background(), oldID); err != ErrNotFound {
		t.Errorf("old session record should be deleted, got %v", err)
	}
	if !second.VerifyCSRF(token) {
		t.Error("existing CSRF token must survive login")
	}

	third, _ := roundTrip(t, m, w2, nil)
	if !third.IsAuthenticated() || third.UserID() != 7 {
		t.Error("login should persist across requests")
	}
	if u, _ := third.User(); u.Name != "Ada" {
		t.Errorf("identity snapshot = %+v", u)
	}
}

func TestLogin_GeneratesCSRFWhenAbsent(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, _ := roundTrip(t, m, nil, func(s *Session) {
		_ = s.Login(Subject{Kind: KindAdmin, ID: 1, Name: "root", Role: "manager"})
	})
	if s.data.CSRFToken == "" {
		t.Error("login should issue a CSRF token")
	}
	if !s.IsAdmin() || s.AdminRole() != "manager" {
		t.Error("admin identity not stored")
	}
}

func TestIdleTimeout(t *testing.T) {
	tests := []struct {
		name     string
		idle     time.Duration
		wantAuth bool
	}{
		{"active session", testIdle - time.Minute, true},
		{"exactly at the limit", testIdle, true},
		{"idle too long", testIdle + time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, store, clk := newTestManager(t)
			_, w := roundTrip(t, m, nil, func(s *Session) {
				_ = s.Login(Subject{Kind: KindUser, ID: 3})
			})

			clk.Advance(tt.idle)
			s, _ := roundTrip(t, m, w, nil)

			if s.IsAuthenticated() != tt.wantAuth {
				t.Fatalf("IsAuthenticated = %v, want %v", s.IsAuthenticated(), tt.wantAuth)
			}
			if s.Expired() == tt.wantAuth {
				t.Errorf("Expired = %v", s.Expired())
			}
			if !tt.wantAuth {
				flashes := s.Flashes()
				if len(flashes) != 1 || flashes[0].Message != ExpiredMessage {
					t.Errorf("expected expiry flash, got %+v", flashes)
				}
				if store.Len() != 1 {
					t.Errorf("expired record should be replaced, store has %d", store.Len())
				}
			}
		})
	}
}

func TestIdleTimeout_ActivityExtendsSession(t *testing.T) {
	m, _, clk := newTestManager(t)
	_, w := roundTrip(t, m, nil, func(s *Session) { _ = s.Login(Subject{Kind: KindUser, ID: 3}) })

	for i := 0; i < 4; i++ {
		clk.Advance(testIdle - time.Minute)
		var s *Session
		s, w = roundTrip(t, m, w, nil)
		if !s.IsAuthenticated() {
			t.Fatalf("request %d: session should still be active", i)
		}
	}
}

func TestLogout(t *testing.T) {
	m, _, _ := newTestManager(t)
	s, _ := roundTrip(t, m, nil, func(s *Session) {
		_ = s.Login(Subject{Kind: KindUser, ID: 9})
	})
	before := s.ID()

	if err := s.Logout(); err != nil {
		t.Fatal(err)
	}
	if s.IsAuthenticated() || s.ID() == before || s.data.CSRFToken != "" {
		t.Error("logout must clear data and rotate the id")
	}
}

func TestTamperedCookieStartsFresh(t *testing.T) {
	m, _, _ := newTestManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "hotel_session", Value: "forged"})

	s, err := m.Start(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !s.isNew || s.IsAuthenticated() {
		t.Error("a forged cookie must yield a new anonymous session")
	}
}

func TestFlashesAndIntended(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, w := roundTrip(t, m, nil, func(s *Session) {
		s.Flash(FlashSuccess, "Booking received")
		s.SetIntended("/bookings/create/4")
	})

	s, _ := roundTrip(t, m, w, nil)
	if got := s.Flashes(); len(got) != 1 || got[0].Message != "Booking received" {
		t.Errorf("flashes = %+v", got)
	}
	if got := s.Flashes(); got != nil {
		t.Errorf("flashes must be consumed, got %+v", got)
	}
	if got := s.PopIntended("/dashboard"); got != "/bookings/create/4" {
		t.Errorf("intended = %q", got)
	}
	if got := s.PopIntended("/dashboard"); got != "/dashboard" {
		t.Errorf("fallback = %q", got)
	}
}

func TestMiddleware_CommitsBeforeHeaders(t *testing.T) {
	m, _, _ := newTestManager(t)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		if s == nil {
			t.Fatal("session missing from context")
		}
		_ = s.Login(Subject{Kind: KindUser, ID: 5})
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", w.Code)
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "hotel_session" || !cookies[0].HttpOnly {
		t.Fatalf("expected session cookie on the redirect, got %+v", cookies)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	store := NewMemoryStore(clk)
	ctx := context.Background()

	if err := store.Save(ctx, "abc", &Data{UserID: 1}, time.Minute); err != nil {
		t.Fatal(err)
	}
	got, err := store.Load(ctx, "abc")
	if err != nil || got.UserID != 1 {
		t.Fatalf("Load = %+v, %v", got, err)
	}

	clk.Advance(time.Minute)
	if _, err := store.Load(ctx, "abc"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after ttl, got %v", err)
	}
}

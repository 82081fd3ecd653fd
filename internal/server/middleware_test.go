package server

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"hotelbooking/internal/testutil"
	"hotelbooking/pkg/authz"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/session"
)

var (
	customer = session.Subject{Kind: session.KindUser, ID: 7, Name: "Ada", Email: "ada@example.com"}
	staff    = session.Subject{Kind: session.KindAdmin, ID: 3, Role: model.AdminRoleStaff, Name: "Desk"}
	manager  = session.Subject{Kind: session.KindAdmin, ID: 4, Role: model.AdminRoleManager, Name: "Boss"}
)

func TestAuth(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		subject      session.Subject
		expired      bool
		wantHandled  bool
		wantIntended string
		wantFlash    string
	}{
		{name: "anonymous GET remembers target", method: http.MethodGet, wantHandled: true, wantIntended: "/dashboard/bookings?status=pending"},
		{name: "anonymous POST is not remembered", method: http.MethodPost, wantHandled: true, wantIntended: "/fallback"},
		{name: "customer passes", method: http.MethodGet, subject: customer},
		{name: "admin is not a customer", method: http.MethodGet, subject: staff, wantHandled: true, wantIntended: "/dashboard/bookings?status=pending"},
		{name: "expired customer", method: http.MethodGet, subject: customer, expired: true, wantHandled: true, wantIntended: "/dashboard/bookings?status=pending", wantFlash: session.ExpiredMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/dashboard/bookings?status=pending", nil)
			var s *session.Session
			if tt.expired {
				r, s = testutil.WithExpiredSession(t, r, tt.subject)
			} else {
				r, s = testutil.WithSession(t, r, tt.subject)
			}
			w := httptest.NewRecorder()

			handled, err := auth(w, r)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if handled != tt.wantHandled {
				t.Fatalf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if !handled {
				return
			}
			if w.Code != http.StatusSeeOther || w.Header().Get("Location") != loginPath {
				t.Errorf("got %d to %q, want 303 to %s", w.Code, w.Header().Get("Location"), loginPath)
			}
			if got := s.PopIntended("/fallback"); got != tt.wantIntended {
				t.Errorf("intended = %q, want %q", got, tt.wantIntended)
			}
			flashes := s.Flashes()
			if len(flashes) != 1 || flashes[0].Kind != session.FlashInfo {
				t.Fatalf("expected one info flash, got %+v", flashes)
			}
			if tt.wantFlash != "" && flashes[0].Message != tt.wantFlash {
				t.Errorf("flash = %q, want %q", flashes[0].Message, tt.wantFlash)
			}
		})
	}
}

func TestGuest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/login", nil)
	r, _ = testutil.WithSession(t, r, customer)
	w := httptest.NewRecorder()

	handled, err := guest(w, r)
	if err != nil || !handled {
		t.Fatalf("handled = %v, err = %v", handled, err)
	}
	if w.Header().Get("Location") != dashboardPath {
		t.Errorf("Location = %q", w.Header().Get("Location"))
	}

	r = httptest.NewRequest(http.MethodGet, "/login", nil)
	r, _ = testutil.WithSession(t, r, session.Subject{})
	if handled, _ := guest(httptest.NewRecorder(), r); handled {
		t.Error("anonymous visitors should reach the login page")
	}
}

func TestAdminMiddleware(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	r, _ = testutil.WithSession(t, r, customer)
	w := httptest.NewRecorder()
	if handled, _ := admin(w, r); !handled || w.Header().Get("Location") != adminLoginPath {
		t.Errorf("customers must be sent to the admin login, got %q", w.Header().Get("Location"))
	}

	r = httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	r, _ = testutil.WithSession(t, r, staff)
	w = httptest.NewRecorder()
	if handled, _ := adminGuest(w, r); !handled || w.Header().Get("Location") != adminHomePath {
		t.Errorf("signed-in admins skip the login page, got %q", w.Header().Get("Location"))
	}

	r = httptest.NewRequest(http.MethodGet, "/admin/bookings", nil)
	r, s := testutil.WithExpiredSession(t, r, staff)
	w = httptest.NewRecorder()
	if handled, _ := admin(w, r); !handled || w.Header().Get("Location") != adminLoginPath {
		t.Fatalf("expired admins must be sent to the admin login, got %q", w.Header().Get("Location"))
	}
	if flashes := s.Flashes(); len(flashes) != 1 || flashes[0].Message != session.ExpiredMessage {
		t.Errorf("expected a single expiry notice, got %+v", flashes)
	}
}

func TestCSRF(t *testing.T) {
	tests := []struct {
		name    string
		request func(token string) *http.Request
		wantErr bool
	}{
		{
			name: "form field",
			request: func(token string) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(url.Values{CSRFField: {token}}.Encode()))
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return r
			},
		},
		{
			name: "header",
			request: func(token string) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/contact", nil)
				r.Header.Set(CSRFHeader, token)
				return r
			},
		},
		{
			name: "wrong token",
			request: func(token string) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/contact", nil)
				r.Header.Set(CSRFHeader, token+"x")
				return r
			},
			wantErr: true,
		},
		{
			name: "missing token",
			request: func(string) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/contact", nil)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Issue the token on one request and present it on the next,
			// the way a browser does.
			_, s := testutil.WithSession(t, httptest.NewRequest(http.MethodGet, "/contact", nil), session.Subject{})
			token, err := s.CSRFToken()
			if err != nil {
				t.Fatalf("issue token: %v", err)
			}

			req := tt.request(token)
			req = req.WithContext(session.NewContext(req.Context(), s))
			_, err = csrf(httptest.NewRecorder(), req)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeForbidden) {
					t.Errorf("expected Forbidden, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestCan(t *testing.T) {
	authorizer, err := authz.New(logger.Discard())
	if err != nil {
		t.Fatalf("authz: %v", err)
	}
	check := can(authorizer)

	tests := []struct {
		name    string
		subject session.Subject
		method  string
		path    string
		form    url.Values
		allowed bool
	}{
		{name: "staff lists rooms", subject: staff, method: http.MethodGet, path: "/admin/rooms", allowed: true},
		{name: "trailing slash matches the route", subject: staff, method: http.MethodGet, path: "/admin/bookings/", allowed: true},
		{name: "query override is ignored", subject: staff, method: http.MethodPost, path: "/admin/bookings/12/approve?_method=PUT", allowed: true},
		{name: "staff approves", subject: staff, method: http.MethodPost, path: "/admin/bookings/12/approve", allowed: true},
		{name: "staff cannot create rooms", subject: staff, method: http.MethodPost, path: "/admin/rooms"},
		{name: "staff cannot move dates", subject: staff, method: http.MethodPost, path: "/admin/bookings/12/dates", form: url.Values{"_method": {"PUT"}}},
		{name: "manager moves dates", subject: manager, method: http.MethodPost, path: "/admin/bookings/12/dates", form: url.Values{"_method": {"PUT"}}, allowed: true},
		{name: "manager deletes rooms", subject: manager, method: http.MethodPost, path: "/admin/rooms/5", form: url.Values{"_method": {"DELETE"}}, allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.form.Encode()))
			if tt.form != nil {
				r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
			r, _ = testutil.WithSession(t, r, tt.subject)

			_, err := check(httptest.NewRecorder(), r)
			if tt.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tt.allowed && !apperrors.HasCode(err, apperrors.CodeForbidden) {
				t.Errorf("expected Forbidden, got %v", err)
			}
		})
	}
}

func TestRoutesPrecedence(t *testing.T) {
	h := newHarness(t)
	routes := h.srv.router.Routes()

	index := func(method, pattern string) int {
		for i, rt := range routes {
			if rt.Method == method && rt.Pattern == pattern {
				return i
			}
		}
		t.Fatalf("route %s %s not registered", method, pattern)
		return -1
	}
	if index(http.MethodGet, "/rooms/search") > index(http.MethodGet, "/rooms/{id}") {
		t.Error("/rooms/search must be registered before /rooms/{id}")
	}
	if index(http.MethodGet, "/admin/rooms/create") > index(http.MethodGet, "/admin/rooms/{id}/edit") {
		t.Error("/admin/rooms/create must be registered before the room routes")
	}
}

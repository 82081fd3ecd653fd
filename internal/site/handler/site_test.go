package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hotelbooking/internal/testutil"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/session"
	"hotelbooking/pkg/validation"
)

type stubRooms struct {
	featured []*model.RoomDetail
}

func (s stubRooms) Featured(ctx context.Context, limit int) ([]*model.RoomDetail, error) {
	return s.featured, nil
}
func (s stubRooms) RoomTypes(ctx context.Context) ([]*model.RoomType, error) {
	return []*model.RoomType{{ID: 1, Name: "Deluxe"}, {ID: 2, Name: "Suite"}}, nil
}
func (s stubRooms) List(ctx context.Context, f model.RoomFilter, limit int, offset int64) ([]*model.RoomDetail, int64, error) {
	return nil, 0, nil
}
func (s stubRooms) Get(ctx context.Context, id int64) (*model.RoomDetail, error) { return nil, nil }
func (s stubRooms) Search(ctx context.Context, c model.AvailabilityCriteria) ([]*model.RoomDetail, error) {
	return nil, nil
}
func (s stubRooms) Availability(ctx context.Context, id int64, from, to time.Time) (*model.Availability, error) {
	return nil, nil
}
func (s stubRooms) Create(ctx context.Context, in *model.RoomInput) (*model.Room, error) {
	return nil, nil
}
func (s stubRooms) Update(ctx context.Context, id int64, in *model.RoomInput) error { return nil }
func (s stubRooms) Delete(ctx context.Context, id int64) error { return nil }

type mockContact struct {
	submitFunc func(ctx context.Context, msg *model.ContactMessage) error
}

func (m *mockContact) Submit(ctx context.Context, msg *model.ContactMessage) error {
	return m.submitFunc(ctx, msg)
}

func newTestHandler(rooms stubRooms, contact *mockContact) *SiteHandler {
	responder := testutil.NewResponder(map[string]string{
		"home":    `{{range .Featured}}room {{.RoomNumber}} {{end}}{{range .RoomTypes}}type {{.Name}} {{end}}`,
		"about":   `about {{.AppName}}`,
		"contact": `contact {{field .Errors "message"}} name={{.Old.Get "name"}}`,
	})
	return NewSiteHandler(rooms, contact, responder, logger.Discard())
}

func TestSiteHandler_Home(t *testing.T) {
	h := newTestHandler(stubRooms{featured: []*model.RoomDetail{{Room: model.Room{RoomNumber: "101"}}}}, &mockContact{})
	rr := httptest.NewRecorder()

	if err := h.Home(rr, httptest.NewRequest(http.MethodGet, "/", nil), nil); err != nil {
		t.Fatalf("Home returned error: %v", err)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "room 101") || !strings.Contains(body, "type Suite") {
		t.Errorf("unexpected body %q", body)
	}
}

func TestSiteHandler_SubmitContact(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"sent", nil, http.StatusSeeOther},
		{"invalid", validation.FieldErrors{"message": "Message must be at least 10 characters"}.Err(""), http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(stubRooms{}, &mockContact{
				submitFunc: func(ctx context.Context, msg *model.ContactMessage) error { return tt.err },
			})
			form := url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "subject": {"Hello"}, "message": {"Hi"}}
			req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			req, s := testutil.WithSession(t, req, session.Subject{})
			rr := httptest.NewRecorder()

			if err := h.SubmitContact(rr, req, nil); err != nil {
				t.Fatalf("SubmitContact returned error: %v", err)
			}
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.err != nil && !strings.Contains(rr.Body.String(), "name=Ada") {
				t.Errorf("submitted values must be kept: %q", rr.Body.String())
			}
			if tt.err == nil {
				if flashes := s.Flashes(); len(flashes) != 1 || flashes[0].Kind != session.FlashSuccess {
					t.Errorf("expected a success flash, got %+v", flashes)
				}
			}
		})
	}
}

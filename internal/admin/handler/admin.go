// Package handler serves the back office: admin sign-in, the dashboard,
// the room catalogue and booking moderation.
package handler

import (
	"net/http"

	accountsservice "hotelbooking/internal/accounts/service"
	bookingsservice "hotelbooking/internal/bookings/service"
	roomsservice "hotelbooking/internal/rooms/service"
	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/session"
)

const (
	adminHome      = "/admin"
	recentBookings = 8
)

// Authorizer decides what an admin role may do. *authz.Authorizer
// satisfies it.
type Authorizer interface {
	Allowed(role, path, method string) bool
}

type AdminHandler struct {
	accounts accountsservice.AccountService
	rooms    roomsservice.RoomService
	bookings bookingsservice.BookingService
	authz    Authorizer
	view     *view.Responder
	log      *logger.Logger
}

func NewAdminHandler(
	accounts accountsservice.AccountService,
	rooms roomsservice.RoomService,
	bookings bookingsservice.BookingService,
	authz Authorizer,
	view *view.Responder,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		accounts: accounts,
		rooms:    rooms,
		bookings: bookings,
		authz:    authz,
		view:     view,
		log:      log,
	}
}

func (h *AdminHandler) ShowLogin(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	return h.view.Render(w, r, http.StatusOK, "admin/login", nil)
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	creds := &model.Credentials{Login: r.PostForm.Get("login"), Password: r.PostForm.Get("password")}

	admin, err := h.accounts.AuthenticateAdmin(r.Context(), creds)
	if err != nil {
		r.PostForm.Del("password")
		return h.view.Invalid(w, r, "admin/login", nil, err)
	}

	s := session.FromContext(r.Context())
	if err := s.Login(session.Subject{Kind: session.KindAdmin, ID: admin.ID, Role: admin.Role, Name: admin.Name, Email: admin.Email}); err != nil {
		return apperrors.Internal("Failed to start session", err)
	}
	h.log.WithRequest(r.Context()).Info("Admin signed in", "admin_id", admin.ID, "role", admin.Role)

	target := sanitizer.SafeRedirect(s.PopIntended(adminHome), adminHome)
	return h.view.Redirect(w, r, target)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := session.FromContext(r.Context()).Logout(); err != nil {
		return apperrors.Internal("Failed to end session", err)
	}
	return h.view.RedirectWithFlash(w, r, "/admin/login", session.FlashInfo, "You have been signed out.")
}

// Dashboard shows booking counts by status and the latest bookings.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	counts, err := h.bookings.StatusCounts(r.Context())
	if err != nil {
		return err
	}
	recent, _, err := h.bookings.List(r.Context(), model.BookingFilter{}, recentBookings, 0)
	if err != nil {
		return err
	}
	_, roomCount, err := h.rooms.List(r.Context(), model.RoomFilter{}, 1, 0)
	if err != nil {
		return err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	return h.view.Render(w, r, http.StatusOK, "admin/dashboard", view.Data{
		"Counts":   counts,
		"Total":    total,
		"Recent":   recent,
		"Rooms":    roomCount,
		"Statuses": model.BookingStatuses,
		"Can":      h.permissions(r),
	})
}

// permissions tells the views which manager-only actions to offer. The
// "can" route middleware enforces them.
func (h *AdminHandler) permissions(r *http.Request) map[string]bool {
	role := session.FromContext(r.Context()).AdminRole()
	return map[string]bool{
		"ManageRooms": h.authz.Allowed(role, "/admin/rooms", http.MethodPost),
		"Reschedule":  h.authz.Allowed(role, "/admin/bookings/0/dates", http.MethodPut),
		"Moderate":    h.authz.Allowed(role, "/admin/bookings/0/approve", http.MethodPost),
	}
}

package handler

import (
	"context"
	"net/http"
	"net/url"

	"hotelbooking/internal/accounts/service"
	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/sanitizer"
	"hotelbooking/pkg/session"
)

const (
	dashboardPath  = "/dashboard"
	recentBookings = 5
)

// BookingLister lists a guest's bookings. The booking service satisfies it.
type BookingLister interface {
	List(ctx context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.BookingDetail, int64, error)
}

type AccountHandler struct {
	service  service.AccountService
	bookings BookingLister
	view     *view.Responder
	log      *logger.Logger
}

func NewAccountHandler(service service.AccountService, bookings BookingLister, view *view.Responder, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		service:  service,
		bookings: bookings,
		view:     view,
		log:      log,
	}
}

func (h *AccountHandler) ShowLogin(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	return h.view.Render(w, r, http.StatusOK, "auth/login", nil)
}

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	creds := &model.Credentials{Login: r.PostForm.Get("login"), Password: r.PostForm.Get("password")}

	user, err := h.service.Authenticate(r.Context(), creds)
	if err != nil {
		r.PostForm.Del("password")
		return h.view.Invalid(w, r, "auth/login", nil, err)
	}

	s := session.FromContext(r.Context())
	if err := s.Login(session.Subject{Kind: session.KindUser, ID: user.ID, Name: user.Name, Email: user.Email}); err != nil {
		return apperrors.Internal("Failed to start session", err)
	}
	h.log.WithRequest(r.Context()).Info("User signed in", "user_id", user.ID)

	target := sanitizer.SafeRedirect(s.PopIntended(dashboardPath), dashboardPath)
	return h.view.RedirectWithFlash(w, r, target, session.FlashSuccess, "Welcome back, "+user.Name+"!")
}

func (h *AccountHandler) ShowRegister(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	return h.view.Render(w, r, http.StatusOK, "auth/register", nil)
}

// Register creates the account and signs the new guest in.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	form := r.PostForm
	reg := &model.Registration{
		Name:            form.Get("name"),
		Email:           form.Get("email"),
		Phone:           form.Get("phone"),
		Password:        form.Get("password"),
		PasswordConfirm: form.Get("password_confirmation"),
	}

	user, err := h.service.Register(r.Context(), reg)
	if err != nil {
		form.Del("password")
		form.Del("password_confirmation")
		return h.view.Invalid(w, r, "auth/register", nil, err)
	}

	s := session.FromContext(r.Context())
	if err := s.Login(session.Subject{Kind: session.KindUser, ID: user.ID, Name: user.Name, Email: user.Email}); err != nil {
		return apperrors.Internal("Failed to start session", err)
	}
	target := sanitizer.SafeRedirect(s.PopIntended(dashboardPath), dashboardPath)
	return h.view.RedirectWithFlash(w, r, target, session.FlashSuccess, "Your account has been created. Welcome, "+user.Name+"!")
}

func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	s := session.FromContext(r.Context())
	if err := s.Logout(); err != nil {
		return apperrors.Internal("Failed to end session", err)
	}
	return h.view.RedirectWithFlash(w, r, "/", session.FlashInfo, "You have been signed out.")
}

// Dashboard shows the guest's latest bookings.
func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	userID := session.FromContext(r.Context()).UserID()
	bookings, total, err := h.bookings.List(r.Context(), model.BookingFilter{UserID: userID}, recentBookings, 0)
	if err != nil {
		return err
	}
	_, active, err := h.bookings.List(r.Context(), model.BookingFilter{UserID: userID, Status: model.BookingStatusConfirmed}, 1, 0)
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "dashboard/index", view.Data{
		"Bookings":  bookings,
		"Total":     total,
		"Confirmed": active,
	})
}

func (h *AccountHandler) Bookings(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	userID := session.FromContext(r.Context()).UserID()
	page := httputil.ExtractPage(r)
	status := r.URL.Query().Get("status")
	if !model.IsBookingStatus(status) {
		status = ""
	}

	bookings, total, err := h.bookings.List(r.Context(), model.BookingFilter{UserID: userID, Status: status}, page.Size, page.Offset())
	if err != nil {
		return err
	}
	base := ""
	if status != "" {
		base = "status=" + status
	}
	return h.view.Render(w, r, http.StatusOK, "dashboard/bookings", view.Data{
		"Bookings":   bookings,
		"Status":     status,
		"Pagination": httputil.NewPagination(page, total, base),
	})
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	user, err := h.service.GetUser(r.Context(), session.FromContext(r.Context()).UserID())
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "dashboard/profile", view.Data{
		"Profile": user,
		"Old":     profileValues(user),
	})
}

func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	s := session.FromContext(r.Context())
	update := &model.ProfileUpdate{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
		Phone: r.PostForm.Get("phone"),
	}

	user, err := h.service.UpdateProfile(r.Context(), s.UserID(), update)
	if err != nil {
		return h.view.Invalid(w, r, "dashboard/profile", nil, err)
	}
	s.UpdateUser(user.Name, user.Email)
	return h.view.RedirectWithFlash(w, r, "/dashboard/profile", session.FlashSuccess, "Your profile has been updated.")
}

func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	s := session.FromContext(r.Context())
	change := &model.PasswordChange{
		Current:         r.PostForm.Get("current_password"),
		Password:        r.PostForm.Get("password"),
		PasswordConfirm: r.PostForm.Get("password_confirmation"),
	}

	if err := h.service.ChangePassword(r.Context(), s.UserID(), change); err != nil {
		if !apperrors.HasCode(err, apperrors.CodeValidation) {
			return err
		}
		user, uerr := h.service.GetUser(r.Context(), s.UserID())
		if uerr != nil {
			return uerr
		}
		return h.view.Invalid(w, r, "dashboard/profile", view.Data{
			"Profile": user,
			"Old":     profileValues(user),
		}, err)
	}
	return h.view.RedirectWithFlash(w, r, "/dashboard/profile", session.FlashSuccess, "Your password has been changed.")
}

func profileValues(user *model.User) url.Values {
	return url.Values{
		"name":  {user.Name},
		"email": {user.Email},
		"phone": {user.Phone},
	}
}

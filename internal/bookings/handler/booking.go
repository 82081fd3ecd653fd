package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotelbooking/internal/bookings/service"
	roomsservice "hotelbooking/internal/rooms/service"
	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
	"hotelbooking/pkg/validation"
)

type BookingHandler struct {
	service service.BookingService
	rooms   roomsservice.RoomService
	view    *view.Responder
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, rooms roomsservice.RoomService, view *view.Responder, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		rooms:   rooms,
		view:    view,
		log:     log,
	}
}

// Create shows the booking form for a room, prefilled from the query and
// the signed-in guest.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	roomID, err := ps.Int64("id")
	if err != nil {
		return err
	}
	room, err := h.rooms.Get(r.Context(), roomID)
	if err != nil {
		return err
	}

	old := r.URL.Query()
	if s := session.FromContext(r.Context()); s != nil {
		if u, ok := s.User(); ok {
			setDefault(old, "guest_name", u.Name)
			setDefault(old, "guest_email", u.Email)
		}
	}
	setDefault(old, "guests", "1")

	data := view.Data{"Room": room, "Old": old}
	req, errs := parseRequest(old)
	if !errs.Any() && req.CheckIn.Before(req.CheckOut) {
		if quote, err := h.service.Quote(r.Context(), roomID, req.CheckIn, req.CheckOut); err == nil {
			data["Quote"] = quote
		}
	}
	return h.view.Render(w, r, http.StatusOK, "bookings/create", data)
}

func (h *BookingHandler) Store(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}

	req, errs := parseRequest(r.PostForm)
	req.UserID = session.FromContext(r.Context()).UserID()

	room, err := h.rooms.Get(r.Context(), req.RoomID)
	if err != nil {
		return err
	}
	data := view.Data{"Room": room}
	if errs.Any() {
		return h.view.Invalid(w, r, "bookings/create", data, errs.Err(""))
	}

	booking, err := h.service.Create(r.Context(), req)
	if err != nil {
		return h.view.Invalid(w, r, "bookings/create", data, err)
	}

	return h.view.RedirectWithFlash(w, r, "/bookings/confirmation/"+booking.Reference, session.FlashSuccess,
		"Thank you! Your booking "+booking.Reference+" has been received and is awaiting confirmation.")
}

func (h *BookingHandler) Confirmation(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	userID := session.FromContext(r.Context()).UserID()
	booking, err := h.service.GetForUser(r.Context(), userID, ps.ByName("reference"))
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "bookings/confirmation", view.Data{"Booking": booking})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	userID := session.FromContext(r.Context()).UserID()
	reference := ps.ByName("reference")

	err := h.service.Cancel(r.Context(), userID, reference)
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		return h.view.RedirectWithFlash(w, r, "/dashboard/bookings", session.FlashError, apperrors.AsAppError(err).Message)
	}
	if err != nil {
		return err
	}
	return h.view.RedirectWithFlash(w, r, "/dashboard/bookings", session.FlashSuccess,
		"Booking "+strings.ToUpper(reference)+" has been cancelled.")
}

// Quote prices a stay for the booking form.
func (h *BookingHandler) Quote(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	query := r.URL.Query()
	req, errs := parseRequest(query)
	if req.RoomID == 0 {
		errs.Add("room_id", "Room is required")
	}
	if errs.Any() {
		return errs.Err("Invalid quote request")
	}

	quote, err := h.service.Quote(r.Context(), req.RoomID, req.CheckIn, req.CheckOut)
	if err != nil {
		return err
	}
	if err := httputil.WriteSuccess(w, quote); err != nil {
		h.log.Error("failed to write success response", "handler", "Quote", "operation", "WriteSuccess", "error", err)
	}
	return nil
}

// parseRequest decodes the booking form. Only values that cannot be
// converted are reported here; the service validates the rest.
func parseRequest(form url.Values) (*model.BookingRequest, validation.FieldErrors) {
	errs := validation.FieldErrors{}
	req := &model.BookingRequest{
		GuestName:       form.Get("guest_name"),
		GuestEmail:      form.Get("guest_email"),
		GuestPhone:      form.Get("guest_phone"),
		SpecialRequests: form.Get("special_requests"),
	}

	var err error
	if s := strings.TrimSpace(form.Get("room_id")); s != "" {
		if req.RoomID, err = strconv.ParseInt(s, 10, 64); err != nil {
			errs.Add("room_id", "Unknown room")
		}
	}
	if req.CheckIn, err = httputil.ParseDate(form.Get("check_in")); err != nil {
		errs.Add("check_in", "Check-in must be a date")
	}
	if req.CheckOut, err = httputil.ParseDate(form.Get("check_out")); err != nil {
		errs.Add("check_out", "Check-out must be a date")
	}
	if s := strings.TrimSpace(form.Get("guests")); s != "" {
		if req.Guests, err = strconv.Atoi(s); err != nil {
			errs.Add("guests", "Guests must be a number")
		}
	}
	return req, errs
}

func setDefault(values url.Values, key, value string) {
	if values.Get(key) == "" && value != "" {
		values.Set(key, value)
	}
}

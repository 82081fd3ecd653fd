package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
	"hotelbooking/pkg/validation"
)

func (h *AdminHandler) Bookings(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	page := httputil.ExtractPage(r)
	query := r.URL.Query()
	filter := model.BookingFilter{Status: query.Get("status")}
	if !model.IsBookingStatus(filter.Status) {
		filter.Status = ""
	}
	filter.RoomID, _ = strconv.ParseInt(query.Get("room"), 10, 64)

	bookings, total, err := h.bookings.List(r.Context(), filter, page.Size, page.Offset())
	if err != nil {
		return err
	}

	base := url.Values{}
	if filter.Status != "" {
		base.Set("status", filter.Status)
	}
	if filter.RoomID > 0 {
		base.Set("room", strconv.FormatInt(filter.RoomID, 10))
	}
	return h.view.Render(w, r, http.StatusOK, "admin/bookings/index", view.Data{
		"Bookings":   bookings,
		"Filter":     filter,
		"Statuses":   model.BookingStatuses,
		"Pagination": httputil.NewPagination(page, total, base.Encode()),
		"Can":        h.permissions(r),
	})
}

func (h *AdminHandler) ShowBooking(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	booking, err := h.bookings.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "admin/bookings/show", h.bookingData(r, booking))
}

func (h *AdminHandler) ApproveBooking(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	return h.moderate(w, r, ps, h.bookings.Approve, "approved")
}

func (h *AdminHandler) RejectBooking(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	return h.moderate(w, r, ps, h.bookings.Reject, "rejected")
}

func (h *AdminHandler) moderate(w http.ResponseWriter, r *http.Request, ps router.Params, action func(ctx context.Context, id int64, actor string) error, verb string) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	target := "/admin/bookings/" + strconv.FormatInt(id, 10)

	err = action(r.Context(), id, actor(r))
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		return h.view.RedirectWithFlash(w, r, target, session.FlashError, apperrors.AsAppError(err).Message)
	}
	if err != nil {
		return err
	}
	return h.view.RedirectWithFlash(w, r, target, session.FlashSuccess, "The booking has been "+verb+".")
}

// RescheduleBooking moves a booking to new dates. Another active booking on
// the same nights re-renders the booking page with a conflict.
func (h *AdminHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}

	errs := validation.FieldErrors{}
	req := &model.RescheduleRequest{}
	if req.CheckIn, err = httputil.ParseDate(r.PostForm.Get("check_in")); err != nil {
		errs.Add("check_in", "Check-in must be a date")
	}
	if req.CheckOut, err = httputil.ParseDate(r.PostForm.Get("check_out")); err != nil {
		errs.Add("check_out", "Check-out must be a date")
	}

	err = errs.Err("")
	if err == nil {
		err = h.bookings.Reschedule(r.Context(), id, req, actor(r))
	}
	if err == nil {
		return h.view.RedirectWithFlash(w, r, "/admin/bookings/"+strconv.FormatInt(id, 10), session.FlashSuccess, "The booking dates have been changed.")
	}
	if !apperrors.HasCode(err, apperrors.CodeValidation) && !apperrors.HasCode(err, apperrors.CodeConflict) {
		return err
	}

	booking, gerr := h.bookings.Get(r.Context(), id)
	if gerr != nil {
		return gerr
	}
	return h.view.Invalid(w, r, "admin/bookings/show", h.bookingData(r, booking), err)
}

func (h *AdminHandler) bookingData(r *http.Request, booking *model.BookingDetail) view.Data {
	return view.Data{
		"Booking":    booking,
		"CanApprove": model.CanTransition(booking.Status, model.BookingStatusConfirmed),
		"CanReject":  model.CanTransition(booking.Status, model.BookingStatusRejected),
		"CanMove":    booking.IsActive(),
		"Can":        h.permissions(r),
	}
}

// actor names the signed-in admin in logs and events.
func actor(r *http.Request) string {
	if a, ok := session.FromContext(r.Context()).Admin(); ok {
		return a.Name
	}
	return "admin"
}

package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"hotelbooking/internal/rooms/service"
	"hotelbooking/internal/view"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/validation"
)

type RoomHandler struct {
	service service.RoomService
	view    *view.Responder
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, view *view.Responder, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		view:    view,
		log:     log,
	}
}

func (h *RoomHandler) Index(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	page := httputil.ExtractPage(r)
	typeID, _ := strconv.ParseInt(r.URL.Query().Get("type"), 10, 64)
	filter := model.RoomFilter{RoomTypeID: typeID}

	rooms, total, err := h.service.List(r.Context(), filter, page.Size, page.Offset())
	if err != nil {
		return err
	}
	types, err := h.service.RoomTypes(r.Context())
	if err != nil {
		return err
	}

	base := url.Values{}
	if typeID > 0 {
		base.Set("type", strconv.FormatInt(typeID, 10))
	}
	return h.view.Render(w, r, http.StatusOK, "rooms/index", view.Data{
		"Rooms":        rooms,
		"RoomTypes":    types,
		"SelectedType": typeID,
		"Pagination":   httputil.NewPagination(page, total, base.Encode()),
	})
}

func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	query := r.URL.Query()
	types, err := h.service.RoomTypes(r.Context())
	if err != nil {
		return err
	}
	data := view.Data{"RoomTypes": types, "Old": query}

	criteria, errs := parseCriteria(query)
	if errs.Any() {
		return h.view.Invalid(w, r, "rooms/search", data, errs.Err("Please check your search"))
	}

	searched := criteria.HasDates() || criteria.Guests > 0 || criteria.RoomTypeID > 0
	var rooms []*model.RoomDetail
	if searched {
		rooms, err = h.service.Search(r.Context(), criteria)
		if err != nil {
			return h.view.Invalid(w, r, "rooms/search", data, err)
		}
	}

	data["Rooms"] = rooms
	data["Searched"] = searched
	data["Criteria"] = criteria
	return h.view.Render(w, r, http.StatusOK, "rooms/search", data)
}

func (h *RoomHandler) Show(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}

	room, err := h.service.Get(r.Context(), id)
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "rooms/show", view.Data{
		"Room": room,
		"Old":  r.URL.Query(),
	})
}

// Availability serves the booked ranges of a room as JSON for the date
// picker.
func (h *RoomHandler) Availability(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}

	query := r.URL.Query()
	from, errFrom := httputil.ParseDate(query.Get("from"))
	to, errTo := httputil.ParseDate(query.Get("to"))
	if errFrom != nil || errTo != nil {
		errs := validation.FieldErrors{}
		if errFrom != nil {
			errs.Add("from", errFrom.Error())
		}
		if errTo != nil {
			errs.Add("to", errTo.Error())
		}
		return errs.Err("Invalid date range")
	}

	availability, err := h.service.Availability(r.Context(), id, from, to)
	if err != nil {
		return err
	}
	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "operation", "WriteSuccess", "error", err)
	}
	return nil
}

func parseCriteria(query url.Values) (model.AvailabilityCriteria, validation.FieldErrors) {
	errs := validation.FieldErrors{}
	var c model.AvailabilityCriteria

	var err error
	if c.CheckIn, err = httputil.ParseDate(query.Get("check_in")); err != nil {
		errs.Add("check_in", "Check-in must be a date")
	}
	if c.CheckOut, err = httputil.ParseDate(query.Get("check_out")); err != nil {
		errs.Add("check_out", "Check-out must be a date")
	}
	if s := query.Get("guests"); s != "" {
		if c.Guests, err = strconv.Atoi(s); err != nil {
			errs.Add("guests", "Guests must be a number")
		}
	}
	if s := query.Get("type"); s != "" {
		if c.RoomTypeID, err = strconv.ParseInt(s, 10, 64); err != nil {
			errs.Add("type", "Unknown room type")
		}
	}
	return c, errs
}

package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
	"hotelbooking/pkg/validation"
)

func (h *AdminHandler) Rooms(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	page := httputil.ExtractPage(r)
	query := r.URL.Query()
	typeID, _ := strconv.ParseInt(query.Get("type"), 10, 64)
	filter := model.RoomFilter{RoomTypeID: typeID, Status: query.Get("status")}
	if !validRoomStatus(filter.Status) {
		filter.Status = ""
	}

	rooms, total, err := h.rooms.List(r.Context(), filter, page.Size, page.Offset())
	if err != nil {
		return err
	}
	types, err := h.rooms.RoomTypes(r.Context())
	if err != nil {
		return err
	}

	base := url.Values{}
	if typeID > 0 {
		base.Set("type", strconv.FormatInt(typeID, 10))
	}
	if filter.Status != "" {
		base.Set("status", filter.Status)
	}
	return h.view.Render(w, r, http.StatusOK, "admin/rooms/index", view.Data{
		"Rooms":      rooms,
		"RoomTypes":  types,
		"Filter":     filter,
		"Statuses":   model.RoomStatuses,
		"Pagination": httputil.NewPagination(page, total, base.Encode()),
		"Can":        h.permissions(r),
	})
}

func (h *AdminHandler) CreateRoom(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	data, err := h.roomFormData(r)
	if err != nil {
		return err
	}
	data["Old"] = url.Values{"status": {model.RoomStatusAvailable}}
	return h.view.Render(w, r, http.StatusOK, "admin/rooms/form", data)
}

func (h *AdminHandler) StoreRoom(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	data, err := h.roomFormData(r)
	if err != nil {
		return err
	}

	in, errs := parseRoomInput(r.PostForm)
	if errs.Any() {
		return h.view.Invalid(w, r, "admin/rooms/form", data, errs.Err(""))
	}
	room, err := h.rooms.Create(r.Context(), in)
	if err != nil {
		return h.view.Invalid(w, r, "admin/rooms/form", data, err)
	}
	return h.view.RedirectWithFlash(w, r, "/admin/rooms", session.FlashSuccess, "Room "+room.RoomNumber+" has been created.")
}

func (h *AdminHandler) EditRoom(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	room, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		return err
	}
	data, err := h.roomFormData(r)
	if err != nil {
		return err
	}
	data["Room"] = room
	data["Old"] = roomValues(room)
	return h.view.Render(w, r, http.StatusOK, "admin/rooms/form", data)
}

func (h *AdminHandler) UpdateRoom(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	room, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		return err
	}
	data, err := h.roomFormData(r)
	if err != nil {
		return err
	}
	data["Room"] = room

	in, errs := parseRoomInput(r.PostForm)
	if errs.Any() {
		return h.view.Invalid(w, r, "admin/rooms/form", data, errs.Err(""))
	}
	if err := h.rooms.Update(r.Context(), id, in); err != nil {
		return h.view.Invalid(w, r, "admin/rooms/form", data, err)
	}
	return h.view.RedirectWithFlash(w, r, "/admin/rooms", session.FlashSuccess, "Room "+in.RoomNumber+" has been updated.")
}

// DeleteRoom refuses rooms that still hold bookings; the reason comes back
// as a flash on the room list.
func (h *AdminHandler) DeleteRoom(w http.ResponseWriter, r *http.Request, ps router.Params) error {
	id, err := ps.Int64("id")
	if err != nil {
		return err
	}
	err = h.rooms.Delete(r.Context(), id)
	if apperrors.HasCode(err, apperrors.CodeConflict) {
		return h.view.RedirectWithFlash(w, r, "/admin/rooms", session.FlashError, apperrors.AsAppError(err).Message)
	}
	if err != nil {
		return err
	}
	return h.view.RedirectWithFlash(w, r, "/admin/rooms", session.FlashSuccess, "The room has been deleted.")
}

func (h *AdminHandler) roomFormData(r *http.Request) (view.Data, error) {
	types, err := h.rooms.RoomTypes(r.Context())
	if err != nil {
		return nil, err
	}
	return view.Data{"RoomTypes": types, "Statuses": model.RoomStatuses}, nil
}

// parseRoomInput decodes the room form. Images arrive one path per line.
func parseRoomInput(form url.Values) (*model.RoomInput, validation.FieldErrors) {
	errs := validation.FieldErrors{}
	in := &model.RoomInput{
		RoomNumber:  form.Get("room_number"),
		Status:      form.Get("status"),
		Description: form.Get("description"),
	}

	var err error
	if s := strings.TrimSpace(form.Get("room_type_id")); s != "" {
		if in.RoomTypeID, err = strconv.ParseInt(s, 10, 64); err != nil {
			errs.Add("room_type_id", "Room type is invalid")
		}
	}
	if s := strings.TrimSpace(form.Get("floor")); s != "" {
		if in.Floor, err = strconv.Atoi(s); err != nil {
			errs.Add("floor", "Floor must be a number")
		}
	}
	if in.PricePerNight, err = httputil.ParseMoney(form.Get("price")); err != nil {
		errs.Add("price", "Price must be an amount such as 149.00")
	}
	switch strings.ToLower(strings.TrimSpace(form.Get("featured"))) {
	case "1", "on", "true", "yes":
		in.Featured = true
	}
	for _, line := range strings.Split(strings.ReplaceAll(form.Get("images"), "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			in.Images = append(in.Images, line)
		}
	}
	return in, errs
}

func roomValues(room *model.RoomDetail) url.Values {
	values := url.Values{
		"room_type_id": {strconv.FormatInt(room.RoomTypeID, 10)},
		"room_number":  {room.RoomNumber},
		"floor":        {strconv.Itoa(room.Floor)},
		"price":        {httputil.FormatMoney(room.PricePerNight)},
		"status":       {room.Status},
		"description":  {room.Description},
	}
	if room.Featured {
		values.Set("featured", "1")
	}
	paths := make([]string, 0, len(room.Images))
	for _, img := range room.Images {
		paths = append(paths, img.Path)
	}
	values.Set("images", strings.Join(paths, "\n"))
	return values
}

func validRoomStatus(status string) bool {
	for _, s := range model.RoomStatuses {
		if s == status {
			return true
		}
	}
	return false
}

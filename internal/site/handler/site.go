package handler

import (
	"net/http"

	roomsservice "hotelbooking/internal/rooms/service"
	"hotelbooking/internal/site/service"
	"hotelbooking/internal/view"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
)

const featuredRooms = 6

type SiteHandler struct {
	rooms   roomsservice.RoomService
	contact service.ContactService
	view    *view.Responder
	log     *logger.Logger
}

func NewSiteHandler(rooms roomsservice.RoomService, contact service.ContactService, view *view.Responder, log *logger.Logger) *SiteHandler {
	return &SiteHandler{
		rooms:   rooms,
		contact: contact,
		view:    view,
		log:     log,
	}
}

func (h *SiteHandler) Home(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	rooms, err := h.rooms.Featured(r.Context(), featuredRooms)
	if err != nil {
		return err
	}
	types, err := h.rooms.RoomTypes(r.Context())
	if err != nil {
		return err
	}
	return h.view.Render(w, r, http.StatusOK, "home", view.Data{
		"Featured":  rooms,
		"RoomTypes": types,
	})
}

func (h *SiteHandler) About(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	return h.view.Render(w, r, http.StatusOK, "about", nil)
}

func (h *SiteHandler) Contact(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	return h.view.Render(w, r, http.StatusOK, "contact", nil)
}

func (h *SiteHandler) SubmitContact(w http.ResponseWriter, r *http.Request, _ router.Params) error {
	if err := r.ParseForm(); err != nil {
		return apperrors.InvalidInput("Malformed form submission")
	}
	msg := &model.ContactMessage{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	}

	if err := h.contact.Submit(r.Context(), msg); err != nil {
		return h.view.Invalid(w, r, "contact", nil, err)
	}
	return h.view.RedirectWithFlash(w, r, "/contact", session.FlashSuccess,
		"Thank you for your message. We will get back to you shortly.")
}

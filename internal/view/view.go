// Package view renders pages with the data every layout needs and turns
// errors into error pages.
package view

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/render"
	"hotelbooking/pkg/session"
)

const AppName = "Harbor View Hotel"

// Data is the per-view template data. Keys set here win over the shared
// page data.
type Data map[string]any

type Responder struct {
	renderer *render.Renderer
	log      *logger.Logger
	dev      bool
}

func NewResponder(renderer *render.Renderer, log *logger.Logger, dev bool) *Responder {
	return &Responder{renderer: renderer, log: log, dev: dev}
}

// Render writes the view with status. The shared page data carries the
// session identity, flashes and CSRF token.
func (v *Responder) Render(w http.ResponseWriter, r *http.Request, status int, name string, data Data) error {
	page, err := v.base(r)
	if err != nil {
		return err
	}
	for k, val := range data {
		page[k] = val
	}
	return v.renderer.HTML(w, status, name, page)
}

// Invalid re-renders a form after a validation or conflict error, with
// field messages and the submitted values. Any other error is returned
// for the top-level responder.
func (v *Responder) Invalid(w http.ResponseWriter, r *http.Request, name string, data Data, err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	if appErr.Code != apperrors.CodeValidation && appErr.Code != apperrors.CodeConflict {
		return err
	}

	if data == nil {
		data = Data{}
	}
	fields := appErr.FieldErrors()
	if fields == nil {
		fields = map[string]string{}
	}
	data["Errors"] = fields
	data["Error"] = appErr.Message
	if _, ok := data["Old"]; !ok && r.PostForm != nil {
		data["Old"] = r.PostForm
	}
	return v.Render(w, r, appErr.StatusCode(), name, data)
}

// Redirect answers with 303 so a POST is never replayed by the browser.
func (v *Responder) Redirect(w http.ResponseWriter, r *http.Request, target string) error {
	http.Redirect(w, r, target, http.StatusSeeOther)
	return nil
}

// RedirectWithFlash queues a flash message for the next page.
func (v *Responder) RedirectWithFlash(w http.ResponseWriter, r *http.Request, target, kind, message string) error {
	if s := session.FromContext(r.Context()); s != nil {
		s.Flash(kind, message)
	}
	return v.Redirect(w, r, target)
}

func (v *Responder) base(r *http.Request) (Data, error) {
	page := Data{
		"AppName":   AppName,
		"Path":      r.URL.Path,
		"Year":      time.Now().Year(),
		"Dev":       v.dev,
		"Errors":    map[string]string{},
		"Old":       url.Values{},
		"RequestID": requestID(r),
	}

	s := session.FromContext(r.Context())
	if s == nil {
		return page, nil
	}

	token, err := s.CSRFToken()
	if err != nil {
		return nil, apperrors.Internal("Failed to issue CSRF token", err)
	}
	page["CSRFToken"] = token
	page["Flashes"] = s.Flashes()
	if u, ok := s.User(); ok {
		page["User"] = u
	}
	if a, ok := s.Admin(); ok {
		page["Admin"] = a
	}
	return page, nil
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(logger.RequestIDKey).(string)
	return id
}

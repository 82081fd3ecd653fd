package view

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/middleware"
)

const genericServerMessage = "Something went wrong on our side. Please try again later."

// Diagnostics is shown on error pages in development only.
type Diagnostics struct {
	Code    string
	Chain   []string
	Details map[string]any
	Stack   string
}

// Error is the top-level error responder. JSON clients and /api paths get
// a JSON body; everyone else gets errors/<status> or errors/generic.
func (v *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.AsAppError(err)
	status := appErr.StatusCode()
	log := v.log.WithRequest(r.Context())

	if appErr.Internal5xx() {
		log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	if httputil.WantsJSON(r) || strings.HasPrefix(r.URL.Path, "/api/") {
		if writeErr := apperrors.WriteError(w, appErr); writeErr != nil {
			log.Error("failed to write error response", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	message := appErr.Message
	if appErr.Internal5xx() {
		message = genericServerMessage
	}
	data := Data{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	}
	if v.dev {
		data["Diagnostics"] = diagnose(err, appErr)
	}

	if renderErr := v.Render(w, r, status, errorView(v, status), data); renderErr != nil {
		log.Error("Failed to render error page", "status", status, "error", renderErr)
		http.Error(w, message, status)
	}
}

// ErrorWriter adapts Error for the middleware stack.
func (v *Responder) ErrorWriter() middleware.ErrorWriter {
	return v.Error
}

func errorView(v *Responder, status int) string {
	name := fmt.Sprintf("errors/%d", status)
	if v.renderer.Exists(name) {
		return name
	}
	return "errors/generic"
}

func diagnose(err error, appErr *apperrors.AppError) *Diagnostics {
	d := &Diagnostics{Code: appErr.Code, Details: appErr.Details}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var panicErr *middleware.PanicError
	if errors.As(err, &panicErr) {
		d.Stack = string(panicErr.Stack)
	} else {
		d.Stack = string(debug.Stack())
	}
	return d
}

package middleware

import (
	"fmt"
	"net/http"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

// ErrorWriter renders an error response. The site passes its HTML error
// page renderer; JSONErrors is the fallback.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

func JSONErrors(w http.ResponseWriter, _ *http.Request, err error) {
	_ = apperrors.WriteError(w, err)
}

// PanicError carries a recovered panic and its stack to the error page.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// RequestIDKey is the context key of the request id.
var RequestIDKey = logger.RequestIDKey

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDKey).(string)
	return id
}

func orJSON(onError ErrorWriter) ErrorWriter {
	if onError == nil {
		return JSONErrors
	}
	return onError
}

package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

func Recovery(log *logger.Logger, onError ErrorWriter) func(http.Handler) http.Handler {
	onError = orJSON(onError)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					stack := debug.Stack()

					log.Error("Panic recovered",
						"request_id", requestID(r),
						"error", rec,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(stack),
					)

					onError(w, r, apperrors.Internal("An unexpected error occurred", &PanicError{Value: rec, Stack: stack}))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

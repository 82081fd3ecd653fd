package middleware

import (
	"context"
	"net/http"
	"time"
)

// RequestTimeout puts a deadline on the request context. Handlers run on
// the serving goroutine; storage calls observe the deadline and the error
// page reports it.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

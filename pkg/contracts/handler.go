package contracts

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// Handler registers operational routes on the httprouter that serves
// /health, /ready and /static.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// Site is the web application served behind the shared middleware stack.
type Site interface {
	Routes() http.Handler
	// Session wraps next with the session middleware.
	Session(next http.Handler) http.Handler
	// Subject names whoever makes the request, for idempotency scoping.
	Subject(r *http.Request) string
	OnError(w http.ResponseWriter, r *http.Request, err error)
	Static() fs.FS
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

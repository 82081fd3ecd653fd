// Package server is the composition root of the website: it opens the
// store, registers every component in the container and builds the route
// table that pkg/app serves.
package server

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strconv"
	"sync"

	"hotelbooking/internal/view"
	"hotelbooking/pkg/authz"
	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/config"
	"hotelbooking/pkg/container"
	"hotelbooking/pkg/middleware"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
	"hotelbooking/web"
)

// Options override what New would otherwise take from the configuration.
// Tests use them to pin the clock and keep bcrypt cheap.
type Options struct {
	Clock      clock.Clock
	BcryptCost int
	Templates  fs.FS
	Static     fs.FS
}

type Server struct {
	cfg       *config.Config
	backend   *Backend
	container *container.Container
	router    *router.Router
	view      *view.Responder
	sessions  *session.Manager

	clock           clock.Clock
	bcryptCost      int
	templates       fs.FS
	static          fs.FS
	reloadTemplates bool

	mu      sync.Mutex
	probes  []func(context.Context) error
	closers []func(context.Context) error
}

// New wires the application over an open backend. Singletons that fail to
// build here (a bad Redis address, invalid Kafka settings) fail start-up
// instead of the first request.
func New(cfg *config.Config, backend *Backend, opts Options) (*Server, error) {
	s := &Server{
		cfg:        cfg,
		backend:    backend,
		clock:      opts.Clock,
		bcryptCost: opts.BcryptCost,
		templates:  opts.Templates,
		static:     opts.Static,
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	s.resolveAssets()
	s.addProbe(backend.Ping)

	c := container.New()
	s.register(c)
	s.container = c

	var err error
	if s.view, err = container.Resolve[*view.Responder](c, KeyResponder); err != nil {
		return nil, err
	}
	if s.sessions, err = container.Resolve[*session.Manager](c, KeySessions); err != nil {
		return nil, err
	}
	limiter, err := container.Resolve[*middleware.IPRateLimiter](c, KeyRateLimiter)
	if err != nil {
		return nil, err
	}
	authorizer, err := container.Resolve[*authz.Authorizer](c, KeyAuthorizer)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{KeyRoomService, KeyBookingService, KeyAccountService, KeyContactService} {
		if _, err := c.Resolve(key); err != nil {
			return nil, err
		}
	}

	s.router = routes(c, limiter.Throttle(), authorizer)
	s.router.ErrorHandler = s.view.Error

	cfg.Log.Info("Application wired", "store", backend.Driver, "routes", len(s.router.Routes()))
	return s, nil
}

// resolveAssets prefers TEMPLATES_DIR and STATIC_DIR over the embedded
// copies. Templates read from disk are re-parsed on every request in
// development.
func (s *Server) resolveAssets() {
	if s.templates == nil {
		if dir := s.cfg.TemplatesDir; dir != "" {
			s.templates = os.DirFS(dir)
			s.reloadTemplates = s.cfg.IsDevelopment()
		} else {
			s.templates = web.Templates()
		}
	}
	if s.static == nil {
		if dir := s.cfg.StaticDir; dir != "" {
			s.static = os.DirFS(dir)
		} else {
			s.static = web.Static()
		}
	}
}

func (s *Server) addProbe(fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes = append(s.probes, fn)
}

func (s *Server) onClose(fn func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

func (s *Server) Container() *container.Container {
	return s.container
}

// Routes is the route table behind the session middleware.
func (s *Server) Routes() http.Handler {
	return s.router
}

func (s *Server) Session(next http.Handler) http.Handler {
	return s.sessions.Middleware(next)
}

// Subject scopes idempotency keys to whoever is signed in, so two visitors
// sending the same key never share a response.
func (s *Server) Subject(r *http.Request) string {
	sess := session.FromContext(r.Context())
	switch {
	case sess == nil:
		return ""
	case sess.IsAdmin():
		return "admin:" + strconv.FormatInt(sess.AdminID(), 10)
	case sess.IsAuthenticated():
		return "user:" + strconv.FormatInt(sess.UserID(), 10)
	default:
		return "session:" + sess.ID()
	}
}

func (s *Server) OnError(w http.ResponseWriter, r *http.Request, err error) {
	s.view.Error(w, r, err)
}

func (s *Server) Static() fs.FS {
	return s.static
}

// Ping checks the store and, when configured, Redis.
func (s *Server) Ping(ctx context.Context) error {
	s.mu.Lock()
	probes := append([]func(context.Context) error{}, s.probes...)
	s.mu.Unlock()

	for _, probe := range probes {
		if err := probe(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases everything the container opened, newest first, and then
// the backend.
func (s *Server) Close(ctx context.Context) error {
	s.mu.Lock()
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.backend.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"

	"github.com/gorilla/securecookie"
)

const ExpiredMessage = "Your session has expired. Please log in again."

type Config struct {
	CookieName  string
	HashKey     []byte
	BlockKey    []byte
	IdleTimeout time.Duration
	Lifetime    time.Duration
	Secure      bool
}

type Manager struct {
	store Store
	codec *securecookie.SecureCookie
	cfg   Config
	clock clock.Clock
	log   *logger.Logger
}

// NewManager builds a manager. Without a hash key a random one is generated,
// which invalidates every cookie on restart; production config requires one.
func NewManager(store Store, cfg Config, clk clock.Clock, log *logger.Logger) *Manager {
	if clk == nil {
		clk = clock.NewSystem()
	}
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(64)
		log.Warn("No session hash key configured, using an ephemeral key")
	}
	if len(cfg.BlockKey) == 0 {
		cfg.BlockKey = nil
	}

	codec := securecookie.New(cfg.HashKey, cfg.BlockKey)
	codec.MaxAge(int(cfg.Lifetime.Seconds()))

	return &Manager{store: store, codec: codec, cfg: cfg, clock: clk, log: log}
}

// Start loads the session named by the request cookie or begins a new one.
// An authenticated session idle for longer than the timeout is logged out
// here, before anything else can read it.
func (m *Manager) Start(ctx context.Context, r *http.Request) (*Session, error) {
	now := m.clock.Now()

	data, id, err := m.load(ctx, r)
	if err != nil {
		return nil, err
	}
	if data == nil {
		newID, err := randomToken()
		if err != nil {
			return nil, err
		}
		return &Session{
			id:    newID,
			isNew: true,
			data:  &Data{CreatedAt: now, LastActivity: now},
		}, nil
	}

	s := &Session{id: id, data: data}
	if data.authenticated() && m.timedOut(data, now) {
		s.data.clearIdentity()
		s.data.Intended = ""
		if err := s.rotate(); err != nil {
			return nil, err
		}
		s.Flash(FlashInfo, ExpiredMessage)
		s.expired = true
	}
	s.data.LastActivity = now
	s.dirty = true
	return s, nil
}

func (m *Manager) timedOut(data *Data, now time.Time) bool {
	if now.Sub(data.LastActivity) > m.cfg.IdleTimeout {
		return true
	}
	return m.cfg.Lifetime > 0 && now.Sub(data.CreatedAt) > m.cfg.Lifetime
}

func (m *Manager) load(ctx context.Context, r *http.Request) (*Data, string, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil, "", nil
	}
	var id string
	if err := m.codec.Decode(m.cfg.CookieName, cookie.Value, &id); err != nil {
		return nil, "", nil
	}
	data, err := m.store.Load(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	return data, id, nil
}

// Commit persists a modified session, removes records of rotated ids and
// sets the cookie. It must run before the response header is written.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !s.dirty {
		return nil
	}
	for _, old := range s.retired {
		if err := m.store.Delete(ctx, old); err != nil {
			m.log.Warn("Failed to delete rotated session", "error", err)
		}
	}
	s.retired = nil

	if err := m.store.Save(ctx, s.id, s.data, m.cfg.Lifetime); err != nil {
		return err
	}

	encoded, err := m.codec.Encode(m.cfg.CookieName, s.id)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.cfg.Lifetime.Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	s.dirty = false
	s.isNew = false
	return nil
}

// Middleware attaches the session to the request context and commits it just
// before the first byte of the response.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Start(r.Context(), r)
		if err != nil {
			m.log.WithRequest(r.Context()).Error("Failed to start session", "error", err)
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}

		ctx := context.WithoutCancel(r.Context())
		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() {
			if err := m.Commit(ctx, w, s); err != nil {
				m.log.WithRequest(ctx).Error("Failed to save session", "error", err)
			}
		}

		next.ServeHTTP(cw, r.WithContext(NewContext(r.Context(), s)))
		cw.flushCommit()
	})
}

type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (cw *commitWriter) flushCommit() {
	if !cw.committed {
		cw.committed = true
		cw.commit()
	}
}

func (cw *commitWriter) WriteHeader(status int) {
	cw.flushCommit()
	cw.ResponseWriter.WriteHeader(status)
}

func (cw *commitWriter) Write(b []byte) (int, error) {
	cw.flushCommit()
	return cw.ResponseWriter.Write(b)
}

func (cw *commitWriter) Unwrap() http.ResponseWriter {
	return cw.ResponseWriter
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or nil outside the middleware.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

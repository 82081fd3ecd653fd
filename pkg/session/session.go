package session

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"github.com/gorilla/securecookie"
)

const tokenBytes = 32

var errRandom = errors.New("session: random source failed")

// Session is the per-request view of a stored session. It is not safe for
// concurrent use; one request owns it.
type Session struct {
	id      string
	retired []string
	data    *Data
	isNew   bool
	dirty   bool
	expired bool
}

func (s *Session) ID() string { return s.id }

// Expired reports whether this request found an authenticated session past
// its idle timeout.
func (s *Session) Expired() bool { return s.expired }

func (s *Session) IsAuthenticated() bool { return s.data.UserID != 0 }

func (s *Session) IsAdmin() bool { return s.data.AdminID != 0 }

func (s *Session) UserID() int64 { return s.data.UserID }

func (s *Session) AdminID() int64 { return s.data.AdminID }

func (s *Session) AdminRole() string { return s.data.AdminRole }

// User returns the customer snapshot taken at login.
func (s *Session) User() (Subject, bool) {
	if s.data.UserID == 0 {
		return Subject{}, false
	}
	return Subject{Kind: KindUser, ID: s.data.UserID, Name: s.data.UserName, Email: s.data.UserEmail}, true
}

// Admin returns the back-office snapshot taken at login.
func (s *Session) Admin() (Subject, bool) {
	if s.data.AdminID == 0 {
		return Subject{}, false
	}
	return Subject{Kind: KindAdmin, ID: s.data.AdminID, Name: s.data.AdminName, Role: s.data.AdminRole}, true
}

// Login stores sub and rotates the session id. The CSRF token survives the
// rotation and is only generated when the session has none.
func (s *Session) Login(sub Subject) error {
	if err := s.rotate(); err != nil {
		return err
	}
	switch sub.Kind {
	case KindAdmin:
		s.data.AdminID, s.data.AdminName, s.data.AdminRole = sub.ID, sub.Name, sub.Role
	default:
		s.data.UserID, s.data.UserName, s.data.UserEmail = sub.ID, sub.Name, sub.Email
	}
	s.expired = false
	_, err := s.CSRFToken()
	return err
}

// UpdateUser refreshes the snapshot after a profile change.
func (s *Session) UpdateUser(name, email string) {
	if s.data.UserID == 0 {
		return
	}
	s.data.UserName, s.data.UserEmail = name, email
	s.dirty = true
}

// Logout drops everything and rotates the id.
func (s *Session) Logout() error {
	created := s.data.CreatedAt
	s.data = &Data{CreatedAt: created, LastActivity: s.data.LastActivity}
	return s.rotate()
}

// CSRFToken returns the session's token, generating one on first use.
func (s *Session) CSRFToken() (string, error) {
	if s.data.CSRFToken != "" {
		return s.data.CSRFToken, nil
	}
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	s.data.CSRFToken = token
	s.dirty = true
	return token, nil
}

// VerifyCSRF compares token with the issued one in constant time. It fails
// when no token was ever issued.
func (s *Session) VerifyCSRF(token string) bool {
	stored := s.data.CSRFToken
	if stored == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(token)) == 1
}

func (s *Session) Flash(kind, message string) {
	s.data.Flashes = append(s.data.Flashes, Flash{Kind: kind, Message: message})
	s.dirty = true
}

// Flashes returns and clears pending flash messages.
func (s *Session) Flashes() []Flash {
	if len(s.data.Flashes) == 0 {
		return nil
	}
	out := s.data.Flashes
	s.data.Flashes = nil
	s.dirty = true
	return out
}

// SetIntended remembers where to send the visitor after login.
func (s *Session) SetIntended(url string) {
	s.data.Intended = url
	s.dirty = true
}

// PopIntended returns the remembered URL, or fallback.
func (s *Session) PopIntended(fallback string) string {
	url := s.data.Intended
	if url == "" {
		return fallback
	}
	s.data.Intended = ""
	s.dirty = true
	return url
}

func (s *Session) Put(key, value string) {
	if s.data.Values == nil {
		s.data.Values = make(map[string]string)
	}
	s.data.Values[key] = value
	s.dirty = true
}

func (s *Session) Get(key string) string {
	return s.data.Values[key]
}

// Pull returns a value and removes it.
func (s *Session) Pull(key string) string {
	v, ok := s.data.Values[key]
	if ok {
		delete(s.data.Values, key)
		s.dirty = true
	}
	return v
}

func (s *Session) rotate() error {
	id, err := randomToken()
	if err != nil {
		return err
	}
	if !s.isNew {
		s.retired = append(s.retired, s.id)
	}
	s.id = id
	s.isNew = false
	s.dirty = true
	return nil
}

func randomToken() (string, error) {
	b := securecookie.GenerateRandomKey(tokenBytes)
	if b == nil {
		return "", errRandom
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

package server

import (
	"net/http"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/router"
	"hotelbooking/pkg/session"
)

const (
	CSRFField  = "_token"
	CSRFHeader = "X-CSRF-Token"

	loginPath      = "/login"
	dashboardPath  = "/dashboard"
	adminLoginPath = "/admin/login"
	adminHomePath  = "/admin"
)

// Authorizer is satisfied by *authz.Authorizer.
type Authorizer interface {
	Allowed(role, path, method string) bool
}

func currentSession(r *http.Request) (*session.Session, error) {
	s := session.FromContext(r.Context())
	if s == nil {
		return nil, apperrors.Internal("Session middleware is not installed", nil)
	}
	return s, nil
}

// guest keeps signed-in customers away from the login and register pages.
func guest(w http.ResponseWriter, r *http.Request) (bool, error) {
	s, err := currentSession(r)
	if err != nil {
		return false, err
	}
	if s.IsAuthenticated() {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return true, nil
	}
	return false, nil
}

// auth sends anonymous visitors to the login page and remembers where they
// were going.
func auth(w http.ResponseWriter, r *http.Request) (bool, error) {
	s, err := currentSession(r)
	if err != nil {
		return false, err
	}
	if s.IsAuthenticated() {
		return false, nil
	}

	if r.Method == http.MethodGet {
		s.SetIntended(r.URL.RequestURI())
	}
	// An expired session already carries its own notice.
	if !s.Expired() {
		s.Flash(session.FlashInfo, "Please log in to continue.")
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
	return true, nil
}

func admin(w http.ResponseWriter, r *http.Request) (bool, error) {
	s, err := currentSession(r)
	if err != nil {
		return false, err
	}
	if s.IsAdmin() {
		return false, nil
	}
	if r.Method == http.MethodGet {
		s.SetIntended(r.URL.RequestURI())
	}
	http.Redirect(w, r, adminLoginPath, http.StatusSeeOther)
	return true, nil
}

func adminGuest(w http.ResponseWriter, r *http.Request) (bool, error) {
	s, err := currentSession(r)
	if err != nil {
		return false, err
	}
	if s.IsAdmin() {
		http.Redirect(w, r, adminHomePath, http.StatusSeeOther)
		return true, nil
	}
	return false, nil
}

// csrf rejects state-changing requests whose token does not match the
// session's.
func csrf(_ http.ResponseWriter, r *http.Request) (bool, error) {
	s, err := currentSession(r)
	if err != nil {
		return false, err
	}
	token := r.Header.Get(CSRFHeader)
	if token == "" {
		token = r.PostFormValue(CSRFField)
	}
	if !s.VerifyCSRF(token) {
		return false, apperrors.Forbidden("Your form has expired. Please go back, refresh the page and try again.")
	}
	return false, nil
}

// can checks the signed-in admin's role against the route being called.
func can(authorizer Authorizer) router.Middleware {
	return func(_ http.ResponseWriter, r *http.Request) (bool, error) {
		s, err := currentSession(r)
		if err != nil {
			return false, err
		}
		if !authorizer.Allowed(s.AdminRole(), router.CleanPath(r.URL.Path), router.EffectiveMethod(r)) {
			return false, apperrors.Forbidden("You do not have permission to do that.")
		}
		return false, nil
	}
}

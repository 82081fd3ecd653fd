package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"hotelbooking/pkg/container"
	apperrors "hotelbooking/pkg/errors"
)

func named(name string) Handler {
	return func(w http.ResponseWriter, r *http.Request, ps Params) error {
		w.Header().Set("X-Route", name)
		return nil
	}
}

func TestMatch_Placeholders(t *testing.T) {
	rt := New()
	rt.GET("/rooms/{id}", named("rooms.show"))
	rt.GET("/rooms/{id}/edit", named("rooms.edit"))
	rt.GET("/bookings/{roomId}/nights/{n}", named("nights"))

	tests := []struct {
		name       string
		path       string
		wantRoute  string
		wantParams []string
		wantErr    bool
	}{
		{"single placeholder", "/rooms/42", "/rooms/{id}", []string{"42"}, false},
		{"longer template", "/rooms/42/edit", "/rooms/{id}/edit", []string{"42"}, false},
		{"placeholders keep template order", "/bookings/7/nights/3", "/bookings/{roomId}/nights/{n}", []string{"7", "3"}, false},
		{"query string ignored", "/rooms/42?ref=home", "/rooms/{id}", []string{"42"}, false},
		{"trailing slash", "/rooms/42/", "/rooms/{id}", []string{"42"}, false},
		{"placeholder never spans a slash", "/rooms/42/edit/extra", "", nil, true},
		{"placeholder needs a value", "/rooms/", "", nil, true},
		{"unknown path", "/suites", "", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route, ps, err := rt.Match(http.MethodGet, tt.path)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeRouteNotFound) {
					t.Fatalf("expected RouteNotFound, got %v", err)
				}
				if apperrors.AsAppError(err).HTTPStatus != http.StatusNotFound {
					t.Errorf("RouteNotFound must be a 404")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if route.Pattern != tt.wantRoute {
				t.Errorf("matched %s, want %s", route.Pattern, tt.wantRoute)
			}
			got := ps.Values()
			if strings.Join(got, ",") != strings.Join(tt.wantParams, ",") {
				t.Errorf("params = %v, want %v", got, tt.wantParams)
			}
		})
	}
}

func TestMatch_FirstRegisteredWins(t *testing.T) {
	t.Run("literal registered first", func(t *testing.T) {
		rt := New()
		rt.GET("/rooms/search", named("search"))
		rt.GET("/rooms/{id}", named("show"))

		route, _, err := rt.Match(http.MethodGet, "/rooms/search")
		if err != nil {
			t.Fatal(err)
		}
		if route.Pattern != "/rooms/search" {
			t.Errorf("matched %s, want /rooms/search", route.Pattern)
		}
	})

	t.Run("placeholder registered first shadows the literal", func(t *testing.T) {
		rt := New()
		rt.GET("/rooms/{id}", named("show"))
		rt.GET("/rooms/search", named("search"))

		route, ps, err := rt.Match(http.MethodGet, "/rooms/search")
		if err != nil {
			t.Fatal(err)
		}
		if route.Pattern != "/rooms/{id}" || ps.ByName("id") != "search" {
			t.Errorf("matched %s with id=%q", route.Pattern, ps.ByName("id"))
		}
	})
}

func TestMatch_MethodMustMatch(t *testing.T) {
	rt := New()
	rt.POST("/bookings", named("store"))

	if _, _, err := rt.Match(http.MethodGet, "/bookings"); err == nil {
		t.Fatal("GET must not match a POST route")
	}
	if _, _, err := rt.Match("post", "/bookings"); err != nil {
		t.Fatalf("method matching should be case-insensitive: %v", err)
	}
}

func TestHandle_RejectsMalformedTemplates(t *testing.T) {
	patterns := []string{"/rooms/{}", "/rooms/{id", "/rooms/{{id}}", "/rooms/{id}{n}", "/a/{id}/b/{id}"}
	for _, p := range patterns {
		t.Run(p, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for %s", p)
				}
			}()
			New().GET(p, named("x"))
		})
	}
}

func TestHandle_LiteralCharactersAreEscaped(t *testing.T) {
	rt := New()
	rt.GET("/files/report.pdf", named("pdf"))

	if _, _, err := rt.Match(http.MethodGet, "/files/reportXpdf"); err == nil {
		t.Error("dot in template must match literally")
	}
}

func TestGroup(t *testing.T) {
	rt := New()
	rt.Use("admin", func(w http.ResponseWriter, r *http.Request) (bool, error) { return false, nil })
	rt.Use("csrf", func(w http.ResponseWriter, r *http.Request) (bool, error) { return false, nil })

	rt.Group("/admin", []string{"admin"}, func(rt *Router) {
		rt.GET("", named("dashboard"))
		rt.Group("/rooms", nil, func(rt *Router) {
			rt.POST("", named("store"), "csrf")
		})
		rt.GET("/bookings", named("bookings"))
	})
	rt.GET("/about", named("about"))

	tests := []struct {
		method, path string
		wantPattern  string
		wantChain    string
	}{
		{http.MethodGet, "/admin", "/admin", "admin"},
		{http.MethodPost, "/admin/rooms", "/admin/rooms", "admin,csrf"},
		{http.MethodGet, "/admin/bookings", "/admin/bookings", "admin"},
		{http.MethodGet, "/about", "/about", ""},
	}
	for _, tt := range tests {
		route, _, err := rt.Match(tt.method, tt.path)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.method, tt.path, err)
		}
		if route.Pattern != tt.wantPattern {
			t.Errorf("pattern = %s, want %s", route.Pattern, tt.wantPattern)
		}
		if got := strings.Join(route.Middleware, ","); got != tt.wantChain {
			t.Errorf("%s chain = %q, want %q", tt.path, got, tt.wantChain)
		}
	}
}

func TestDispatch_MethodOverride(t *testing.T) {
	rt := New()
	rt.POST("/admin/rooms/{id}", named("post"))
	rt.PUT("/admin/rooms/{id}", named("put"))
	rt.DELETE("/admin/rooms/{id}", named("delete"))

	tests := []struct {
		name     string
		method   string
		override string
		want     string
	}{
		{"plain post", http.MethodPost, "", "post"},
		{"put override", http.MethodPost, "PUT", "put"},
		{"lower-case override", http.MethodPost, "delete", "delete"},
		{"unsupported override ignored", http.MethodPost, "TRACE", "post"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.override != "" {
				form.Set(MethodOverrideField, tt.override)
			}
			req := httptest.NewRequest(tt.method, "/admin/rooms/3", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			w := httptest.NewRecorder()

			if err := rt.Dispatch(w, req); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := w.Header().Get("X-Route"); got != tt.want {
				t.Errorf("dispatched to %q, want %q", got, tt.want)
			}
		})
	}

	t.Run("override in the query string is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/rooms/3?_method=DELETE", strings.NewReader(""))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		if err := rt.Dispatch(w, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := w.Header().Get("X-Route"); got != "post" {
			t.Errorf("dispatched to %q, want post", got)
		}
	})

	t.Run("override only applies to POST", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/rooms/3?_method=DELETE", nil)
		if err := rt.Dispatch(httptest.NewRecorder(), req); err == nil {
			t.Error("GET with override must not reach the DELETE route")
		}
	})
}

func TestDispatch_MiddlewareChain(t *testing.T) {
	var calls []string
	record := func(name string, handled bool, err error) Middleware {
		return func(w http.ResponseWriter, r *http.Request) (bool, error) {
			calls = append(calls, name)
			return handled, err
		}
	}

	rt := New()
	rt.Use("first", record("first", false, nil))
	rt.Use("veto", func(w http.ResponseWriter, r *http.Request) (bool, error) {
		calls = append(calls, "veto")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return true, nil
	})
	rt.Use("deny", record("deny", false, apperrors.Forbidden("nope")))
	rt.Use("last", record("last", false, nil))

	handler := func(w http.ResponseWriter, r *http.Request, ps Params) error {
		calls = append(calls, "handler")
		return nil
	}
	rt.GET("/open", handler, "first", "last")
	rt.GET("/vetoed", handler, "first", "veto", "last")
	rt.GET("/denied", handler, "deny", "last")
	rt.GET("/broken", handler, "missing")

	tests := []struct {
		path      string
		wantCalls string
		wantCode  string
		wantHTTP  int
	}{
		{"/open", "first,last,handler", "", http.StatusOK},
		{"/vetoed", "first,veto", "", http.StatusSeeOther},
		{"/denied", "deny", apperrors.CodeForbidden, http.StatusOK},
		{"/broken", "", apperrors.CodeHandlerResolution, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			calls = nil
			w := httptest.NewRecorder()
			err := rt.Dispatch(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if tt.wantCode == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantCode != "" && !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
			if got := strings.Join(calls, ","); got != tt.wantCalls {
				t.Errorf("calls = %q, want %q", got, tt.wantCalls)
			}
			if w.Code != tt.wantHTTP {
				t.Errorf("status = %d, want %d", w.Code, tt.wantHTTP)
			}
		})
	}
}

func TestDispatch_NilHandler(t *testing.T) {
	rt := New()
	rt.GET("/nothing", nil)

	err := rt.Dispatch(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nothing", nil))
	if !apperrors.HasCode(err, apperrors.CodeHandlerResolution) {
		t.Fatalf("expected HandlerResolution, got %v", err)
	}
	if apperrors.AsAppError(err).HTTPStatus != http.StatusInternalServerError {
		t.Error("HandlerResolution must be a 500")
	}
}

func TestServeHTTP_ForwardsErrors(t *testing.T) {
	rt := New()
	var got error
	rt.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(apperrors.AsAppError(err).HTTPStatus)
	}

	w := httptest.NewRecorder()
	rt.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if !apperrors.HasCode(got, apperrors.CodeRouteNotFound) {
		t.Fatalf("error handler got %v", got)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

type roomController struct {
	prefix string
}

func (c *roomController) Show(w http.ResponseWriter, r *http.Request, ps Params) error {
	w.Header().Set("X-Route", c.prefix+ps.ByName("id"))
	return nil
}

func TestAction(t *testing.T) {
	c := container.New()
	c.Bind("controller.rooms", func(c *container.Container, _ container.Params) (any, error) {
		return &roomController{prefix: "room-"}, nil
	})

	rt := New()
	rt.GET("/rooms/{id}", Action(c, "controller.rooms", (*roomController).Show))
	rt.GET("/suites/{id}", Action(c, "controller.suites", (*roomController).Show))

	w := httptest.NewRecorder()
	if err := rt.Dispatch(w, httptest.NewRequest(http.MethodGet, "/rooms/12", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.Header().Get("X-Route"); got != "room-12" {
		t.Errorf("X-Route = %q", got)
	}

	err := rt.Dispatch(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/suites/1", nil))
	if !apperrors.HasCode(err, apperrors.CodeHandlerResolution) {
		t.Fatalf("expected HandlerResolution, got %v", err)
	}
	if !errors.Is(err, container.ErrUnresolvableDependency) {
		t.Errorf("resolution error should wrap the container error, got %v", err)
	}
}

func TestAction_WithoutContainer(t *testing.T) {
	rt := New()
	rt.GET("/rooms/{id}", Action(nil, "controller.rooms", (*roomController).Show))
	rt.GET("/broken", Action[*roomController](nil, "controller.broken", nil))

	w := httptest.NewRecorder()
	if err := rt.Dispatch(w, httptest.NewRequest(http.MethodGet, "/rooms/7", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := w.Header().Get("X-Route"); got != "7" {
		t.Errorf("X-Route = %q, want a zero-value controller to answer", got)
	}

	err := rt.Dispatch(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/broken", nil))
	if !apperrors.HasCode(err, apperrors.CodeHandlerResolution) {
		t.Errorf("expected HandlerResolution, got %v", err)
	}
}

func TestParams_Int64(t *testing.T) {
	ps := Params{{Key: "id", Value: "12"}, {Key: "bad", Value: "12abc"}, {Key: "zero", Value: "0"}}

	if id, err := ps.Int64("id"); err != nil || id != 12 {
		t.Errorf("Int64(id) = %d, %v", id, err)
	}
	for _, name := range []string{"bad", "zero", "absent"} {
		if _, err := ps.Int64(name); !apperrors.HasCode(err, apperrors.CodeNotFound) {
			t.Errorf("Int64(%s) should be not found, got %v", name, err)
		}
	}
}

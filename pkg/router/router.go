// Package router is the application route table. Routes are matched in
// registration order against anchored regular expressions compiled from
// path templates such as /rooms/{id}; the first match wins.
package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"

	apperrors "hotelbooking/pkg/errors"
)

// Handler serves a matched route. Returned errors go to the ErrorHandler.
type Handler func(w http.ResponseWriter, r *http.Request, ps Params) error

// Middleware runs before a route handler. handled=true means the middleware
// already wrote a response (a redirect, for example) and the handler must
// not run.
type Middleware func(w http.ResponseWriter, r *http.Request) (handled bool, err error)

// ErrorHandler renders an error returned by dispatch.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

const MethodOverrideField = "_method"

var overridable = map[string]bool{
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

var placeholderRe = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type Route struct {
	Method     string
	Pattern    string
	Handler    Handler
	Middleware []string

	matcher *regexp.Regexp
	names   []string
}

type Router struct {
	routes     []*Route
	middleware map[string]Middleware

	prefix      string
	groupChains []string

	// ErrorHandler receives every error produced by ServeHTTP. When nil the
	// error's status and user-facing message are written as plain text.
	ErrorHandler ErrorHandler
}

func New() *Router {
	return &Router{middleware: make(map[string]Middleware)}
}

// Use registers a named middleware that routes can reference.
func (rt *Router) Use(name string, mw Middleware) {
	rt.middleware[name] = mw
}

// Handle appends a route. It panics when pattern is malformed; route tables
// are built at start-up, so this is a programming error.
func (rt *Router) Handle(method, pattern string, h Handler, middleware ...string) *Route {
	full := CleanPath(rt.prefix + pattern)
	matcher, names, err := compile(full)
	if err != nil {
		panic(fmt.Sprintf("router: %s %s: %v", method, full, err))
	}

	chain := make([]string, 0, len(rt.groupChains)+len(middleware))
	chain = append(chain, rt.groupChains...)
	chain = append(chain, middleware...)

	route := &Route{
		Method:     strings.ToUpper(method),
		Pattern:    full,
		Handler:    h,
		Middleware: chain,
		matcher:    matcher,
		names:      names,
	}
	rt.routes = append(rt.routes, route)
	return route
}

func (rt *Router) GET(pattern string, h Handler, mw ...string) *Route {
	return rt.Handle(http.MethodGet, pattern, h, mw...)
}

func (rt *Router) POST(pattern string, h Handler, mw ...string) *Route {
	return rt.Handle(http.MethodPost, pattern, h, mw...)
}

func (rt *Router) PUT(pattern string, h Handler, mw ...string) *Route {
	return rt.Handle(http.MethodPut, pattern, h, mw...)
}

func (rt *Router) PATCH(pattern string, h Handler, mw ...string) *Route {
	return rt.Handle(http.MethodPatch, pattern, h, mw...)
}

func (rt *Router) DELETE(pattern string, h Handler, mw ...string) *Route {
	return rt.Handle(http.MethodDelete, pattern, h, mw...)
}

// Group prefixes every route registered inside fn with prefix and appends
// middleware to their chains. The previous prefix and chain are restored
// when fn returns, so groups nest.
func (rt *Router) Group(prefix string, middleware []string, fn func(rt *Router)) {
	savedPrefix, savedChain := rt.prefix, rt.groupChains

	rt.prefix = strings.TrimSuffix(savedPrefix+prefix, "/")
	rt.groupChains = append(append([]string{}, savedChain...), middleware...)
	defer func() {
		rt.prefix, rt.groupChains = savedPrefix, savedChain
	}()

	fn(rt)
}

// Routes returns the route table in match order.
func (rt *Router) Routes() []*Route {
	out := make([]*Route, len(rt.routes))
	copy(out, rt.routes)
	return out
}

// Match finds the first route for method and path. Any query string is
// ignored.
func (rt *Router) Match(method, path string) (*Route, Params, error) {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	path = CleanPath(path)
	method = strings.ToUpper(method)

	for _, route := range rt.routes {
		if route.Method != method {
			continue
		}
		m := route.matcher.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		ps := make(Params, len(route.names))
		for i, name := range route.names {
			ps[i] = Param{Key: name, Value: m[i+1]}
		}
		return route, ps, nil
	}
	return nil, nil, apperrors.RouteNotFound(method, path)
}

// Dispatch matches r, runs the route's middleware chain and then its handler.
func (rt *Router) Dispatch(w http.ResponseWriter, r *http.Request) error {
	route, ps, err := rt.Match(EffectiveMethod(r), r.URL.Path)
	if err != nil {
		return err
	}

	for _, name := range route.Middleware {
		mw, ok := rt.middleware[name]
		if !ok || mw == nil {
			return apperrors.HandlerResolution(route.Method+" "+route.Pattern,
				fmt.Errorf("middleware %q is not registered", name))
		}
		handled, err := mw(w, r)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	if route.Handler == nil {
		return apperrors.HandlerResolution(route.Method+" "+route.Pattern, fmt.Errorf("route has no handler"))
	}
	return route.Handler(w, r.WithContext(withParams(r.Context(), ps)), ps)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := rt.Dispatch(w, r); err != nil {
		if rt.ErrorHandler != nil {
			rt.ErrorHandler(w, r, err)
			return
		}
		appErr := apperrors.AsAppError(err)
		http.Error(w, appErr.Message, appErr.HTTPStatus)
	}
}

// EffectiveMethod is the verb used for matching: a POST whose form body
// carries a _method field of PUT, PATCH or DELETE is treated as that verb.
// The query string is never consulted.
func EffectiveMethod(r *http.Request) string {
	if r.Method != http.MethodPost {
		return r.Method
	}
	if !isForm(r) {
		return r.Method
	}
	override := strings.ToUpper(strings.TrimSpace(r.PostFormValue(MethodOverrideField)))
	if overridable[override] {
		return override
	}
	return r.Method
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

// CleanPath is the form a path is matched in: rooted, with any trailing
// slash removed except on "/".
func CleanPath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// compile turns /rooms/{id}/edit into ^/rooms/([^/]+?)/edit$.
func compile(pattern string) (*regexp.Regexp, []string, error) {
	if strings.Contains(pattern, "{}") {
		return nil, nil, fmt.Errorf("empty placeholder")
	}

	var (
		b     strings.Builder
		names []string
		last  int
	)
	b.WriteString("^")
	for _, loc := range placeholderRe.FindAllStringSubmatchIndex(pattern, -1) {
		literal := pattern[last:loc[0]]
		if strings.ContainsAny(literal, "{}") {
			return nil, nil, fmt.Errorf("malformed placeholder near %q", literal)
		}
		if literal == "" && len(names) > 0 {
			return nil, nil, fmt.Errorf("adjacent placeholders at %d", loc[0])
		}
		b.WriteString(regexp.QuoteMeta(literal))
		b.WriteString(`([^/]+?)`)

		name := pattern[loc[2]:loc[3]]
		for _, n := range names {
			if n == name {
				return nil, nil, fmt.Errorf("duplicate placeholder %q", name)
			}
		}
		names = append(names, name)
		last = loc[1]
	}
	tail := pattern[last:]
	if strings.ContainsAny(tail, "{}") {
		return nil, nil, fmt.Errorf("malformed placeholder near %q", tail)
	}
	b.WriteString(regexp.QuoteMeta(tail))
	b.WriteString("$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, nil, err
	}
	return re, names, nil
}

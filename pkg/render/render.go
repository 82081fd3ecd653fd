// Package render turns logical view names into HTML using html/template.
//
// A template tree looks like:
//
//	layouts/app.html     {{define "layout"}} ... {{template "content" .}} ... {{end}}
//	layouts/admin.html   used for every view under admin/
//	partials/*.html      shared {{define}} blocks
//	views/rooms/show.html
//
// A view defines "title" and "content"; the layout decides where they go.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"sync"
)

var ErrViewNotFound = errors.New("view not found")

const (
	viewsDir      = "views"
	partialsGlob  = "partials/*.html"
	defaultLayout = "layouts/app.html"
	adminLayout   = "layouts/admin.html"
	rootTemplate  = "layout"
)

type Renderer struct {
	fsys   fs.FS
	reload bool
	funcs  template.FuncMap

	mu    sync.RWMutex
	cache map[string]*template.Template
}

type Option func(*Renderer)

// WithReload disables the template cache so edits show up on the next
// request. Meant for development.
func WithReload(reload bool) Option {
	return func(r *Renderer) { r.reload = reload }
}

// WithFuncs adds template functions on top of the defaults.
func WithFuncs(funcs template.FuncMap) Option {
	return func(r *Renderer) {
		for k, v := range funcs {
			r.funcs[k] = v
		}
	}
}

func New(fsys fs.FS, opts ...Option) *Renderer {
	r := &Renderer{
		fsys:  fsys,
		funcs: DefaultFuncs(),
		cache: make(map[string]*template.Template),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exists reports whether a view file exists for name.
func (r *Renderer) Exists(name string) bool {
	_, err := fs.Stat(r.fsys, viewPath(name))
	return err == nil
}

// Render executes the view called name with data and returns the output.
// Nothing is returned on failure, so a half-rendered page never escapes.
func (r *Renderer) Render(name string, data any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, rootTemplate, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// HTML renders name and writes it with status.
func (r *Renderer) HTML(w http.ResponseWriter, status int, name string, data any) error {
	out, err := r.Render(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write([]byte(out))
	return err
}

func (r *Renderer) lookup(name string) (*template.Template, error) {
	if !r.reload {
		r.mu.RLock()
		tmpl, ok := r.cache[name]
		r.mu.RUnlock()
		if ok {
			return tmpl, nil
		}
	}

	tmpl, err := r.parse(name)
	if err != nil {
		return nil, err
	}

	if !r.reload {
		r.mu.Lock()
		r.cache[name] = tmpl
		r.mu.Unlock()
	}
	return tmpl, nil
}

func (r *Renderer) parse(name string) (*template.Template, error) {
	view := viewPath(name)
	if _, err := fs.Stat(r.fsys, view); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, name)
	}

	files := []string{layoutFor(name)}
	partials, err := fs.Glob(r.fsys, partialsGlob)
	if err != nil {
		return nil, err
	}
	files = append(files, partials...)
	files = append(files, view)

	tmpl, err := template.New(path.Base(view)).Funcs(r.funcs).ParseFS(r.fsys, files...)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return tmpl, nil
}

func viewPath(name string) string {
	name = strings.TrimSuffix(strings.Trim(name, "/"), ".html")
	return path.Join(viewsDir, path.Clean("/"+name)+".html")
}

func layoutFor(name string) string {
	if strings.HasPrefix(name, "admin/") {
		return adminLayout
	}
	return defaultLayout
}

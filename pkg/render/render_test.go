package render

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/app.html": {Data: []byte(
			`{{define "layout"}}<title>{{template "title" .}}</title>{{template "nav" .}}<main>{{template "content" .}}</main>{{end}}`)},
		"layouts/admin.html": {Data: []byte(
			`{{define "layout"}}<admin>{{template "content" .}}</admin>{{end}}`)},
		"partials/nav.html": {Data: []byte(`{{define "nav"}}<nav>{{.User}}</nav>{{end}}`)},
		"views/rooms/show.html": {Data: []byte(
			`{{define "title"}}Room {{.Number}}{{end}}{{define "content"}}{{.Number}} {{money .Price}} {{.Note}}{{end}}`)},
		"views/admin/rooms.html": {Data: []byte(`{{define "content"}}rooms{{end}}`)},
		"views/broken.html": {Data: []byte(
			`{{define "title"}}x{{end}}{{define "content"}}{{.Missing.Field}}{{end}}`)},
	}
}

type showData struct {
	User   string
	Number string
	Price  int64
	Note   string
}

func TestRender(t *testing.T) {
	r := New(testFS())

	out, err := r.Render("rooms/show", showData{User: "ada", Number: "101", Price: 1250000, Note: "<b>sea view</b>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"<title>Room 101</title>", "<nav>ada</nav>", "$12,500.00", "&lt;b&gt;sea view&lt;/b&gt;"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_AdminLayout(t *testing.T) {
	out, err := New(testFS()).Render("admin/rooms", nil)
	if err != nil {
		t.Fatal(err)
	}
	if out != "<admin>rooms</admin>" {
		t.Errorf("got %q", out)
	}
}

func TestRender_ViewNotFound(t *testing.T) {
	r := New(testFS())
	for _, name := range []string{"rooms/missing", "../layouts/app"} {
		if _, err := r.Render(name, nil); !errors.Is(err, ErrViewNotFound) {
			t.Errorf("Render(%q) expected ErrViewNotFound, got %v", name, err)
		}
	}
}

func TestRender_ExecutionErrorReturnsNothing(t *testing.T) {
	out, err := New(testFS()).Render("broken", showData{})
	if err == nil {
		t.Fatal("expected execution error")
	}
	if out != "" {
		t.Errorf("partial output leaked: %q", out)
	}
}

func TestRender_CacheAndReload(t *testing.T) {
	fsys := testFS()
	cached := New(fsys)
	live := New(fsys, WithReload(true))

	if _, err := cached.Render("admin/rooms", nil); err != nil {
		t.Fatal(err)
	}
	fsys["views/admin/rooms.html"] = &fstest.MapFile{Data: []byte(`{{define "content"}}changed{{end}}`)}

	if out, _ := cached.Render("admin/rooms", nil); out != "<admin>rooms</admin>" {
		t.Errorf("cached renderer should keep the parsed template, got %q", out)
	}
	if out, _ := live.Render("admin/rooms", nil); out != "<admin>changed</admin>" {
		t.Errorf("reloading renderer should reparse, got %q", out)
	}
}

func TestHTML(t *testing.T) {
	w := httptest.NewRecorder()
	if err := New(testFS()).HTML(w, http.StatusUnprocessableEntity, "admin/rooms", nil); err != nil {
		t.Fatal(err)
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{12000, "$120.00"},
		{123456, "$1,234.56"},
		{100000000, "$1,000,000.00"},
		{-2550, "-$25.50"},
	}
	for _, tt := range tests {
		if got := Money(tt.cents); got != tt.want {
			t.Errorf("Money(%d) = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestNights(t *testing.T) {
	in := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if got := Nights(in, in.AddDate(0, 0, 4)); got != 4 {
		t.Errorf("Nights = %d, want 4", got)
	}
	if got := Nights(in, in); got != 0 {
		t.Errorf("same day should be 0 nights, got %d", got)
	}
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		base string
		page int
		want string
	}{
		{name: "no filters", base: "", page: 2, want: "?page=2"},
		{name: "keeps filters", base: "status=pending&type=3", page: 4, want: "?status=pending&type=3&page=4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(PageURL(tt.base, tt.page)); got != tt.want {
				t.Errorf("PageURL = %q, want %q", got, tt.want)
			}
		})
	}
}

package testutil

import (
	"testing/fstest"

	"hotelbooking/internal/view"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/render"
)

const testLayout = `{{define "layout"}}{{template "content" .}}{{end}}`

// NewResponder builds a responder over in-memory views. Each entry maps a
// view name such as "rooms/show" to the body of its "content" block.
func NewResponder(views map[string]string) *view.Responder {
	fsys := fstest.MapFS{
		"layouts/app.html":   {Data: []byte(testLayout)},
		"layouts/admin.html": {Data: []byte(testLayout)},
		"views/errors/generic.html": {Data: []byte(
			`{{define "content"}}error {{.Status}}: {{.Message}}{{end}}`)},
	}
	for name, body := range views {
		fsys["views/"+name+".html"] = &fstest.MapFile{
			Data: []byte(`{{define "content"}}` + body + `{{end}}`),
		}
	}
	return view.NewResponder(render.New(fsys), logger.Discard(), false)
}

// Package web embeds the page templates and static assets shipped with the
// binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var assets embed.FS

// Templates is rooted at templates/, the layout the renderer expects.
func Templates() fs.FS {
	return sub("templates")
}

func Static() fs.FS {
	return sub("static")
}

func sub(dir string) fs.FS {
	fsys, err := fs.Sub(assets, dir)
	if err != nil {
		panic(err)
	}
	return fsys
}

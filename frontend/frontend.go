// Package frontend embeds the built web application shell.
package frontend

import (
	"embed"
	"io/fs"
)

//go:embed all:dist
var distFS embed.FS

// DistFS exposes the built frontend as a filesystem rooted at dist/.
// It is a variable so tests can substitute a fixture filesystem.
var DistFS fs.FS

func init() {
	sub, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic(err)
	}
	DistFS = sub
}

// Package embeds carries the compiled-in web assets and HTML templates.
package embeds

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the embedded static files
func StaticFS() (fs.FS, error) {
	return fs.Sub(content, "static")
}

// TemplateFS returns the embedded template files
func TemplateFS() (fs.FS, error) {
	return fs.Sub(content, "templates")
}

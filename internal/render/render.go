// Package render turns presentation records into HTML: full pages through
// the base layout, and the standalone grid fragment carried by the stream's
// complete event.
package render

import (
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"chomikai/internal/embeds"
	"chomikai/internal/google"
)

// pageNames are the templates composed with the base layout.
var pageNames = []string{"login", "progress"}

// Service holds the parsed templates.
type Service struct {
	pages map[string]*template.Template
	grid  *template.Template
}

// NewService parses all embedded templates.
func NewService() (*Service, error) {
	tmplFS, err := embeds.TemplateFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open template filesystem: %w", err)
	}

	s := &Service{pages: make(map[string]*template.Template)}

	for _, name := range pageNames {
		tmpl, err := template.New("base.html").Funcs(funcMap()).ParseFS(tmplFS,
			"layouts/base.html", "pages/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
		}
		s.pages[name] = tmpl
	}

	grid, err := template.New("grid.html").Funcs(funcMap()).ParseFS(tmplFS, "partials/grid.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse grid template: %w", err)
	}
	s.grid = grid

	return s, nil
}

// RenderPage writes a full page through the base layout.
func (s *Service) RenderPage(w io.Writer, name string, data any) error {
	tmpl, ok := s.pages[name]
	if !ok {
		return fmt.Errorf("unknown page template %q", name)
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		return fmt.Errorf("failed to render %s page: %w", name, err)
	}
	return nil
}

// RenderGrid produces the presentation grid markup as a string, ready to be
// carried in the stream's complete event.
func (s *Service) RenderGrid(presentations []google.Presentation) (string, error) {
	var sb strings.Builder
	if err := s.grid.ExecuteTemplate(&sb, "grid.html", presentations); err != nil {
		return "", fmt.Errorf("failed to render presentation grid: %w", err)
	}
	return sb.String(), nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": formatTime,
	}
}

// formatTime turns a Drive RFC 3339 timestamp into a short human-readable
// date. Unparseable values are shown as received.
func formatTime(value string) string {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}

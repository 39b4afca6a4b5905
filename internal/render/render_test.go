package render

import (
	"bytes"
	"strings"
	"testing"

	"chomikai/internal/google"
)

func TestRenderGrid(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	presentations := []google.Presentation{
		{
			ID:           "a",
			Name:         "Quarterly Review",
			CreatedTime:  "2024-01-15T10:30:00.000Z",
			ModifiedTime: "2024-03-02T08:00:00.000Z",
			WebViewLink:  "https://docs.google.com/presentation/d/a",
			ThumbnailURL: "https://lh7-us.googleusercontent.com/thumb-a",
		},
		{
			ID:          "b",
			Name:        "Roadmap",
			WebViewLink: "https://docs.google.com/presentation/d/b",
		},
	}

	html, err := s.RenderGrid(presentations)
	if err != nil {
		t.Fatalf("RenderGrid() failed: %v", err)
	}

	for _, want := range []string{
		"Quarterly Review",
		`src="https://lh7-us.googleusercontent.com/thumb-a"`,
		`href="https://docs.google.com/presentation/d/a"`,
		"Created Jan 15, 2024",
		"Modified Mar 2, 2024",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("Grid is missing %q", want)
		}
	}

	// A presentation without a thumbnail gets the placeholder
	if !strings.Contains(html, "thumbnail-placeholder") {
		t.Error("Grid is missing the placeholder for the thumbnail-less presentation")
	}
}

func TestRenderGridEscapesNames(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	html, err := s.RenderGrid([]google.Presentation{
		{ID: "x", Name: "<script>alert(1)</script>"},
	})
	if err != nil {
		t.Fatalf("RenderGrid() failed: %v", err)
	}

	if strings.Contains(html, "<script>alert(1)</script>") {
		t.Error("Presentation name was not escaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("Expected escaped presentation name in grid")
	}
}

func TestRenderGridEmpty(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	html, err := s.RenderGrid(nil)
	if err != nil {
		t.Fatalf("RenderGrid() failed: %v", err)
	}
	if !strings.Contains(html, "No presentations found") {
		t.Error("Empty grid is missing the empty message")
	}
}

func TestRenderPages(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	tests := []struct {
		page string
		data map[string]any
		want []string
	}{
		{
			page: "login",
			data: map[string]any{"Title": "Sign in", "LoggedIn": false, "Error": ""},
			want: []string{"Sign in with Google", `href="/login"`},
		},
		{
			page: "progress",
			data: map[string]any{"Title": "Loading", "LoggedIn": true},
			want: []string{"progress-fill", "EventSource", "status-text", "content-section"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			var buf bytes.Buffer
			if err := s.RenderPage(&buf, tt.page, tt.data); err != nil {
				t.Fatalf("RenderPage(%q) failed: %v", tt.page, err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("Page %q is missing %q", tt.page, want)
				}
			}
		})
	}
}

func TestRenderPageUnknown(t *testing.T) {
	s, err := NewService()
	if err != nil {
		t.Fatalf("NewService() failed: %v", err)
	}

	var buf bytes.Buffer
	if err := s.RenderPage(&buf, "dashboard", nil); err == nil {
		t.Error("RenderPage() succeeded for unknown template, want error")
	}
}

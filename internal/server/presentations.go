package server

import (
	"fmt"
	"net/http"
	"strings"

	"chomikai/internal/logging"
	"chomikai/internal/scanner"
	"chomikai/internal/sse"
)

// handlePresentations serves the progressive-loading page, or the event
// stream that feeds it, depending on the Accept header. The page's loader
// reconnects to this same path asking for text/event-stream.
func (s *Server) handlePresentations(w http.ResponseWriter, r *http.Request) {
	if !strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		data := map[string]any{
			"Title":    "Your Presentations",
			"LoggedIn": true,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.render.RenderPage(w, "progress", data); err != nil {
			logging.Errorf("Error rendering progress page: %v", err)
			http.Error(w, "Error rendering template", http.StatusInternalServerError)
		}
		return
	}

	s.streamPresentations(w, r)
}

// streamPresentations runs the Drive scan and emits progress, complete and
// error events over SSE.
func (s *Server) streamPresentations(w http.ResponseWriter, r *http.Request) {
	writer := sse.NewWriter(w)
	if writer == nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	token, ok := s.credentialsFromSession(r)
	if !ok {
		// Middleware already checked, but the session can expire between
		// the page load and the stream connect.
		writer.SendEvent("error", map[string]string{
			"message": "An error occurred: session expired",
		})
		return
	}

	// The Drive listing emits nothing until the first progress event; a
	// comment keeps intermediaries from timing out the silent connection.
	writer.SendComment("scan started")

	ctx := r.Context()
	client := s.newAPIClient(ctx, token)
	scan := scanner.New(client, client, s.config.ScanWorkers, s.config.ThumbnailSize)

	presentations, err := scan.Scan(ctx, func(p scanner.Progress) {
		if err := writer.SendEvent("progress", p); err != nil {
			logging.Debugf("Client dropped progress stream: %v", err)
		}
	})
	if err != nil {
		logging.Errorf("Presentation scan failed: %v", err)
		writer.SendEvent("error", map[string]string{
			"message": fmt.Sprintf("An error occurred: %v", err),
		})
		return
	}

	html, err := s.render.RenderGrid(presentations)
	if err != nil {
		logging.Errorf("Failed to render presentation grid: %v", err)
		writer.SendEvent("error", map[string]string{
			"message": fmt.Sprintf("An error occurred: %v", err),
		})
		return
	}

	if err := writer.SendEvent("complete", map[string]string{"html": html}); err != nil {
		logging.Debugf("Client dropped stream before complete: %v", err)
	}
}

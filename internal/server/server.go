package server

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"chomikai/internal/config"
	"chomikai/internal/embeds"
	"chomikai/internal/google"
	"chomikai/internal/logging"
	"chomikai/internal/render"
)

// Server represents the HTTP server
type Server struct {
	config       *config.Config
	render       *render.Service
	sessionStore *sessions.CookieStore
	oauth        *oauth2.Config

	// newAPIClient builds the Google API client for a session token.
	// Replaced in tests to point at stub backends.
	newAPIClient func(ctx context.Context, token *oauth2.Token) *google.Client
}

// New creates a new server instance
func New(cfg *config.Config) (*Server, error) {
	sessionKey := []byte(cfg.SessionSecret)
	if len(sessionKey) == 0 {
		// Random per-boot key: restarting the server logs everyone out
		sessionKey = make([]byte, 32)
		if _, err := rand.Read(sessionKey); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
	}

	renderSvc, err := render.NewService()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	oauthConf := google.OAuthConfig(cfg)

	s := &Server{
		config:       cfg,
		render:       renderSvc,
		sessionStore: sessions.NewCookieStore(sessionKey),
		oauth:        oauthConf,
	}
	s.newAPIClient = func(ctx context.Context, token *oauth2.Token) *google.Client {
		return google.NewClient(ctx, s.oauth, token)
	}

	s.sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   false, // Behind TLS termination, set SESSION_SECRET and flip this
		SameSite: http.SameSiteLaxMode,
	}

	return s, nil
}

// Handler builds the route table for the server
func (s *Server) Handler() (http.Handler, error) {
	mux := http.NewServeMux()

	// Static file serving from the embedded assets
	staticFS, err := embeds.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("failed to open static filesystem: %w", err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	// Public routes (no auth required)
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/oauth2callback", s.handleOAuthCallback)
	mux.HandleFunc("/logout", s.handleLogout)

	// Protected routes (auth required)
	mux.HandleFunc("/presentations", s.AuthRequiredMiddleware(s.handlePresentations))

	// API routes
	mux.HandleFunc("/api/system-vitals", s.AuthRequiredMiddleware(s.handleSystemVitals))

	return mux, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := s.config.ListenAddr
	if addr == "" {
		addr = config.DefaultListenAddr
	}

	logging.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, handler)
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"chomikai/internal/google"
	"chomikai/internal/logging"
	"chomikai/internal/system"
)

// handleIndex serves the landing page. Authenticated visitors go straight
// to their presentations.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	// The root mux pattern catches everything unrouted
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if _, ok := s.credentialsFromSession(r); ok {
		http.Redirect(w, r, "/presentations", http.StatusFound)
		return
	}

	data := map[string]any{
		"Title":    "Sign in",
		"LoggedIn": false,
		"Error":    "",
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.render.RenderPage(w, "login", data); err != nil {
		logging.Errorf("Error rendering login page: %v", err)
		http.Error(w, "Error rendering template", http.StatusInternalServerError)
	}
}

// handleLogin starts the Google consent flow
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)

	state := uuid.NewString()
	session.Values[sessionKeyState] = state
	if err := session.Save(r, w); err != nil {
		logging.Errorf("Failed to save session: %v", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, google.AuthCodeURL(s.oauth, state), http.StatusFound)
}

// handleOAuthCallback completes the consent flow: validates the CSRF
// state, exchanges the code and stores the token in the session.
func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		logging.Warnf("OAuth consent denied: %s", errParam)
		http.Error(w, fmt.Sprintf("Authorization failed: %s", errParam), http.StatusBadRequest)
		return
	}

	session := s.getSession(r)
	wantState, _ := session.Values[sessionKeyState].(string)
	if wantState == "" || query.Get("state") != wantState {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}
	delete(session.Values, sessionKeyState)

	token, err := s.oauth.Exchange(r.Context(), query.Get("code"))
	if err != nil {
		logging.Errorf("Token exchange failed: %v", err)
		http.Error(w, "Token exchange failed", http.StatusBadRequest)
		return
	}

	if err := s.saveCredentials(w, r, session, token); err != nil {
		logging.Errorf("Failed to save credentials: %v", err)
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	logging.Infof("User authenticated, redirecting to presentations")
	http.Redirect(w, r, "/presentations", http.StatusFound)
}

// handleLogout drops the session
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := s.getSession(r)

	for key := range session.Values {
		delete(session.Values, key)
	}
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		logging.Errorf("Failed to save session: %v", err)
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// handleSystemVitals reports host resource usage for the local dashboard
func (s *Server) handleSystemVitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vitals, err := system.GetVitals()
	if err != nil {
		logging.Errorf("Failed to get system vitals: %v", err)
		http.Error(w, "Failed to get system vitals", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(vitals); err != nil {
		logging.Errorf("Failed to encode vitals response: %v", err)
	}
}

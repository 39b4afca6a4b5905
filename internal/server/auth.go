package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"chomikai/internal/logging"
)

const sessionName = "chomikai-session"

// session keys
const (
	sessionKeyState       = "state"
	sessionKeyCredentials = "credentials"
)

// getSession fetches the request session. Decode failures (stale or
// tampered cookies) yield a fresh session rather than an error page.
func (s *Server) getSession(r *http.Request) *sessions.Session {
	session, err := s.sessionStore.Get(r, sessionName)
	if err != nil {
		logging.Debugf("Failed to decode session, starting fresh: %v", err)
	}
	return session
}

// saveCredentials stores the OAuth token in the session as JSON
func (s *Server) saveCredentials(w http.ResponseWriter, r *http.Request, session *sessions.Session, token *oauth2.Token) error {
	data, err := json.Marshal(token)
	if err != nil {
		return err
	}
	session.Values[sessionKeyCredentials] = string(data)
	return session.Save(r, w)
}

// credentialsFromSession retrieves the OAuth token stored at login, or
// false when the session holds none.
func (s *Server) credentialsFromSession(r *http.Request) (*oauth2.Token, bool) {
	session := s.getSession(r)

	raw, ok := session.Values[sessionKeyCredentials].(string)
	if !ok || raw == "" {
		return nil, false
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		logging.Warnf("Failed to decode session credentials: %v", err)
		return nil, false
	}
	return &token, true
}

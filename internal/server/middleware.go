package server

import (
	"net/http"
)

// AuthRequiredMiddleware redirects requests without session credentials to
// the login flow.
func (s *Server) AuthRequiredMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.credentialsFromSession(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

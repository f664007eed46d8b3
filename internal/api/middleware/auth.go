// Package middleware gates handlers on the signed-in session.
package middleware

import (
	"net/http"

	"github.com/newthinker/strategylab/internal/api/response"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/session"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// RequireSession redirects to the login page when the request carries no
// restored session.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSessionJSON answers 401 with the error envelope when the request
// carries no restored session.
func RequireSessionJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); !ok {
			response.Error(w, http.StatusUnauthorized, core.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

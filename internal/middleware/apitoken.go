package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
)

// TokenHeader carries the caller's shared secret.
const TokenHeader = "X-API-Token"

// AdminTokenHeader carries the operator secret for fleet-visibility routes.
const AdminTokenHeader = "X-Admin-Token"

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}

// APIToken enforces the shared-secret header on protected routes. A wrong
// token and a missing token both yield the same 401 body, so responses leak
// nothing about registered user ids. allowAnonymous skips the check for
// requests presenting no token at all; it is a deployment-time debug flag,
// never the default.
func APIToken(token string, allowAnonymous bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(TokenHeader)
			if got == "" && allowAnonymous {
				next.ServeHTTP(w, r)
				return
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminToken additionally gates operator-only routes. When no admin token is
// configured the route is disabled outright (403), never implicitly open.
func AdminToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "admin access not configured"})
				return
			}
			got := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Package api implements the companion HTTP surface using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Error messages for the bearer-token gate.
const (
	msgMisconfigured = "Server misconfigured: auth token not set"
	msgUnauthorized  = "Unauthorized"
)

// BearerAuth returns middleware that requires "Authorization: Bearer <token>".
// An empty token is a server misconfiguration and fails every request with
// 500 before the header is looked at.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeError(w, http.StatusInternalServerError, msgMisconfigured)
				return
			}
			got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				writeError(w, http.StatusUnauthorized, msgUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

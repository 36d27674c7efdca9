package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"bloggers-platform/internal/http/response"
)

// BasicAuthMiddleware guards the admin users surface with a single
// pre-shared credential, compared in constant time.
func BasicAuthMiddleware(expectedToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Basic ") {
				response.Status(w, http.StatusUnauthorized)
				return
			}
			presented := strings.TrimSpace(auth[len("Basic "):])
			if subtle.ConstantTimeCompare([]byte(presented), []byte(expectedToken)) != 1 {
				response.Status(w, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

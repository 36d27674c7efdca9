package middleware

import (
	"context"
	"net/http"

	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/security"
	"bloggers-platform/internal/service"
)

const refreshContextKey contextKey = "refresh"

// RefreshPrincipal is what a verified refresh cookie proves: a user on a
// specific device. RawToken is kept for handlers that rotate.
type RefreshPrincipal struct {
	UserID   uint
	DeviceID string
	RawToken string
}

// RefreshCookieMiddleware is the stateful gate: signature, session row and
// fingerprint must all agree. A deleted session makes a still-signed cookie
// worthless here, which is what makes revocation immediate.
func RefreshCookieMiddleware(tokens service.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := security.GetCookie(r, security.RefreshCookieName)
			if raw == "" {
				response.Status(w, http.StatusUnauthorized)
				return
			}
			claims, err := tokens.Verify(raw)
			if err != nil {
				response.Status(w, http.StatusUnauthorized)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				response.Status(w, http.StatusUnauthorized)
				return
			}
			principal := RefreshPrincipal{UserID: userID, DeviceID: claims.DeviceID, RawToken: raw}
			ctx := context.WithValue(r.Context(), refreshContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RefreshPrincipalFromContext(ctx context.Context) (RefreshPrincipal, bool) {
	p, ok := ctx.Value(refreshContextKey).(RefreshPrincipal)
	return p, ok
}

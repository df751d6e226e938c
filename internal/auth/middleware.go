package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ms-bulletin/internal/models"
)

type contextKey string

const sessionKey contextKey = "admin_session"

// CookieName is the cookie carrying the admin token.
const CookieName = "token"

// TokenFromRequest reads the admin token from the cookie, falling back to
// an "Authorization: Bearer" header for non-browser clients.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}

	authHeader := r.Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// Middleware rejects requests without a valid admin token. deny writes the
// response for the error returned by Guard.Authorize.
func Middleware(g *Guard, deny func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := g.Authorize(TokenFromRequest(r))
			if err != nil {
				deny(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session stored by Middleware.
func SessionFrom(ctx context.Context) (models.AdminSession, bool) {
	s, ok := ctx.Value(sessionKey).(models.AdminSession)
	return s, ok
}

func SetTokenCookie(w http.ResponseWriter, token string, expires time.Time, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func ClearTokenCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	})
}

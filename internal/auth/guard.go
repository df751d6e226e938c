package auth

import (
	"context"
	"fmt"
	"time"

	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/models"
)

// ThrottledError carries the wait before another login is accepted.
type ThrottledError struct {
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("%v, retry after %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *ThrottledError) Unwrap() error {
	return ErrTooManyAttempts
}

// Guard checks the admin password and the capability tokens issued for it.
type Guard struct {
	AdminHash string
	Codec     *TokenCodec
	Limiter   Limiter
	Logger    *logger.Logger
}

func NewGuard(adminHash string, codec *TokenCodec, limiter Limiter, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.NewDiscard()
	}
	return &Guard{AdminHash: adminHash, Codec: codec, Limiter: limiter, Logger: log}
}

// Login verifies password and issues an admin token. clientKey scopes the
// attempt counter, usually the remote address.
func (g *Guard) Login(ctx context.Context, password, clientKey string) (string, time.Time, error) {
	if g.AdminHash == "" {
		g.Logger.LogSecurity("LOGIN_MISCONFIGURED", "ADMIN_HASH is not set")
		return "", time.Time{}, ErrNotConfigured
	}

	if g.Limiter != nil {
		ok, wait, err := g.Limiter.Allow(ctx, clientKey)
		if err != nil {
			g.Logger.Warn("AUTH", fmt.Sprintf("Login limiter unavailable, allowing attempt: %v", err))
		} else if !ok {
			g.Logger.LogSecurity("LOGIN_THROTTLED", fmt.Sprintf("client=%s retry_after=%s", clientKey, wait))
			return "", time.Time{}, &ThrottledError{RetryAfter: wait}
		}
	}

	if err := CheckPassword(g.AdminHash, password); err != nil {
		g.Logger.LogSecurity("LOGIN_FAILED", fmt.Sprintf("client=%s: %v", clientKey, err))
		return "", time.Time{}, err
	}

	if g.Limiter != nil {
		if err := g.Limiter.Reset(ctx, clientKey); err != nil {
			g.Logger.Warn("AUTH", fmt.Sprintf("Failed to reset login attempts: %v", err))
		}
	}

	token, expires, err := g.Codec.Sign(models.RoleAdmin)
	if err != nil {
		return "", time.Time{}, err
	}
	g.Logger.LogSecurity("LOGIN_SUCCEEDED", fmt.Sprintf("client=%s expires=%s", clientKey, expires.Format(time.RFC3339)))
	return token, expires, nil
}

// Authorize accepts only an unexpired, correctly signed admin token. A
// missing token is ErrUnauthenticated; anything else that fails is
// ErrForbidden.
func (g *Guard) Authorize(raw string) (models.AdminSession, error) {
	if raw == "" {
		return models.AdminSession{}, ErrUnauthenticated
	}

	claims, err := g.Codec.Parse(raw)
	if err != nil {
		if IsExpired(err) {
			g.Logger.Debug("AUTH", "Rejected expired admin token")
		}
		return models.AdminSession{}, err
	}

	if claims.Role != models.RoleAdmin {
		return models.AdminSession{}, fmt.Errorf("%w: role %q", ErrForbidden, claims.Role)
	}
	return claims.Session(), nil
}

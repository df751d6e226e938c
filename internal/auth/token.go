package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ms-bulletin/internal/models"
)

// Claims is the payload of an admin capability token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenTTL is the lifetime of an admin token.
const TokenTTL = time.Hour

// TokenCodec signs and verifies HS256 capability tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl <= 0 {
		ttl = TokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Sign issues a token for role that expires TTL after now.
func (c *TokenCodec) Sign(role string) (string, time.Time, error) {
	if len(c.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: signing secret missing", ErrNotConfigured)
	}

	now := c.Now()
	expires := now.Add(c.ttl)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies the signature and expiry of raw and returns its claims.
func (c *TokenCodec) Parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	if len(c.secret) == 0 {
		return nil, fmt.Errorf("%w: signing secret missing", ErrNotConfigured)
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrForbidden, err)
	}
	return claims, nil
}

// Session converts verified claims to the model handed to handlers.
func (c *Claims) Session() models.AdminSession {
	s := models.AdminSession{Role: c.Role}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

// IsExpired reports whether err came from an expired token.
func IsExpired(err error) bool {
	return errors.Is(err, jwt.ErrTokenExpired)
}

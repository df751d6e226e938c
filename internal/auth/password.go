package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotConfigured      = errors.New("admin credentials not configured")
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrTooManyAttempts    = errors.New("too many login attempts")
)

// HashPassword produces the value stored in ADMIN_HASH.
func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a candidate against a bcrypt hash. An empty hash
// is reported as ErrNotConfigured, any mismatch as ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	if hash == "" {
		return ErrNotConfigured
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidCredentials
	case errors.Is(err, bcrypt.ErrHashTooShort):
		return ErrNotConfigured
	default:
		return ErrInvalidCredentials
	}
}

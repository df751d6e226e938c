package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"ms-bulletin/internal/auth"
	"ms-bulletin/internal/models"
	"ms-bulletin/internal/utils"
)

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	if req.Password == "" {
		_ = utils.WriteError(w, http.StatusBadRequest, "Login failed", "Password required.")
		return
	}

	token, expires, err := s.Guard.Login(r.Context(), req.Password, clientKey(r))
	if err != nil {
		s.observeLogin(loginOutcome(err))
		s.writeError(w, r, "Login failed", err)
		return
	}
	s.observeLogin("success")

	auth.SetTokenCookie(w, token, expires, s.Guard.Codec.TTL(), s.SecureCookies)
	s.respond(w, http.StatusOK, utils.SuccessResponse("Logged in", map[string]time.Time{"expiresAt": expires}))
}

// Logout clears the cookie. No valid token is required.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, s.SecureCookies)
	s.respond(w, http.StatusOK, utils.SuccessResponse("Logged out", nil))
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "invalid"
	case errors.Is(err, auth.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}

// clientKey is the remote IP without the port. Proxy headers only count
// when the server trusts its proxy.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

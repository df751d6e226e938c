package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"ms-bulletin/internal/auth"
	"ms-bulletin/internal/events"
	"ms-bulletin/internal/store"
	"ms-bulletin/internal/utils"
)

// RetryAfter is advertised with every 503.
const RetryAfter = 5 * time.Second

// statusFor classifies err for the client: retry, re-authenticate or show
// the message.
func statusFor(err error) (int, string) {
	var throttled *auth.ThrottledError
	switch {
	case errors.Is(err, events.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrInvalidID):
		return http.StatusBadRequest, "invalid event id"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, store.ErrNotFound.Error()
	case errors.As(err, &throttled), errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, auth.ErrTooManyAttempts.Error()
	case errors.Is(err, store.ErrNotReady):
		return http.StatusServiceUnavailable, "Database not connected."
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Event store unavailable, try again later."
	case errors.Is(err, auth.ErrNotConfigured):
		return http.StatusInternalServerError, "admin login not configured"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError maps err to a status and writes the JSON envelope. message
// describes the failed operation.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, detail := statusFor(err)

	switch status {
	case http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", strconv.Itoa(int(RetryAfter/time.Second)))
	case http.StatusTooManyRequests:
		var throttled *auth.ThrottledError
		wait := RetryAfter
		if errors.As(err, &throttled) && throttled.RetryAfter > 0 {
			wait = throttled.RetryAfter
		}
		w.Header().Set("Retry-After", strconv.Itoa(int((wait+time.Second-1)/time.Second)))
	}

	if status >= http.StatusInternalServerError {
		s.Logger.Error("API", fmt.Sprintf("%s %s: %s: %v", r.Method, r.URL.Path, message, err))
	} else {
		s.Logger.Warn("API", fmt.Sprintf("%s %s: %s: %v", r.Method, r.URL.Path, message, err))
	}

	resp := utils.ErrorResponse(message, detail)
	var verr *events.ValidationError
	if errors.As(err, &verr) {
		resp.Data = map[string]interface{}{"fields": verr.Fields}
	}
	if err := utils.WriteJSON(w, status, resp); err != nil {
		s.Logger.Error("API", fmt.Sprintf("failed to encode error response: %v", err))
	}
}

// deny is the response for requests the admin guard refused.
func (s *Server) deny(w http.ResponseWriter, r *http.Request, err error) {
	s.writeError(w, r, "Admin access required", err)
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-bulletin/internal/store"
)

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz reports 200 only when the store is connected and answers a ping.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	repo, err := s.Store.Get()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		if perr := repo.Ping(ctx); perr != nil && !errors.Is(perr, store.ErrUnavailable) {
			err = fmt.Errorf("ping: %w: %v", store.ErrUnavailable, perr)
		} else {
			err = perr
		}
		cancel()
	}
	if s.Metrics != nil {
		s.Metrics.SetStoreReady(err == nil)
	}
	if err != nil {
		s.writeError(w, r, "Not ready", err)
		return
	}
	s.respond(w, http.StatusOK, map[string]string{"status": "ready"})
}

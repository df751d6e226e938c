package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-bulletin/internal/models"
	"ms-bulletin/internal/store"
	"ms-bulletin/internal/utils"
)

const maxBodyBytes = 64 << 10

func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.Events.ListApproved(r.Context())
	if err != nil {
		s.writeError(w, r, "Error fetching events from database.", err)
		return
	}
	s.respond(w, http.StatusOK, evs)
}

func (s *Server) UpcomingEvents(w http.ResponseWriter, r *http.Request) {
	upcoming, err := s.Events.Upcoming(r.Context())
	if err != nil {
		s.writeError(w, r, "Error fetching events from database.", err)
		return
	}
	s.respond(w, http.StatusOK, upcoming)
}

func (s *Server) ListAllEvents(w http.ResponseWriter, r *http.Request) {
	evs, err := s.Events.ListAll(r.Context())
	if err != nil {
		s.writeError(w, r, "Error fetching events from database.", err)
		return
	}
	s.respond(w, http.StatusOK, evs)
}

func (s *Server) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitEventRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Logger.Warn("API", fmt.Sprintf("SubmitEvent: failed to decode request body: %v", err))
		_ = utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ev, err := s.Events.Submit(r.Context(), req)
	if err != nil {
		s.writeError(w, r, "Failed to add event.", err)
		return
	}

	s.respond(w, http.StatusCreated, models.SubmitEventResponse{
		Message: "Event submitted successfully",
		ID:      ev.ID,
	})
}

func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Events.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, "Failed to delete event", err)
		return
	}
	_ = utils.WriteSuccess(w, http.StatusOK, "Deleted", map[string]string{"id": id})
}

func (s *Server) ApproveEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Events.Approve(r.Context(), id); err != nil {
		s.writeError(w, r, "Failed to approve event", err)
		return
	}
	_ = utils.WriteSuccess(w, http.StatusOK, "Event approved", map[string]string{"id": id})
}

// EventQR serves a flyer QR code. Pending events are reported as missing.
func (s *Server) EventQR(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ev, err := s.Events.Get(r.Context(), id)
	if err == nil && !ev.Approved {
		err = store.ErrNotFound
	}
	if err != nil {
		s.writeError(w, r, "Failed to render QR code", err)
		return
	}

	png, err := s.QR.PNG(*ev)
	if err != nil {
		s.writeError(w, r, "Failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		s.Logger.Error("API", fmt.Sprintf("EventQR: failed to write response: %v", err))
	}
}

func (s *Server) respond(w http.ResponseWriter, status int, v interface{}) {
	if err := utils.WriteJSON(w, status, v); err != nil {
		s.Logger.Error("API", fmt.Sprintf("failed to encode response: %v", err))
	}
}

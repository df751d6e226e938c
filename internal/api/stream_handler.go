package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const streamHeartbeat = 25 * time.Second

// ModerationStream pushes lifecycle notifications to a signed-in moderator
// as server-sent events until the client goes away.
func (s *Server) ModerationStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})

	setupSSEHeaders(w)
	ctx := r.Context()
	updates := s.Stream.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	if err := rc.Flush(); err != nil {
		s.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}
	s.Logger.Info("SSE", "Moderator connected to event stream")

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case n, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				s.Logger.Error("SSE", fmt.Sprintf("Failed to serialize notification: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Action, data)
			_ = rc.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			_ = rc.Flush()

		case <-ctx.Done():
			s.Logger.Debug("SSE", "Moderator disconnected from event stream")
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}

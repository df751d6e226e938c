// Package api serves the bulletin over HTTP.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ms-bulletin/internal/auth"
	"ms-bulletin/internal/events"
	"ms-bulletin/internal/logger"
	"ms-bulletin/internal/metrics"
	"ms-bulletin/internal/qr"
	"ms-bulletin/internal/sse"
	"ms-bulletin/internal/store"
)

type Server struct {
	Events  *events.EventService
	Guard   *auth.Guard
	Store   *store.Handle
	QR      *qr.Generator
	Stream  *sse.Broadcaster
	Metrics *metrics.Metrics
	Logger  *logger.Logger

	// SecureCookies marks the admin cookie Secure. Set in production.
	SecureCookies bool
	// TrustProxy takes the client address from X-Forwarded-For or
	// X-Real-IP. Only set it behind a proxy that overwrites those headers.
	TrustProxy bool
	CORSOrigins   []string
}

// Routes builds the router. Admin routes sit behind the guard; everything
// else is public.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	if len(s.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	if s.Metrics != nil {
		r.Use(s.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Get("/healthz", s.Healthz)
	r.Get("/readyz", s.Readyz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/admin/login", s.Login)
		r.Post("/admin/logout", s.Logout)

		r.Get("/events", s.ListEvents)
		r.Get("/events/upcoming", s.UpcomingEvents)
		r.Get("/events/{id}/qr.png", s.EventQR)
		r.Post("/add", s.SubmitEvent)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.Guard, s.deny))

			r.Get("/admin/events", s.ListAllEvents)
			r.Delete("/events/{id}", s.DeleteEvent)
			r.Patch("/events/{id}/approve", s.ApproveEvent)
			if s.Stream != nil {
				r.Get("/admin/stream", s.ModerationStream)
			}
		})
	})

	return r
}

// accessLog writes one LogAPI line per request.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprint(status), time.Since(start).String())
	})
}

func (s *Server) observeLogin(outcome string) {
	if s.Metrics != nil {
		s.Metrics.ObserveLogin(outcome)
	}
}

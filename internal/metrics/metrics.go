// Package metrics exposes bulletin counters in the Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ms-bulletin/internal/models"
)

const namespace = "bulletin"

type Metrics struct {
	Registry *prometheus.Registry

	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bucketSize *prometheus.GaugeVec
	skipped    prometheus.Counter
	logins     *prometheus.CounterVec
	storeReady prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	m.duration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
	m.bucketSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "upcoming_events",
		Help:      "Events in each bucket of the last upcoming listing",
	}, []string{"bucket"})
	m.skipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invalid_timestamps_skipped_total",
		Help:      "Approved events left out of a listing for an invalid timestamp",
	})
	m.logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Admin login attempts by outcome",
	}, []string{"outcome"})
	m.storeReady = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_ready",
		Help:      "1 once the event store is connected",
	})

	m.Registry.MustRegister(
		m.requests, m.duration, m.bucketSize, m.skipped, m.logins, m.storeReady,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Middleware records every request under its chi route pattern, so ids in
// the path do not create new series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) ObserveUpcoming(u models.UpcomingEvents, skipped int) {
	m.bucketSize.WithLabelValues("today").Set(float64(len(u.Today)))
	m.bucketSize.WithLabelValues("week").Set(float64(len(u.Week)))
	m.bucketSize.WithLabelValues("month").Set(float64(len(u.Month)))
	m.skipped.Add(float64(skipped))
}

// ObserveLogin counts a login attempt. outcome is success, invalid,
// throttled or error.
func (m *Metrics) ObserveLogin(outcome string) {
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetStoreReady(ready bool) {
	if ready {
		m.storeReady.Set(1)
		return
	}
	m.storeReady.Set(0)
}

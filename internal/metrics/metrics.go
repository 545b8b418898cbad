// Package metrics exposes Prometheus collectors for reservations and HTTP traffic.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/academigold/internal/application"
	"github.com/example/academigold/internal/booking"
)

const namespace = "academigold"

// Metrics owns a private registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	reservationsCreated prometheus.Counter
	conflicts           *prometheus.CounterVec
	transitions         *prometheus.CounterVec
	sweepCompleted      prometheus.Counter
	requests            *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// New registers every collector, plus the Go and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		reservationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_created_total",
			Help:      "Reservations confirmed.",
		}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Reservation attempts rejected by the conflict checker.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_transitions_total",
			Help:      "Reservation status changes.",
		}, []string{"from", "to"}),
		sweepCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweep_completed_total",
			Help:      "Reservations completed by the background sweep.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.reservationsCreated,
		m.conflicts,
		m.transitions,
		m.sweepCompleted,
		m.requests,
		m.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ReservationCreated implements application.ReservationObserver.
func (m *Metrics) ReservationCreated(context.Context, application.Reservation) {
	m.reservationsCreated.Inc()
}

// ReservationConflict implements application.ReservationObserver.
func (m *Metrics) ReservationConflict(_ context.Context, kind booking.ConflictKind) {
	m.conflicts.WithLabelValues(string(kind)).Inc()
}

// ReservationTransitioned implements application.ReservationObserver.
func (m *Metrics) ReservationTransitioned(_ context.Context, from, to application.ReservationStatus) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// SweepCompleted records reservations completed by one sweep run.
func (m *Metrics) SweepCompleted(n int) {
	if n > 0 {
		m.sweepCompleted.Add(float64(n))
	}
}

// Middleware records request counts and latency. route names the matched
// pattern so ids do not explode label cardinality.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

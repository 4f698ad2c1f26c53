// Package metrics exposes the ledger's Prometheus collectors.
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
)

const namespace = "daan"

// Settlement scopes.
const (
	ScopeDonation = "donation"
	ScopeDonor    = "donor"
)

type Metrics struct {
	registry *prometheus.Registry

	settlements     *prometheus.CounterVec
	appliedCents    *prometheus.CounterVec
	discardedCents  *prometheus.CounterVec
	installments    prometheus.Counter
	publishFailures *prometheus.CounterVec
	mirrored        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New builds the collectors on a private registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_total",
			Help:      "Settlement requests by scope and outcome.",
		}, []string{"scope", "outcome"}),
		appliedCents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_applied_cents_total",
			Help:      "Cents applied against pending balances.",
		}, []string{"scope"}),
		discardedCents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_discarded_cents_total",
			Help:      "Cents requested beyond the outstanding balance and dropped.",
		}, []string{"scope"}),
		installments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installments_recorded_total",
			Help:      "Installment rows written.",
		}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Ledger events that could not be published.",
		}, []string{"type"}),
		mirrored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_mirrored_total",
			Help:      "Ledger events handled by the mirror worker.",
		}, []string{"type", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.settlements,
		m.appliedCents,
		m.discardedCents,
		m.installments,
		m.publishFailures,
		m.mirrored,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveSettlement records one settlement. A nil receiver is a no-op so
// callers can run without metrics.
func (m *Metrics) ObserveSettlement(scope, outcome string, appliedCents, discardedCents int64, installments int) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(scope, outcome).Inc()
	if appliedCents > 0 {
		m.appliedCents.WithLabelValues(scope).Add(float64(appliedCents))
	}
	if discardedCents > 0 {
		m.discardedCents.WithLabelValues(scope).Add(float64(discardedCents))
	}
	m.installments.Add(float64(installments))
}

func (m *Metrics) PublishFailed(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) Mirrored(eventType, outcome string) {
	if m == nil {
		return
	}
	m.mirrored.WithLabelValues(eventType, outcome).Inc()
}

// RegisterCache exposes hit and miss counters of a named cache.
func (m *Metrics) RegisterCache(name string, stats func() (hits, misses uint64)) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_hits_total",
			Help:        "Cache hits.",
			ConstLabels: labels,
		}, func() float64 { h, _ := stats(); return float64(h) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "cache_misses_total",
			Help:        "Cache misses.",
			ConstLabels: labels,
		}, func() float64 { _, mi := stats(); return float64(mi) }),
	)
}

// Middleware records request counts and latency labelled by the chi route
// pattern, keeping label cardinality bounded.
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
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

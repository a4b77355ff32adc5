// Package metrics exposes Prometheus instruments for the search path.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup outcomes.
const (
	LookupHit   = "hit"
	LookupMiss  = "miss"
	LookupError = "error"
)

// Upsert roles.
const (
	RolePrimary = "primary"
	RoleRelated = "related"
)

// Upstream operations.
const (
	OpSearch  = "search"
	OpSimilar = "similar"
)

var durationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Metrics holds the collectors registered for one process.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	storeUpserts     *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New creates a registry with Go and process collectors plus the marquee
// instruments under the given namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Store freshness lookups by outcome",
			},
			[]string{"outcome"},
		),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Requests sent to the TMDB API",
			},
			[]string{"op", "status"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of TMDB API requests",
				Buckets:   durationBuckets,
			},
			[]string{"op"},
		),
		storeUpserts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_upserts_total",
				Help:      "Catalog entries written to the store",
			},
			[]string{"role"},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "search_duration_seconds",
				Help:      "End-to-end search latency by primary result source",
				Buckets:   durationBuckets,
			},
			[]string{"source"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
	}

	registry.MustRegister(
		m.cacheLookups,
		m.upstreamRequests,
		m.upstreamDuration,
		m.storeUpserts,
		m.searchDuration,
		m.httpRequests,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheLookup counts a freshness lookup.
func (m *Metrics) CacheLookup(outcome string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// UpstreamRequest records one TMDB call. A zero status means no response.
func (m *Metrics) UpstreamRequest(op string, status int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status != 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamRequests.WithLabelValues(op, label).Inc()
	m.upstreamDuration.WithLabelValues(op).Observe(d.Seconds())
}

// StoreUpsert counts a successful write.
func (m *Metrics) StoreUpsert(role string) {
	if m == nil {
		return
	}
	m.storeUpserts.WithLabelValues(role).Inc()
}

// ObserveSearch records a completed search.
func (m *Metrics) ObserveSearch(source string, d time.Duration) {
	if m == nil {
		return
	}
	m.searchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// HTTPRequest counts a served request.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

package api

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of one server. Each server owns
// its registry so several can coexist in tests.
type Metrics struct {
	registry  *prometheus.Registry
	queries   *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	cacheHits prometheus.Counter
	errors    *prometheus.CounterVec
}

// NewMetrics registers the query collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tnr_queries_total",
			Help: "Distance queries answered, by method.",
		}, []string{"method"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tnr_query_duration_seconds",
			Help:    "Distance query latency, by method.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"method"}),
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "tnr_cache_hits_total",
			Help: "Distance queries served from the cache.",
		}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tnr_query_errors_total",
			Help: "Failed distance queries, by error code.",
		}, []string{"code"}),
	}
}

func (m *Metrics) observe(method string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(method).Inc()
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

func (m *Metrics) failed(code string) {
	if m != nil {
		m.errors.WithLabelValues(code).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the export module.
type Metrics struct {
	// Exports served by format and scope (all, one, many).
	ExportsServed *prometheus.CounterVec

	// CacheHits counts full-export payloads answered from Redis.
	CacheHits prometheus.Counter

	// Serialization plus fetch latency.
	ExportLatency prometheus.Histogram
}

// New creates a Metrics instance with all export module metrics registered.
func New() *Metrics {
	return &Metrics{
		ExportsServed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "epistats_exports_served_total",
			Help: "Total exports served by format and scope",
		}, []string{"format", "scope"}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "epistats_export_cache_hits_total",
			Help: "Full exports answered from the Redis payload cache",
		}),

		ExportLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "epistats_export_duration_seconds",
			Help:    "Duration of export fetch and serialization",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// RecordExport records a served export.
func (m *Metrics) RecordExport(format, scope string, d time.Duration) {
	if m != nil {
		m.ExportsServed.WithLabelValues(format, scope).Inc()
		m.ExportLatency.Observe(d.Seconds())
	}
}

// RecordCacheHit records a cache-served full export.
func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

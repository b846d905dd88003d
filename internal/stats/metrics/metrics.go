package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the statistics module.
type Metrics struct {
	// Mutations by operation (insert, upsert, delete) and outcome.
	Mutations *prometheus.CounterVec

	// Lookup latency across read operations.
	LookupLatency prometheus.Histogram
}

// New creates a Metrics instance with all statistics module metrics registered.
func New() *Metrics {
	return &Metrics{
		Mutations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "epistats_statistic_mutations_total",
			Help: "Total daily statistic mutations by operation and outcome",
		}, []string{"operation", "outcome"}),

		LookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "epistats_statistic_lookup_duration_seconds",
			Help:    "Duration of statistic read operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// RecordMutation records a mutation outcome.
func (m *Metrics) RecordMutation(operation, outcome string) {
	if m != nil {
		m.Mutations.WithLabelValues(operation, outcome).Inc()
	}
}

// ObserveLookup records the duration of a read operation in seconds.
func (m *Metrics) ObserveLookup(seconds float64) {
	if m != nil {
		m.LookupLatency.Observe(seconds)
	}
}

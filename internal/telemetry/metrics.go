package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	DependencyErrors *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide metrics set, registering the collectors
// on first use. Collectors can only be registered once per registry, so
// repeated calls share the same instance.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics()
	})
	return metrics
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logistica_requests_total",
				Help: "Total number of requests by operation and outcome",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "logistica_request_duration_seconds",
				Help:    "Request duration in seconds by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		DependencyErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "logistica_dependency_errors_total",
				Help: "Degraded external dependency calls by dependency",
			},
			[]string{"dependency"},
		),
	}
}

// RecordRequest records one handled request.
func (m *Metrics) RecordRequest(operation, status string, duration float64) {
	m.RequestsTotal.WithLabelValues(operation, status).Inc()
	m.RequestDuration.WithLabelValues(operation).Observe(duration)
}

// RecordDependencyError records a degraded call to an external dependency.
func (m *Metrics) RecordDependencyError(dependency string) {
	m.DependencyErrors.WithLabelValues(dependency).Inc()
}

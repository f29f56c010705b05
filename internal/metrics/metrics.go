// Package metrics records validation results as Prometheus metrics and
// exports them in the node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/fivetwenty-io/optimade-validator/pkg/optimade"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for a validation run on a private registry.
type Metrics struct {
	registry *prometheus.Registry
	tests    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// New creates and registers the validator collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "optimade_validator_tests_total",
				Help: "Number of validator tests by stage and status",
			},
			[]string{"stage", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "optimade_validator_test_duration_seconds",
				Help:    "Duration of validator tests including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}

	m.registry.MustRegister(m.tests, m.duration)

	return m
}

// Observe records a single test result.
func (m *Metrics) Observe(result optimade.TestResult) {
	m.tests.WithLabelValues(result.Stage, string(result.Status)).Inc()

	if result.Status != optimade.StatusSkipped {
		m.duration.WithLabelValues(result.Stage).Observe(result.Duration.Seconds())
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics to path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}

	return nil
}

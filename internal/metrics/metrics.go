// Package metrics exports engine and service observations to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the core MetricsRecorder and WorldsRecorder interfaces.
type Recorder struct {
	OperationDuration *prometheus.HistogramVec
	Operations        *prometheus.CounterVec
	WorldsScored      prometheus.Counter
	WorldsPositive    prometheus.Counter
}

// New registers the pedigreecore metrics with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pedigreecore_operation_duration_seconds",
			Help:    "Duration of engine and service operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pedigreecore_operations_total",
			Help: "Engine and service operations by outcome",
		}, []string{"operation", "status"}),
		WorldsScored: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedigreecore_worlds_scored_total",
			Help: "Evidence-consistent worlds scored by the engine",
		}),
		WorldsPositive: factory.NewCounter(prometheus.CounterOpts{
			Name: "pedigreecore_worlds_positive_total",
			Help: "Scored worlds with non-zero joint probability",
		}),
	}
}

// Observe records one operation outcome.
func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if r == nil || operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	r.Operations.WithLabelValues(operation, status).Inc()
}

// ObserveWorlds adds the world counts of one engine run.
func (r *Recorder) ObserveWorlds(_ context.Context, scored, positive uint64) {
	if r == nil {
		return
	}
	r.WorldsScored.Add(float64(scored))
	r.WorldsPositive.Add(float64(positive))
}

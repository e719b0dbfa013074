package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics manages the Prometheus metrics for the evaluation pipeline.
type Metrics struct {
	Evaluations        *prometheus.CounterVec
	EvaluationLatency  *prometheus.HistogramVec
	AuditWriteFailures prometheus.Counter
	BatchFollowers     prometheus.Histogram
}

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crowdlens_evaluations_total",
				Help: "Total number of follower evaluations by action and result.",
			},
			[]string{"action", "result"},
		),
		EvaluationLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crowdlens_evaluation_latency_seconds",
				Help:    "Latency of single follower evaluations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		AuditWriteFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crowdlens_audit_write_failures_total",
				Help: "Total number of failed audit sink appends.",
			},
		),
		BatchFollowers: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crowdlens_batch_followers",
				Help:    "Number of followers per batch evaluation.",
				Buckets: []float64{1, 10, 50, 100, 500, 1000},
			},
		),
	}
}

// RecordEvaluation records metrics for one completed evaluation.
func (m *Metrics) RecordEvaluation(action, result string, duration time.Duration) {
	m.Evaluations.WithLabelValues(action, result).Inc()
	m.EvaluationLatency.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordAuditWriteFailure records a failed audit append.
func (m *Metrics) RecordAuditWriteFailure() {
	m.AuditWriteFailures.Inc()
}

// RecordBatch records the size of a batch evaluation.
func (m *Metrics) RecordBatch(size int) {
	m.BatchFollowers.Observe(float64(size))
}

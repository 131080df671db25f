package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the evaluation pipeline.
type Metrics struct {
	// Evaluation outcomes by decision and case type label
	EvaluationOutcome *prometheus.CounterVec

	// Full pipeline latency per proposal
	EvaluateLatency prometheus.Histogram

	// Rules triggered per evaluation
	TriggeredRules prometheus.Histogram

	// Configuration snapshot rebuilds
	SnapshotRebuilds prometheus.Counter
}

// New creates a Metrics instance with all pipeline metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		EvaluationOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "insurestp_evaluation_outcomes_total",
			Help: "Total evaluation outcomes by STP decision and case type",
		}, []string{"decision", "case_type"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insurestp_evaluation_duration_seconds",
			Help:    "Duration of full proposal evaluation including scorecards and grids",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		TriggeredRules: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "insurestp_evaluation_triggered_rules",
			Help:    "Number of rules triggered per evaluation",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		}),

		SnapshotRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Name: "insurestp_snapshot_rebuilds_total",
			Help: "Total configuration snapshot rebuilds after cache misses or invalidations",
		}),
	}
}

// RecordEvaluation records one completed evaluation.
func (m *Metrics) RecordEvaluation(decision, caseType string, triggered int, d time.Duration) {
	if m != nil {
		m.EvaluationOutcome.WithLabelValues(decision, caseType).Inc()
		m.TriggeredRules.Observe(float64(triggered))
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

// RecordSnapshotRebuild records one snapshot rebuild.
func (m *Metrics) RecordSnapshotRebuild() {
	if m != nil {
		m.SnapshotRebuilds.Inc()
	}
}

// Package metrics exposes Prometheus instrumentation for validation sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dshills/reqguard/internal/schema"
)

// Metrics records state machine and extraction events. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	// Terminal sessions by loan type and result
	Sessions *prometheus.CounterVec

	// State machine edges taken
	Transitions *prometheus.CounterVec

	// Extraction latency by extractor
	ExtractionLatency *prometheus.HistogramVec

	// Failed extraction attempts by extractor
	ExtractionFailures *prometheus.CounterVec

	// Final confidence scores
	Confidence prometheus.Histogram

	// Sessions held by the server
	Live prometheus.Gauge
}

// New creates and registers all metrics with reg. A nil reg registers with
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqguard_sessions_total",
			Help: "Total sessions that ended, by loan type and final state",
		}, []string{"loan_type", "state"}), // state: auto_forwarded, warned_forward, aborted, abandoned

		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqguard_transitions_total",
			Help: "Total state machine transitions by source and target state",
		}, []string{"from", "to"}),

		ExtractionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "reqguard_extraction_duration_seconds",
			Help:    "Duration of requirements extraction by extractor",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"extractor"}),

		ExtractionFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "reqguard_extraction_failures_total",
			Help: "Total failed extraction attempts by extractor",
		}, []string{"extractor"}),

		Confidence: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "reqguard_confidence_score",
			Help:    "Confidence score of sessions at their terminal state",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95, 1},
		}),

		Live: f.NewGauge(prometheus.GaugeOpts{
			Name: "reqguard_live_sessions",
			Help: "Number of sessions currently held in memory",
		}),
	}
}

// Transition records one state machine edge.
func (m *Metrics) Transition(from, to schema.State) {
	if m != nil {
		m.Transitions.WithLabelValues(string(from), string(to)).Inc()
	}
}

// Extraction records the latency of one extraction attempt and counts it as
// a failure when err is non-nil.
func (m *Metrics) Extraction(extractor string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ExtractionLatency.WithLabelValues(extractor).Observe(d.Seconds())
	if err != nil {
		m.ExtractionFailures.WithLabelValues(extractor).Inc()
	}
}

// SessionEnded records a terminal session.
func (m *Metrics) SessionEnded(loanType, state string, score float64) {
	if m != nil {
		m.Sessions.WithLabelValues(loanType, state).Inc()
		m.Confidence.Observe(score)
	}
}

// SetLive sets the number of sessions held in memory.
func (m *Metrics) SetLive(n int) {
	if m != nil {
		m.Live.Set(float64(n))
	}
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/workflow"
)

var _ workflow.Recorder = (*Metrics)(nil)

func TestMetrics_Record(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition(schema.StateStart, schema.StateExtracting)
	m.Transition(schema.StateStart, schema.StateExtracting)
	m.Extraction("heuristic", 10*time.Millisecond, nil)
	m.Extraction("llm", time.Second, errors.New("boom"))
	m.SessionEnded("fha", "aborted", 0.4)
	m.SetLive(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("start", "extracting")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("heuristic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionFailures.WithLabelValues("llm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Sessions.WithLabelValues("fha", "aborted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Live))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ExtractionLatency))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition(schema.StateStart, schema.StateExtracting)
		m.Extraction("llm", time.Second, errors.New("x"))
		m.SessionEnded("va", "auto_forwarded", 1)
		m.SetLive(1)
	})
}

func TestNew_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

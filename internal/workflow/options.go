package workflow

import (
	"log/slog"
	"time"

	"github.com/dshills/reqguard/internal/extract"
	"github.com/dshills/reqguard/internal/review"
	"github.com/dshills/reqguard/internal/schema"
)

// DefaultMaxIterations is the refinement budget per session.
const DefaultMaxIterations = 3

// DefaultMaxQuestions caps the questions shown at the gate.
const DefaultMaxQuestions = 5

// Recorder receives state machine events. internal/metrics implements it.
type Recorder interface {
	Transition(from, to schema.State)
	Extraction(extractor string, d time.Duration, err error)
	SessionEnded(loanType, result string, score float64)
}

type noopRecorder struct{}

func (noopRecorder) Transition(schema.State, schema.State)   {}
func (noopRecorder) Extraction(string, time.Duration, error) {}
func (noopRecorder) SessionEnded(string, string, float64)    {}

type options struct {
	maxIterations int
	maxQuestions  int
	weights       review.Weights
	thresholds    review.Thresholds
	logger        *slog.Logger
	recorder      Recorder
	critic        extract.Critic
	now           func() time.Time
	id            string
	version       string
	input         schema.Input
}

func defaultOptions() options {
	return options{
		maxIterations: DefaultMaxIterations,
		maxQuestions:  DefaultMaxQuestions,
		weights:       review.DefaultWeights,
		thresholds:    review.DefaultThresholds,
		logger:        slog.Default(),
		recorder:      noopRecorder{},
		now:           time.Now,
		version:       "dev",
	}
}

// Option configures a Controller.
type Option func(*options)

// WithMaxIterations sets the refinement budget. Values < 0 are ignored;
// 0 means the first Refine aborts.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxIterations = n
		}
	}
}

// WithMaxQuestions caps the gate's question list. 0 means unlimited.
func WithMaxQuestions(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxQuestions = n
		}
	}
}

// WithWeights overrides the scoring weights.
func WithWeights(w review.Weights) Option {
	return func(o *options) { o.weights = w }
}

// WithThresholds overrides the tier thresholds.
func WithThresholds(t review.Thresholds) Option {
	return func(o *options) { o.thresholds = t }
}

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the event recorder. A nil recorder is ignored.
func WithMetrics(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithCritic enables the advisory critique step.
func WithCritic(c extract.Critic) Option {
	return func(o *options) { o.critic = c }
}

// WithClock replaces time.Now for transition timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithID fixes the session ID instead of generating a UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

// WithVersion sets the version stamped on outcomes.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// WithInput records where the requirements text came from on outcomes.
func WithInput(in schema.Input) Option {
	return func(o *options) { o.input = in }
}

// Package workflow sequences extraction, critique and the human gate for a
// single requirements document, bounded by a refinement budget.
package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/extract"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/review"
	"github.com/dshills/reqguard/internal/schema"
)

// feedbackSeparator joins the original text and each round of feedback.
const feedbackSeparator = "\n\nAdditional context: "

// Deps are the collaborators every Controller needs.
type Deps struct {
	Registry  *checklist.Registry
	Extractor extract.Extractor
}

// Controller drives one Session through the state machine. All methods are
// safe for concurrent use; operations are serialised, so a second extraction
// never starts while one is in flight.
type Controller struct {
	mu        sync.Mutex
	deps      Deps
	opts      options
	checklist checklist.Checklist
	s         Session
}

// New returns a Controller holding a fresh session in start.
func New(deps Deps, opts ...Option) *Controller {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if deps.Registry == nil {
		deps.Registry = checklist.Default()
	}
	return &Controller{
		deps: deps,
		opts: o,
		s: Session{
			ID:            o.id,
			LoanType:      loan.Unknown,
			MaxIterations: o.maxIterations,
			State:         schema.StateStart,
		},
	}
}

// ID returns the session ID.
func (c *Controller) ID() string { return c.s.ID }

// Session returns a snapshot of the session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.clone()
}

// Checklist returns the checklist the session is validated against.
func (c *Controller) Checklist() checklist.Checklist {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checklist
}

// Submit classifies text, fixes the loan type and runs the first extraction.
func (c *Controller) Submit(ctx context.Context, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard(schema.StateStart, "submit"); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	c.s.Text = text
	c.classify()
	c.transition(schema.StateExtracting, "classified as "+string(c.s.LoanType))
	return c.extract(ctx)
}

// Retry re-runs a failed extraction. It is only valid in extracting.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard(schema.StateExtracting, "retry"); err != nil {
		return err
	}
	if c.s.LastError == "" {
		return fmt.Errorf("%w: retry without a failed extraction", ErrInvalidTransition)
	}
	return c.extract(ctx)
}

// Decide applies a human decision. It is only valid in awaiting_human.
func (c *Controller) Decide(ctx context.Context, d GateDecision) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard(schema.StateAwaitingHuman, "decide"); err != nil {
		return err
	}

	switch d.Action {
	case ActionApprove:
		c.transition(schema.StateWarnedForward, "approved by reviewer")
		c.finish()
		return nil
	case ActionRefine:
		feedback := strings.TrimSpace(d.Feedback)
		if feedback == "" {
			return fmt.Errorf("%w: refine requires feedback", ErrInvalidGateDecision)
		}
		c.transition(schema.StateRefining, "")

		// The budget is checked before the counter moves so it can never
		// exceed the maximum.
		next := c.s.Iteration + 1
		if next > c.opts.maxIterations {
			c.s.AbortReason = ErrIterationBudgetExceeded.Error()
			c.transition(schema.StateAborted, fmt.Sprintf("refinement %d exceeds budget of %d", next, c.opts.maxIterations))
			c.finish()
			return fmt.Errorf("session %s: %w", c.s.ID, ErrIterationBudgetExceeded)
		}
		c.s.Iteration = next
		c.s.Text = c.s.Text + feedbackSeparator + feedback
		if c.s.LoanType == loan.Unknown {
			c.classify()
		}
		c.transition(schema.StateExtracting, fmt.Sprintf("refinement %d", next))
		return c.extract(ctx)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidGateDecision, d.Action)
	}
}

// Abandon stops the session. Every later operation returns ErrAbandoned.
// Abandoning twice is a no-op; abandoning a finished session is an error.
func (c *Controller) Abandon() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.Abandoned {
		return nil
	}
	if c.s.State.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrTerminal, c.s.State)
	}
	c.s.Abandoned = true
	c.opts.logger.Info("session abandoned", "session_id", c.s.ID, "state", c.s.State, "iteration", c.s.Iteration)
	c.opts.recorder.SessionEnded(string(c.s.LoanType), "abandoned", c.s.Score.Value)
	return nil
}

// GateRequest builds the request for the human gate.
func (c *Controller) GateRequest() (GateRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guard(schema.StateAwaitingHuman, "gate request"); err != nil {
		return GateRequest{}, err
	}
	return GateRequest{
		SessionID:     c.s.ID,
		LoanType:      c.s.LoanType,
		Record:        c.s.Record,
		Gaps:          append([]schema.Gap(nil), c.s.Gaps...),
		Score:         c.s.Score,
		Questions:     append([]schema.Question(nil), c.s.Questions...),
		Critique:      c.s.Critique,
		Iteration:     c.s.Iteration,
		MaxIterations: c.opts.maxIterations,
	}, nil
}

// guard checks that the session can perform op from want.
func (c *Controller) guard(want schema.State, op string) error {
	switch {
	case c.s.Abandoned:
		return fmt.Errorf("session %s: %s: %w", c.s.ID, op, ErrAbandoned)
	case c.s.State.IsTerminal():
		return fmt.Errorf("session %s: %s in %s: %w", c.s.ID, op, c.s.State, ErrTerminal)
	case c.s.State != want:
		return fmt.Errorf("session %s: %s in %s (want %s): %w", c.s.ID, op, c.s.State, want, ErrInvalidTransition)
	}
	return nil
}

// classify assigns the loan type. Only an Unknown session is reclassified.
func (c *Controller) classify() {
	d := loan.Detect(c.s.Text)
	c.s.Detected = d.Detected()
	if c.s.LoanType != loan.Unknown && c.s.LoanType != "" {
		return
	}
	c.s.LoanType = d.Primary
	c.checklist = c.deps.Registry.For(d.Primary)
}

// extract runs the extractor and, on success, critiques the result. On
// failure the session stays in extracting.
func (c *Controller) extract(ctx context.Context) error {
	name := c.deps.Extractor.Name()
	start := c.opts.now()
	rec, err := c.deps.Extractor.Extract(ctx, extract.Request{
		Text:      c.s.Text,
		LoanType:  c.s.LoanType,
		Checklist: c.checklist,
		Prior:     c.s.Record,
	})
	c.opts.recorder.Extraction(name, c.opts.now().Sub(start), err)
	if err != nil {
		c.s.LastError = err.Error()
		c.opts.logger.Warn("extraction failed", "session_id", c.s.ID, "extractor", name, "iteration", c.s.Iteration, "error", err)
		return fmt.Errorf("session %s: %w: %w", c.s.ID, ErrExtractionFailed, err)
	}
	c.s.LastError = ""
	if rec.SourceText == "" {
		rec.SourceText = c.s.Text
	}
	c.s.Record = rec
	c.transition(schema.StateCritiquing, "")
	c.critique(ctx)
	return nil
}

// critique scores the record and branches on the tier.
func (c *Controller) critique(ctx context.Context) {
	c.s.Gaps = review.FindGaps(c.s.Record, c.checklist)
	c.s.Score = review.ScoreWith(c.s.Gaps, c.checklist, c.opts.weights, c.opts.thresholds)
	c.s.Questions = review.Questions(c.s.Gaps, c.opts.maxQuestions)
	c.s.Revisions = append(c.s.Revisions, Revision{
		Iteration: c.s.Iteration,
		Text:      c.s.Text,
		Record:    c.s.Record,
		Score:     c.s.Score,
	})

	if c.opts.critic != nil {
		narrative, err := c.opts.critic.Critique(ctx, extract.CritiqueRequest{
			LoanType: c.s.LoanType,
			Record:   c.s.Record,
			Gaps:     c.s.Gaps,
		})
		if err != nil {
			c.opts.logger.Warn("critique failed", "session_id", c.s.ID, "error", err)
			c.s.Warnings = append(c.s.Warnings, "critique unavailable: "+err.Error())
		} else {
			c.s.Critique = narrative
		}
	}

	note := fmt.Sprintf("score %.2f", c.s.Score.Value)
	switch c.s.Score.Tier {
	case schema.TierComplete:
		c.transition(schema.StateAutoForwarded, note)
		c.finish()
	case schema.TierPartial:
		c.transition(schema.StateWarnedForward, note)
		c.finish()
	default:
		c.transition(schema.StateAwaitingHuman, note)
	}
}

func (c *Controller) transition(to schema.State, note string) {
	from := c.s.State
	c.s.State = to
	c.s.Transitions = append(c.s.Transitions, schema.Transition{
		From:      from,
		To:        to,
		Iteration: c.s.Iteration,
		At:        c.opts.now(),
		Note:      note,
	})
	c.opts.recorder.Transition(from, to)
	c.opts.logger.Debug("transition", "session_id", c.s.ID, "from", from, "to", to, "iteration", c.s.Iteration)
}

func (c *Controller) finish() {
	c.opts.recorder.SessionEnded(string(c.s.LoanType), string(c.s.State), c.s.Score.Value)
	c.opts.logger.Info("session finished",
		"session_id", c.s.ID,
		"loan_type", c.s.LoanType,
		"state", c.s.State,
		"score", c.s.Score.Value,
		"tier", c.s.Score.Tier,
		"iterations", c.s.Iteration,
	)
}

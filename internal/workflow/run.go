package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dshills/reqguard/internal/schema"
)

// RunOptions controls the synchronous driver.
type RunOptions struct {
	// ExtractAttempts is how many times a failed extraction is retried
	// before the session is abandoned. Default 2.
	ExtractAttempts int
	// RetryDelay is the pause between extraction retries.
	RetryDelay time.Duration
	// DecisionAttempts is how many invalid gate decisions are tolerated
	// before giving up. Default 3.
	DecisionAttempts int
}

func (o RunOptions) withDefaults() RunOptions {
	if o.ExtractAttempts <= 0 {
		o.ExtractAttempts = 2
	}
	if o.DecisionAttempts <= 0 {
		o.DecisionAttempts = 3
	}
	return o
}

// Run drives c from start to a terminal state, asking gate whenever the
// session waits for a human. On ErrIterationBudgetExceeded the aborted
// outcome is returned together with the error. Any other error abandons the
// session.
func Run(ctx context.Context, c *Controller, text string, gate Gate, opts RunOptions) (*schema.Outcome, error) {
	opts = opts.withDefaults()

	err := c.Submit(ctx, text)
	for {
		if errors.Is(err, ErrExtractionFailed) {
			err = retryExtraction(ctx, c, err, opts)
		}
		if err != nil {
			if errors.Is(err, ErrIterationBudgetExceeded) {
				o, _ := c.Outcome()
				return o, err
			}
			_ = c.Abandon()
			return nil, err
		}
		if o, done := c.Outcome(); done {
			return o, nil
		}
		err = decide(ctx, c, gate, opts)
	}
}

func retryExtraction(ctx context.Context, c *Controller, err error, opts RunOptions) error {
	for i := 0; i < opts.ExtractAttempts && errors.Is(err, ErrExtractionFailed); i++ {
		if opts.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(opts.RetryDelay):
			}
		}
		c.opts.logger.Info("retrying extraction", "session_id", c.ID(), "attempt", i+1)
		err = c.Retry(ctx)
	}
	return err
}

func decide(ctx context.Context, c *Controller, gate Gate, opts RunOptions) error {
	req, err := c.GateRequest()
	if err != nil {
		return err
	}
	for i := 0; i < opts.DecisionAttempts; i++ {
		d, gerr := gate.Decide(ctx, req)
		if gerr != nil {
			return fmt.Errorf("gate: %w", gerr)
		}
		err = c.Decide(ctx, d)
		if !errors.Is(err, ErrInvalidGateDecision) {
			return err
		}
		c.opts.logger.Warn("invalid gate decision", "session_id", c.ID(), "error", err)
	}
	return err
}

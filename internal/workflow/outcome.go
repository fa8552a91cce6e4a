package workflow

import (
	"github.com/dshills/reqguard/internal/review"
	"github.com/dshills/reqguard/internal/schema"
)

// ToolName is stamped on every outcome.
const ToolName = "reqguard"

// Outcome returns the terminal payload. ok is false until the session has
// reached a terminal state.
func (c *Controller) Outcome() (*schema.Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.s.State.IsTerminal() {
		return nil, false
	}
	return c.view(), true
}

// View returns a progress snapshot in outcome form, whatever the state.
func (c *Controller) View() *schema.Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view()
}

func (c *Controller) view() *schema.Outcome {
	detected := make([]string, len(c.s.Detected))
	for i, t := range c.s.Detected {
		detected[i] = string(t)
	}
	gaps := append([]schema.Gap{}, c.s.Gaps...)
	questions := append([]schema.Question{}, c.s.Questions...)

	o := &schema.Outcome{
		Tool:          ToolName,
		Version:       c.opts.version,
		SessionID:     c.s.ID,
		Input:         c.opts.input,
		LoanType:      string(c.s.LoanType),
		DetectedTypes: detected,
		State:         c.s.State,
		Iterations:    c.s.Iteration,
		MaxIterations: c.opts.maxIterations,
		Score:         c.s.Score,
		Summary:       review.Counts(gaps, c.checklist.Len()),
		Record:        c.s.Record,
		Gaps:          gaps,
		Questions:     questions,
		Critique:      c.s.Critique,
		Warnings:      append([]string(nil), c.s.Warnings...),
		AbortReason:   c.s.AbortReason,
		Transitions:   append([]schema.Transition(nil), c.s.Transitions...),
		Meta:          schema.Meta{Extractor: c.deps.Extractor.Name()},
	}
	if c.s.Record != nil && c.s.Record.Extractor != o.Meta.Extractor {
		o.Meta.Model = c.s.Record.Extractor
	}
	return o
}

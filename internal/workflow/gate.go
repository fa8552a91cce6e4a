package workflow

import (
	"context"

	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// Action is the kind of decision a human makes at the gate.
type Action string

const (
	ActionApprove Action = "approve"
	ActionRefine  Action = "refine"
)

// GateDecision is the human's answer. Feedback is required for Refine.
type GateDecision struct {
	Action   Action `json:"action"`
	Feedback string `json:"feedback,omitempty"`
}

// Approve forwards the record as-is.
func Approve() GateDecision { return GateDecision{Action: ActionApprove} }

// Refine asks for another iteration with feedback merged into the input.
func Refine(feedback string) GateDecision {
	return GateDecision{Action: ActionRefine, Feedback: feedback}
}

// GateRequest is everything a human needs to decide.
type GateRequest struct {
	SessionID     string                     `json:"session_id"`
	LoanType      loan.Type                  `json:"loan_type"`
	Record        *schema.RequirementsRecord `json:"record"`
	Gaps          []schema.Gap               `json:"gaps"`
	Score         schema.ConfidenceScore     `json:"score"`
	Questions     []schema.Question          `json:"questions"`
	Critique      string                     `json:"critique,omitempty"`
	Iteration     int                        `json:"iteration"`
	MaxIterations int                        `json:"max_iterations"`
}

// RemainingRefinements is how many more Refine decisions will be accepted
// before the session aborts.
func (r GateRequest) RemainingRefinements() int {
	return max(r.MaxIterations-r.Iteration, 0)
}

// Gate asks a human for a decision. Implementations may block.
type Gate interface {
	Decide(ctx context.Context, req GateRequest) (GateDecision, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, req GateRequest) (GateDecision, error)

func (f GateFunc) Decide(ctx context.Context, req GateRequest) (GateDecision, error) {
	return f(ctx, req)
}

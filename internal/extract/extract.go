// Package extract turns free-text requirements into a RequirementsRecord
// keyed by checklist item.
package extract

import (
	"context"
	"errors"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// ErrEmptyText is returned when there is nothing to extract from.
var ErrEmptyText = errors.New("requirements text is empty")

// Request is one extraction. Prior is the record from the previous
// iteration, nil on the first pass.
type Request struct {
	Text      string
	LoanType  loan.Type
	Checklist checklist.Checklist
	Prior     *schema.RequirementsRecord
}

// Extractor produces a new record for each call. Implementations never
// modify Prior.
type Extractor interface {
	// Name labels the extractor in metrics and outcome meta.
	Name() string
	Extract(ctx context.Context, req Request) (*schema.RequirementsRecord, error)
}

// CritiqueRequest carries what the critic needs to write its narrative.
type CritiqueRequest struct {
	LoanType loan.Type
	Record   *schema.RequirementsRecord
	Gaps     []schema.Gap
}

// Critic writes an advisory narrative. Its output never affects scoring.
type Critic interface {
	Critique(ctx context.Context, req CritiqueRequest) (string, error)
}

// keys returns the checklist keys in order.
func keys(c checklist.Checklist) []string {
	out := make([]string, len(c.Items))
	for i, it := range c.Items {
		out[i] = it.Key
	}
	return out
}

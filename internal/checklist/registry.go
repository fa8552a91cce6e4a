package checklist

import (
	"fmt"

	"github.com/dshills/reqguard/internal/loan"
)

// Registry maps loan types to checklists. It is built once and never
// modified afterwards, so any number of sessions may read it concurrently.
type Registry struct {
	lists map[loan.Type]Checklist
}

// NewRegistry builds the registry from the built-in tables, then applies
// overrides in order. A later override replaces an earlier one for the same
// loan type.
func NewRegistry(overrides ...map[loan.Type]Checklist) (*Registry, error) {
	lists := builtins()
	for _, o := range overrides {
		for t, c := range o {
			c.LoanType = t
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("override: %w", err)
			}
			lists[t] = clone(c)
		}
	}
	return &Registry{lists: lists}, nil
}

// Default returns a registry with only the built-in checklists.
func Default() *Registry {
	return &Registry{lists: builtins()}
}

// For returns the checklist for t. Unknown and unrecognised types get the
// minimal generic checklist. The returned value is a copy.
func (r *Registry) For(t loan.Type) Checklist {
	if c, ok := r.lists[t]; ok {
		return clone(c)
	}
	return clone(r.lists[loan.Unknown])
}

// Types returns the loan types with a checklist, in priority order followed
// by Unknown.
func (r *Registry) Types() []loan.Type {
	out := make([]loan.Type, 0, len(r.lists))
	for _, t := range append(loan.Known(), loan.Unknown) {
		if _, ok := r.lists[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

func builtins() map[loan.Type]Checklist {
	return map[loan.Type]Checklist{
		loan.FHA:          fha(),
		loan.VA:           va(),
		loan.Conventional: conventional(),
		loan.USDA:         usda(),
		loan.Jumbo:        jumbo(),
		loan.Reverse:      reverse(),
		loan.Unknown:      generic(),
	}
}

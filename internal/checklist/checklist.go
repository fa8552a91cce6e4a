// Package checklist holds the regulatory checklists requirements are
// validated against, one per loan type.
package checklist

import (
	"fmt"
	"strings"

	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// Kind selects the plausibility check applied to an extracted value.
type Kind string

const (
	KindText        Kind = "text"
	KindAmount      Kind = "amount"
	KindPercent     Kind = "percent"
	KindCreditScore Kind = "credit_score"
	KindMonths      Kind = "months"
	KindYears       Kind = "years"
)

// IsValidKind reports whether k is a known value kind.
func IsValidKind(k Kind) bool {
	switch k {
	case KindText, KindAmount, KindPercent, KindCreditScore, KindMonths, KindYears:
		return true
	}
	return false
}

// Item is one field a requirements document is expected to cover.
type Item struct {
	Key      string          `yaml:"key" json:"key"`
	Label    string          `yaml:"label" json:"label"`
	Category schema.Category `yaml:"category" json:"category"`
	Required bool            `yaml:"required" json:"required"`
	Priority schema.Priority `yaml:"priority" json:"priority"`
	Kind     Kind            `yaml:"kind" json:"kind"`
	Question string          `yaml:"question" json:"question"`
}

// Checklist is the ordered set of items for one loan type. Order matters:
// gaps and questions are always reported in checklist order.
type Checklist struct {
	LoanType loan.Type `json:"loan_type"`
	Items    []Item    `json:"items"`
}

// Item returns the item with the given key.
func (c Checklist) Item(key string) (Item, bool) {
	for _, it := range c.Items {
		if it.Key == key {
			return it, true
		}
	}
	return Item{}, false
}

// Len returns the number of items.
func (c Checklist) Len() int { return len(c.Items) }

// RequiredCount returns how many items are required.
func (c Checklist) RequiredCount() int {
	n := 0
	for _, it := range c.Items {
		if it.Required {
			n++
		}
	}
	return n
}

// Validate checks structural rules: non-empty, unique keys, known kinds,
// categories and priorities.
func (c Checklist) Validate() error {
	if len(c.Items) == 0 {
		return fmt.Errorf("checklist %s: no items", c.LoanType)
	}
	seen := make(map[string]bool, len(c.Items))
	for i, it := range c.Items {
		prefix := fmt.Sprintf("checklist %s: item[%d]", c.LoanType, i)
		if it.Key == "" {
			return fmt.Errorf("%s: key is required", prefix)
		}
		if seen[it.Key] {
			return fmt.Errorf("%s: duplicate key %q", prefix, it.Key)
		}
		seen[it.Key] = true
		if it.Label == "" {
			return fmt.Errorf("%s (%s): label is required", prefix, it.Key)
		}
		if !IsValidKind(it.Kind) {
			return fmt.Errorf("%s (%s): unknown kind %q", prefix, it.Key, it.Kind)
		}
		if !schema.IsValidCategory(it.Category) {
			return fmt.Errorf("%s (%s): unknown category %q", prefix, it.Key, it.Category)
		}
		if schema.PriorityOrdinal(it.Priority) < 0 {
			return fmt.Errorf("%s (%s): invalid priority %q", prefix, it.Key, it.Priority)
		}
	}
	return nil
}

// FormatForPrompt returns the checklist as a bullet list suitable for
// injection into an LLM prompt.
func (c Checklist) FormatForPrompt() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Loan type: %s\n", c.LoanType))
	sb.WriteString("\nChecklist fields (use these keys exactly):\n")
	for _, it := range c.Items {
		req := "optional"
		if it.Required {
			req = "required"
		}
		sb.WriteString(fmt.Sprintf("- %s (%s, %s): %s\n", it.Key, req, it.Kind, it.Label))
	}
	return sb.String()
}

func clone(c Checklist) Checklist {
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return Checklist{LoanType: c.LoanType, Items: items}
}

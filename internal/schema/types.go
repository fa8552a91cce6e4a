package schema

import (
	"sort"
	"strings"
)

// Category groups checklist items by regulatory concern.
type Category string

const (
	CategoryLoanProduct Category = "loan_product"
	CategoryBorrower    Category = "borrower"
	CategoryProperty    Category = "property"
	CategoryCompliance  Category = "compliance"
	CategoryInsurance   Category = "insurance"
	CategoryIncome      Category = "income"
	CategoryDisclosure  Category = "disclosure"
	CategoryEligibility Category = "eligibility"
)

// IsValidCategory reports whether c is one of the defined categories.
func IsValidCategory(c Category) bool {
	switch c {
	case CategoryLoanProduct,
		CategoryBorrower,
		CategoryProperty,
		CategoryCompliance,
		CategoryInsurance,
		CategoryIncome,
		CategoryDisclosure,
		CategoryEligibility:
		return true
	}
	return false
}

// Priority is how urgently a checklist item must be answered.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityOrdinal returns the numeric ordering for a priority.
// low(0) < medium(1) < high(2) < critical(3). Returns -1 for an unrecognised
// priority.
func PriorityOrdinal(p Priority) int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return -1
	}
}

// GapSeverity distinguishes an absent field from one that is present but
// implausible.
type GapSeverity string

const (
	GapMissing   GapSeverity = "missing"
	GapAmbiguous GapSeverity = "ambiguous"
)

// Tier is the routing band a confidence score falls into.
type Tier string

const (
	TierComplete Tier = "complete"
	TierPartial  Tier = "partial"
	TierClarify  Tier = "clarify"
)

// TierOrdinal orders tiers for --fail-on comparison.
// complete(0) < partial(1) < clarify(2). Returns -1 for an unrecognised tier.
func TierOrdinal(t Tier) int {
	switch t {
	case TierComplete:
		return 0
	case TierPartial:
		return 1
	case TierClarify:
		return 2
	default:
		return -1
	}
}

// FieldValue is one extracted requirement. Values carries structured
// sub-values (e.g. front-end and back-end DTI) when the extractor finds them.
type FieldValue struct {
	Text   string            `json:"text"`
	Values map[string]string `json:"values,omitempty"`
}

// IsEmpty reports whether the field carries no text and no sub-values.
func (v FieldValue) IsEmpty() bool {
	if strings.TrimSpace(v.Text) != "" {
		return false
	}
	for _, s := range v.Values {
		if strings.TrimSpace(s) != "" {
			return false
		}
	}
	return true
}

// Combined returns the text followed by any sub-values in key order, for
// plausibility checks that need to see everything the extractor captured.
func (v FieldValue) Combined() string {
	if len(v.Values) == 0 {
		return v.Text
	}
	keys := make([]string, 0, len(v.Values))
	for k := range v.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	if strings.TrimSpace(v.Text) != "" {
		parts = append(parts, v.Text)
	}
	for _, k := range keys {
		parts = append(parts, k+": "+v.Values[k])
	}
	return strings.TrimSpace(strings.Join(parts, "; "))
}

// RequirementsRecord is the structured view of one iteration's input.
// A refinement produces a new record; records are never edited in place.
type RequirementsRecord struct {
	Fields     map[string]FieldValue `json:"fields"`
	Summary    string                `json:"summary,omitempty"`
	SourceText string                `json:"source_text"`
	Extractor  string                `json:"extractor,omitempty"`
}

// Field returns the value for key and whether it was extracted.
func (r *RequirementsRecord) Field(key string) (FieldValue, bool) {
	if r == nil || r.Fields == nil {
		return FieldValue{}, false
	}
	v, ok := r.Fields[key]
	return v, ok
}

// Keys returns the extracted field keys in sorted order.
func (r *RequirementsRecord) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Gap is a checklist item that the current record does not satisfy.
type Gap struct {
	Key      string      `json:"key"`
	Label    string      `json:"label"`
	Category Category    `json:"category"`
	Severity GapSeverity `json:"severity"`
	Priority Priority    `json:"priority"`
	Required bool        `json:"required"`
	Question string      `json:"question,omitempty"`
	Reason   string      `json:"reason,omitempty"`
}

// ConfidenceScore is the weighted completeness of a record plus its tier.
type ConfidenceScore struct {
	Value float64 `json:"value"`
	Tier  Tier    `json:"tier"`
}

// Question is a clarifying question derived from a gap.
type Question struct {
	Key      string   `json:"key"`
	Question string   `json:"question"`
	Priority Priority `json:"priority"`
	Category Category `json:"category"`
}

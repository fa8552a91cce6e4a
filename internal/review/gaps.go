package review

import (
	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/schema"
)

// FindGaps compares a record against a checklist and returns one gap per
// item that is missing or ambiguous. Output follows checklist order, never
// extraction order, so gap lists diff cleanly between iterations.
// A nil record yields a missing gap for every item.
func FindGaps(record *schema.RequirementsRecord, c checklist.Checklist) []schema.Gap {
	gaps := make([]schema.Gap, 0, len(c.Items))
	for _, it := range c.Items {
		v, ok := record.Field(it.Key)
		if !ok || v.IsEmpty() || isPlaceholder(v.Combined()) {
			gaps = append(gaps, newGap(it, schema.GapMissing, "no value extracted"))
			continue
		}
		if reason := checkPlausible(it.Kind, v.Combined()); reason != "" {
			gaps = append(gaps, newGap(it, schema.GapAmbiguous, reason))
		}
	}
	return gaps
}

func newGap(it checklist.Item, sev schema.GapSeverity, reason string) schema.Gap {
	return schema.Gap{
		Key:      it.Key,
		Label:    it.Label,
		Category: it.Category,
		Severity: sev,
		Priority: it.Priority,
		Required: it.Required,
		Question: it.Question,
		Reason:   reason,
	}
}

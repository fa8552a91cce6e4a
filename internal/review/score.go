package review

import (
	"fmt"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/schema"
)

// Weights is the credit each item earns toward the completeness score.
type Weights struct {
	Required  float64 `yaml:"required" json:"required"`
	Optional  float64 `yaml:"optional" json:"optional"`
	Ambiguous float64 `yaml:"ambiguous" json:"ambiguous"`
}

// DefaultWeights: a present required item earns 1, a present optional item
// 0.5, an ambiguous item 0.25 and a missing item nothing.
var DefaultWeights = Weights{Required: 1, Optional: 0.5, Ambiguous: 0.25}

// Validate rejects weights that cannot produce a score in [0,1].
func (w Weights) Validate() error {
	if w.Required <= 0 {
		return fmt.Errorf("required weight must be > 0, got %g", w.Required)
	}
	if w.Optional < 0 || w.Ambiguous < 0 {
		return fmt.Errorf("weights must be >= 0")
	}
	return nil
}

// Thresholds are the lower bounds of the complete and partial tiers.
type Thresholds struct {
	Complete float64 `yaml:"complete" json:"complete"`
	Partial  float64 `yaml:"partial" json:"partial"`
}

// DefaultThresholds: >= 0.95 complete, >= 0.70 partial, anything lower
// needs clarification.
var DefaultThresholds = Thresholds{Complete: 0.95, Partial: 0.70}

// Validate requires 0 <= Partial <= Complete <= 1.
func (t Thresholds) Validate() error {
	if t.Partial < 0 || t.Complete > 1 || t.Partial > t.Complete {
		return fmt.Errorf("thresholds must satisfy 0 <= partial (%g) <= complete (%g) <= 1", t.Partial, t.Complete)
	}
	return nil
}

// Tier maps a score to its tier. Lower bounds are inclusive.
func (t Thresholds) Tier(score float64) schema.Tier {
	switch {
	case score >= t.Complete:
		return schema.TierComplete
	case score >= t.Partial:
		return schema.TierPartial
	default:
		return schema.TierClarify
	}
}

// TierFor maps a score to its tier using DefaultThresholds.
func TierFor(score float64) schema.Tier {
	return DefaultThresholds.Tier(score)
}

// Score computes the confidence score with the default weights and
// thresholds.
func Score(gaps []schema.Gap, c checklist.Checklist) schema.ConfidenceScore {
	return ScoreWith(gaps, c, DefaultWeights, DefaultThresholds)
}

// ScoreWith computes contributed weight over maximum possible weight,
// clamped to [0,1]. An item absent from gaps is present. Gaps for keys not
// in the checklist are ignored. An empty checklist scores 0.
func ScoreWith(gaps []schema.Gap, c checklist.Checklist, w Weights, t Thresholds) schema.ConfidenceScore {
	v := Completeness(gaps, c, w)
	return schema.ConfidenceScore{Value: v, Tier: t.Tier(v)}
}

// Completeness returns the raw weighted completeness in [0,1].
func Completeness(gaps []schema.Gap, c checklist.Checklist, w Weights) float64 {
	byKey := make(map[string]schema.GapSeverity, len(gaps))
	for _, g := range gaps {
		byKey[g.Key] = g.Severity
	}

	var got, total float64
	for _, it := range c.Items {
		full := w.Optional
		if it.Required {
			full = w.Required
		}
		total += full

		sev, isGap := byKey[it.Key]
		switch {
		case !isGap:
			got += full
		case sev == schema.GapAmbiguous:
			got += min(w.Ambiguous, full)
		}
	}
	if total == 0 {
		return 0
	}
	return clamp(got / total)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Counts summarises gaps by severity and priority.
func Counts(gaps []schema.Gap, checklistSize int) schema.Summary {
	s := schema.Summary{ChecklistSize: checklistSize}
	for _, g := range gaps {
		switch g.Severity {
		case schema.GapMissing:
			s.MissingCount++
		case schema.GapAmbiguous:
			s.AmbiguousCount++
		}
		switch g.Priority {
		case schema.PriorityCritical:
			s.CriticalCount++
		case schema.PriorityHigh:
			s.HighCount++
		case schema.PriorityMedium:
			s.MediumCount++
		case schema.PriorityLow:
			s.LowCount++
		}
	}
	return s
}

// FilterByPriority returns only gaps at or above the given priority.
// Order is preserved.
func FilterByPriority(gaps []schema.Gap, threshold schema.Priority) []schema.Gap {
	if threshold == schema.PriorityLow {
		return gaps
	}
	out := make([]schema.Gap, 0, len(gaps))
	for _, g := range gaps {
		if schema.PriorityOrdinal(g.Priority) >= schema.PriorityOrdinal(threshold) {
			out = append(out, g)
		}
	}
	return out
}

// Questions derives clarifying questions from gaps in checklist order.
// limit <= 0 returns one question per gap.
func Questions(gaps []schema.Gap, limit int) []schema.Question {
	out := make([]schema.Question, 0, len(gaps))
	for _, g := range gaps {
		if limit > 0 && len(out) == limit {
			break
		}
		q := g.Question
		if q == "" {
			q = fmt.Sprintf("Please specify: %s", g.Label)
		}
		if g.Severity == schema.GapAmbiguous {
			q = fmt.Sprintf("%s (current value is unclear: %s)", q, g.Reason)
		}
		out = append(out, schema.Question{
			Key:      g.Key,
			Question: q,
			Priority: g.Priority,
			Category: g.Category,
		})
	}
	return out
}

package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dshills/reqguard/internal/schema"
)

func sampleOutcome() *schema.Outcome {
	return &schema.Outcome{
		Tool:          "reqguard",
		Version:       "1.0",
		SessionID:     "0b6f7a0e-3c1d-4c5e-9a55-2d3f0c1e9b77",
		LoanType:      "FHA",
		DetectedTypes: []string{"FHA", "VA"},
		State:         schema.StateWarnedForward,
		Iterations:    1,
		MaxIterations: 3,
		Score:         schema.ConfidenceScore{Value: 0.5, Tier: schema.TierClarify},
		Summary:       schema.Summary{ChecklistSize: 16, MissingCount: 1, AmbiguousCount: 1},
		Record: &schema.RequirementsRecord{Fields: map[string]schema.FieldValue{
			"loan_type":      {Text: "FHA"},
			"dti_thresholds": {Text: "31|43", Values: map[string]string{"back_end": "43%"}},
		}},
		Gaps: []schema.Gap{
			{Key: "mip_calculation", Label: "MIP calculation rules", Severity: schema.GapMissing, Priority: schema.PriorityCritical, Reason: "no value extracted"},
			{Key: "reserves", Label: "Reserve requirements specified", Severity: schema.GapAmbiguous, Priority: schema.PriorityMedium, Reason: `vague language "as needed"`},
		},
		Questions: []schema.Question{
			{Key: "mip_calculation", Question: "How should upfront and annual MIP be calculated?", Priority: schema.PriorityCritical},
		},
		Critique: "Streamline refinance is not addressed.",
		Warnings: []string{"critique unavailable: timeout"},
		Meta:     schema.Meta{Extractor: "llm", Model: "anthropic:claude-sonnet-4-6"},
	}
}

func TestNewRenderer_JSON(t *testing.T) {
	r, err := NewRenderer("json")
	if err != nil {
		t.Fatalf("NewRenderer json: %v", err)
	}
	out, err := r.Render(sampleOutcome())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var decoded schema.Outcome
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput: %s", err, out)
	}
	if decoded.State != schema.StateWarnedForward {
		t.Errorf("state mismatch: got %q", decoded.State)
	}
	if decoded.Score.Tier != schema.TierClarify {
		t.Errorf("tier mismatch: got %q", decoded.Score.Tier)
	}
}

func TestNewRenderer_DefaultIsJSON(t *testing.T) {
	r, err := NewRenderer("")
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.Render(sampleOutcome())
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(out) {
		t.Errorf("json renderer produced invalid JSON: %s", out)
	}
}

func TestNewRenderer_Markdown(t *testing.T) {
	r, err := NewRenderer("md")
	if err != nil {
		t.Fatalf("NewRenderer md: %v", err)
	}
	out, err := r.Render(sampleOutcome())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	for _, want := range []string{
		"# ReqGuard Report",
		"**Loan type:** FHA (also detected: FHA, VA)",
		"**Confidence:** 50% (clarify)",
		"**Iterations:** 1/3",
		"| MIP calculation rules | missing | CRITICAL | no value extracted |",
		"1. How should upfront and annual MIP be calculated? *(critical)*",
		`| dti_thresholds | 31\|43; back_end: 43% |`,
		"Streamline refinance is not addressed.",
		"- critique unavailable: timeout",
		"Extractor: llm (anthropic:claude-sonnet-4-6)",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("markdown missing %q:\n%s", want, s)
		}
	}
}

func TestMarkdown_MinimalOutcome(t *testing.T) {
	r, _ := NewRenderer("md")
	out, err := r.Render(&schema.Outcome{LoanType: "Unknown", State: schema.StateAutoForwarded})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "## Gaps") || strings.Contains(s, "## Extracted Requirements") {
		t.Errorf("empty sections rendered:\n%s", s)
	}
}

func TestNewRenderer_UnknownFormat(t *testing.T) {
	_, err := NewRenderer("xml")
	if err == nil {
		t.Error("expected error for unknown format, got nil")
	}
}

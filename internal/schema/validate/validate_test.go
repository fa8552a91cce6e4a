package validate

import (
	"strings"
	"testing"
)

var allowed = []string{"loan_type", "loan_amount", "dti_thresholds", "credit_score"}

const validJSON = `{
  "fields": {
    "loan_type": "FHA",
    "loan_amount": "$100,000 - $500,000",
    "dti_thresholds": {"text": "31/43", "values": {"front_end": "31%", "back_end": "43%"}},
    "credit_score": null
  },
  "summary": "FHA purchase product for first-time buyers."
}`

func TestParseExtraction_Valid(t *testing.T) {
	r, err := ParseExtraction(validJSON, allowed)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if len(r.Fields) != 3 {
		t.Errorf("expected 3 fields (null dropped), got %d", len(r.Fields))
	}
	if r.Fields["loan_type"].Text != "FHA" {
		t.Errorf("loan_type = %q", r.Fields["loan_type"].Text)
	}
	if r.Fields["dti_thresholds"].Values["back_end"] != "43%" {
		t.Errorf("structured sub-value not decoded: %+v", r.Fields["dti_thresholds"])
	}
	if _, ok := r.Fields["credit_score"]; ok {
		t.Error("null field should be treated as not extracted")
	}
	if r.Summary == "" {
		t.Error("summary not decoded")
	}
}

func TestParseExtraction_StripsFences(t *testing.T) {
	fenced := "```json\n" + validJSON + "\n```"
	r, err := ParseExtraction(fenced, allowed)
	if err != nil {
		t.Fatalf("ParseExtraction with fences: %v", err)
	}
	if r == nil {
		t.Error("expected non-nil record")
	}
}

func TestParseExtraction_InvalidJSON(t *testing.T) {
	_, err := ParseExtraction("{not valid json}", allowed)
	if err == nil || !strings.HasPrefix(err.Error(), "JSON parse failed") {
		t.Errorf("expected JSON parse error, got %v", err)
	}
}

func TestParseExtraction_MissingFields(t *testing.T) {
	_, err := ParseExtraction(`{"summary": "x"}`, allowed)
	if err == nil {
		t.Error("expected error when fields object is absent")
	}
}

func TestParseExtraction_UnknownKey(t *testing.T) {
	_, err := ParseExtraction(`{"fields": {"balloon_payment": "yes"}}`, allowed)
	if err == nil || !strings.Contains(err.Error(), "unknown field key") {
		t.Errorf("expected unknown field key error, got %v", err)
	}
}

func TestParseExtraction_NumberKeptAsText(t *testing.T) {
	r, err := ParseExtraction(`{"fields": {"credit_score": 620}}`, allowed)
	if err != nil {
		t.Fatalf("ParseExtraction: %v", err)
	}
	if r.Fields["credit_score"].Text != "620" {
		t.Errorf("credit_score = %q, want 620", r.Fields["credit_score"].Text)
	}
}

func TestParseExtraction_ArrayRejected(t *testing.T) {
	_, err := ParseExtraction(`{"fields": {"loan_type": ["FHA", "VA"]}}`, allowed)
	if err == nil {
		t.Error("expected error for array value")
	}
}

func TestParseCritique(t *testing.T) {
	got, err := ParseCritique("```\nMissing MIP rules.\n```")
	if err != nil {
		t.Fatalf("ParseCritique: %v", err)
	}
	if got != "Missing MIP rules." {
		t.Errorf("got %q", got)
	}
	if _, err := ParseCritique("   "); err == nil {
		t.Error("expected error for empty critique")
	}
}

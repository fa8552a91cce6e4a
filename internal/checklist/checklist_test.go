package checklist

import (
	"strings"
	"testing"

	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func TestBuiltins_AllValid(t *testing.T) {
	r := Default()
	for _, lt := range r.Types() {
		t.Run(string(lt), func(t *testing.T) {
			c := r.For(lt)
			if err := c.Validate(); err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if c.LoanType != lt {
				t.Errorf("LoanType = %q, want %q", c.LoanType, lt)
			}
		})
	}
}

func TestRegistry_TypesCoversEveryLoanType(t *testing.T) {
	got := Default().Types()
	if len(got) != len(loan.Known())+1 {
		t.Fatalf("Types() = %v, want every known type plus Unknown", got)
	}
	if got[len(got)-1] != loan.Unknown {
		t.Errorf("last type = %q, want Unknown", got[len(got)-1])
	}
}

func TestRegistry_UnknownIsMinimalGeneric(t *testing.T) {
	c := Default().For(loan.Unknown)
	want := []string{"loan_amount", "property_types", "occupancy", "borrower_eligibility"}
	if len(c.Items) != len(want) {
		t.Fatalf("generic checklist has %d items, want %d", len(c.Items), len(want))
	}
	for i, k := range want {
		if c.Items[i].Key != k {
			t.Errorf("item[%d] = %q, want %q", i, c.Items[i].Key, k)
		}
	}
}

func TestRegistry_UnrecognisedTypeFallsBackToGeneric(t *testing.T) {
	c := Default().For(loan.Type("Balloon"))
	if c.LoanType != loan.Unknown {
		t.Errorf("LoanType = %q, want Unknown", c.LoanType)
	}
}

func TestRegistry_ForReturnsCopy(t *testing.T) {
	r := Default()
	c := r.For(loan.FHA)
	c.Items[0].Label = "mutated"
	if r.For(loan.FHA).Items[0].Label == "mutated" {
		t.Error("mutating a returned checklist changed the registry")
	}
}

func TestFHA_HasInsuranceAndDTIItems(t *testing.T) {
	c := Default().For(loan.FHA)
	for _, key := range []string{"mip_calculation", "dti_thresholds"} {
		it, ok := c.Item(key)
		if !ok {
			t.Fatalf("FHA checklist missing %s", key)
		}
		if !it.Required {
			t.Errorf("%s should be required", key)
		}
	}
	mip, _ := c.Item("mip_calculation")
	if mip.Category != schema.CategoryInsurance {
		t.Errorf("mip category = %q, want insurance", mip.Category)
	}
}

func TestVA_HasEntitlementAndCreditScore(t *testing.T) {
	c := Default().For(loan.VA)
	for _, key := range []string{"entitlement", "credit_score", "funding_fee"} {
		if _, ok := c.Item(key); !ok {
			t.Errorf("VA checklist missing %s", key)
		}
	}
}

func TestValidate_DuplicateKey(t *testing.T) {
	c := Checklist{LoanType: loan.FHA, Items: []Item{itemLoanAmount, itemLoanAmount}}
	err := c.Validate()
	if err == nil || !strings.Contains(err.Error(), "duplicate key") {
		t.Errorf("expected duplicate key error, got %v", err)
	}
}

func TestValidate_UnknownKind(t *testing.T) {
	it := itemLoanAmount
	it.Kind = "currency"
	c := Checklist{LoanType: loan.FHA, Items: []Item{it}}
	if err := c.Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestValidate_Empty(t *testing.T) {
	if err := (Checklist{LoanType: loan.VA}).Validate(); err == nil {
		t.Error("expected error for empty checklist")
	}
}

func TestFormatForPrompt_ListsEveryKey(t *testing.T) {
	c := Default().For(loan.Conventional)
	out := c.FormatForPrompt()
	for _, it := range c.Items {
		if !strings.Contains(out, "- "+it.Key+" (") {
			t.Errorf("prompt missing key %s", it.Key)
		}
	}
	if !strings.Contains(out, "Loan type: Conventional") {
		t.Errorf("prompt missing loan type header: %q", out)
	}
}

func TestParseOverrides_ReplacesChecklist(t *testing.T) {
	doc := []byte(`
checklists:
  fha:
    - key: mip_calculation
      label: MIP calculation rules
      category: insurance
      required: true
      priority: critical
      question: How is MIP calculated?
    - key: loan_amount
      label: Loan amount
      category: loan_product
      required: true
      priority: critical
      kind: amount
`)
	o, err := ParseOverrides(doc)
	if err != nil {
		t.Fatalf("ParseOverrides: %v", err)
	}
	r, err := NewRegistry(o)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	c := r.For(loan.FHA)
	if c.Len() != 2 {
		t.Fatalf("FHA override has %d items, want 2", c.Len())
	}
	if c.Items[0].Kind != KindText {
		t.Errorf("default kind = %q, want text", c.Items[0].Kind)
	}
	if r.For(loan.VA).Len() == 2 {
		t.Error("VA checklist should be untouched by an FHA override")
	}
}

func TestParseOverrides_RejectsUnknownLoanType(t *testing.T) {
	_, err := ParseOverrides([]byte("checklists:\n  balloon:\n    - key: a\n      label: A\n      category: borrower\n"))
	if err == nil {
		t.Error("expected error for unknown loan type")
	}
}

func TestParseOverrides_RejectsBadCategory(t *testing.T) {
	_, err := ParseOverrides([]byte("checklists:\n  VA:\n    - key: a\n      label: A\n      category: vibes\n"))
	if err == nil {
		t.Error("expected error for unknown category")
	}
}

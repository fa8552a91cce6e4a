package loan

import (
	"testing"
)

func TestClassify_NoSignalIsUnknown(t *testing.T) {
	inputs := []string{
		"",
		"We need a login page with two-factor authentication.",
		"The valuation service must evaluate every property.",
		"Covenant terms apply to commercial leases.",
	}
	for _, in := range inputs {
		if got := Classify(in); got != Unknown {
			t.Errorf("Classify(%q) = %q, want Unknown", in, got)
		}
	}
}

func TestClassify_SingleType(t *testing.T) {
	tests := []struct {
		text string
		want Type
	}{
		{"Build an FHA origination flow with 3.5% down.", FHA},
		{"Support VA purchase loans for veterans.", VA},
		{"Conventional conforming loans sold to Fannie Mae.", Conventional},
		{"USDA guaranteed rural housing program.", USDA},
		{"Jumbo loans above the high-balance limit.", Jumbo},
		{"HECM reverse mortgage for borrowers 62+.", Reverse},
		{"Renovation under the 203(k) program.", FHA},
	}
	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			if got := Classify(tt.text); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassify_CaseInsensitive(t *testing.T) {
	if got := Classify("fha STREAMLINE refinance"); got != FHA {
		t.Errorf("got %q, want FHA", got)
	}
}

func TestClassify_HighestCardinalityWins(t *testing.T) {
	// One FHA signal vs three VA signals.
	text := "Unlike FHA, this VA product serves veterans and charges a funding fee."
	if got := Classify(text); got != VA {
		t.Errorf("got %q, want VA", got)
	}
}

func TestClassify_TieBreaksByPriority(t *testing.T) {
	tests := []struct {
		text string
		want Type
	}{
		{"Compare FHA and VA pricing.", FHA},
		{"Compare VA and conventional pricing.", VA},
		{"Compare conventional and USDA pricing.", Conventional},
		{"Compare USDA and jumbo pricing.", USDA},
		{"Compare jumbo and HECM pricing.", Jumbo},
	}
	for _, tt := range tests {
		if got := Classify(tt.text); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestDetect_ReportsAllMatchesInRankOrder(t *testing.T) {
	d := Detect("VA loans for veterans; FHA is out of scope.")
	if d.Primary != VA {
		t.Fatalf("primary = %q, want VA", d.Primary)
	}
	got := d.Detected()
	if len(got) != 2 || got[0] != VA || got[1] != FHA {
		t.Errorf("Detected() = %v, want [VA FHA]", got)
	}
	if len(d.Matches[0].Signals) != 2 {
		t.Errorf("VA signals = %v, want 2", d.Matches[0].Signals)
	}
}

func TestDetect_NoMatch(t *testing.T) {
	d := Detect("nothing relevant")
	if d.Primary != Unknown || len(d.Matches) != 0 {
		t.Errorf("Detect = %+v, want Unknown with no matches", d)
	}
}

func TestParse(t *testing.T) {
	got, err := Parse("conventional")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got != Conventional {
		t.Errorf("Parse = %q, want Conventional", got)
	}
	if _, err := Parse("balloon"); err == nil {
		t.Error("expected error for unknown loan type")
	}
}

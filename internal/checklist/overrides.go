package checklist

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// overrideFile is the on-disk shape of a checklist override document:
//
//	checklists:
//	  FHA:
//	    - key: mip_calculation
//	      label: MIP calculation rules
//	      category: insurance
//	      required: true
//	      priority: critical
//	      kind: text
//	      question: How should upfront and annual MIP be calculated?
type overrideFile struct {
	Checklists map[string][]Item `yaml:"checklists"`
}

// LoadOverrides reads replacement checklists from a YAML file. Each listed
// loan type's checklist is replaced wholesale; unlisted types keep their
// built-in checklist.
func LoadOverrides(path string) (map[loan.Type]Checklist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading checklist overrides: %w", err)
	}
	return ParseOverrides(data)
}

// ParseOverrides decodes and validates an override document.
func ParseOverrides(data []byte) (map[loan.Type]Checklist, error) {
	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing checklist overrides: %w", err)
	}
	out := make(map[loan.Type]Checklist, len(f.Checklists))
	for name, items := range f.Checklists {
		t, err := loan.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("checklist overrides: %w", err)
		}
		for i := range items {
			if items[i].Kind == "" {
				items[i].Kind = KindText
			}
			if items[i].Priority == "" {
				items[i].Priority = schema.PriorityMedium
			}
		}
		c := Checklist{LoanType: t, Items: items}
		if err := c.Validate(); err != nil {
			return nil, err
		}
		out[t] = c
	}
	return out, nil
}

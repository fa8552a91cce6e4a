package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func va() Checklist {
	items := append(core(),
		Item{
			Key: "entitlement", Label: "VA entitlement verification",
			Category: schema.CategoryEligibility, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How will VA entitlement be verified?",
		},
		Item{
			Key: "funding_fee", Label: "VA funding fee calculation",
			Category: schema.CategoryInsurance, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How should the VA funding fee be calculated, and who is exempt?",
		},
		Item{
			Key: "residual_income", Label: "Residual income test",
			Category: schema.CategoryIncome, Priority: schema.PriorityHigh, Kind: KindText,
			Question: "Which residual income table and region apply?",
		},
		itemAppraisal,
	)
	return Checklist{LoanType: loan.VA, Items: items}
}

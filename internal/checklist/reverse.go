package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func reverse() Checklist {
	items := append(core(),
		Item{
			Key: "borrower_age", Label: "Minimum borrower age",
			Category: schema.CategoryEligibility, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "What is the minimum age for the youngest borrower?",
		},
		Item{
			Key: "counseling", Label: "HUD-approved counseling requirement",
			Category: schema.CategoryDisclosure, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How will completion of HUD-approved counseling be recorded?",
		},
		Item{
			Key: "mip_calculation", Label: "HECM MIP calculation rules",
			Category: schema.CategoryInsurance, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How should initial and annual HECM MIP be calculated?",
		},
		itemFairLending,
	)
	return Checklist{LoanType: loan.Reverse, Items: items}
}

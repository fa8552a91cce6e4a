package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func usda() Checklist {
	items := append(core(),
		Item{
			Key: "income_limits", Label: "Household income limits",
			Category: schema.CategoryIncome, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How will household income be checked against the area limit?",
		},
		Item{
			Key: "eligible_area", Label: "Property eligibility area check",
			Category: schema.CategoryEligibility, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How will the property's rural eligibility be confirmed?",
		},
		Item{
			Key: "guarantee_fee", Label: "Upfront and annual guarantee fee",
			Category: schema.CategoryInsurance, Required: true, Priority: schema.PriorityHigh, Kind: KindPercent,
			Question: "What upfront and annual guarantee fees apply?",
		},
		itemStateSpecific,
	)
	return Checklist{LoanType: loan.USDA, Items: items}
}

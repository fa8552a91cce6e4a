package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func fha() Checklist {
	items := append(core(),
		Item{
			Key: "mip_calculation", Label: "MIP calculation rules",
			Category: schema.CategoryInsurance, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
			Question: "How should upfront and annual MIP be calculated?",
		},
		Item{
			Key: "fha_limits", Label: "FHA loan limits by county",
			Category: schema.CategoryLoanProduct, Required: true, Priority: schema.PriorityHigh, Kind: KindText,
			Question: "How will FHA loan limits be determined?",
		},
		Item{
			Key: "min_down_payment", Label: "Minimum down payment by credit tier",
			Category: schema.CategoryBorrower, Required: true, Priority: schema.PriorityHigh, Kind: KindPercent,
			Question: "What minimum down payment applies at each credit score tier?",
		},
		itemAppraisal,
		itemEmploymentHistory,
	)
	return Checklist{LoanType: loan.FHA, Items: items}
}

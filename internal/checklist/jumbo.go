package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func jumbo() Checklist {
	items := append(core(),
		Item{
			Key: "loan_limit_threshold", Label: "Conforming limit the product starts above",
			Category: schema.CategoryLoanProduct, Required: true, Priority: schema.PriorityCritical, Kind: KindAmount,
			Question: "Above which loan amount does the jumbo product apply?",
		},
		itemInterestRateType,
		itemAppraisal,
	)
	return Checklist{LoanType: loan.Jumbo, Items: items}
}

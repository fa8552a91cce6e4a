package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

func conventional() Checklist {
	items := append(core(),
		itemLoanTerm,
		Item{
			Key: "pmi_terms", Label: "Private mortgage insurance terms",
			Category: schema.CategoryInsurance, Priority: schema.PriorityHigh, Kind: KindText,
			Question: "When is PMI required and when can it be cancelled?",
		},
	)
	return Checklist{LoanType: loan.Conventional, Items: items}
}

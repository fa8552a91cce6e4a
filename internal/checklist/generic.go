package checklist

import (
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// generic is the common-denominator checklist used when no loan program
// could be identified.
func generic() Checklist {
	return Checklist{
		LoanType: loan.Unknown,
		Items: []Item{
			itemLoanAmount,
			{
				Key: "property_types", Label: "Property type specified",
				Category: schema.CategoryProperty, Required: true, Priority: schema.PriorityHigh, Kind: KindText,
				Question: "What property type does this product cover?",
			},
			itemOccupancy,
			{
				Key: "borrower_eligibility", Label: "Borrower eligibility criteria defined",
				Category: schema.CategoryEligibility, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
				Question: "Who is eligible to borrow under this product?",
			},
		},
	}
}

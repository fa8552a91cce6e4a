package checklist

import "github.com/dshills/reqguard/internal/schema"

// Shared items. Every loan-specific checklist starts from core() and
// appends its own program rules.

var (
	itemLoanType = Item{
		Key: "loan_type", Label: "Loan type clearly specified",
		Category: schema.CategoryLoanProduct, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
		Question: "What type of loan is this? (FHA, VA, Conventional, etc.)",
	}
	itemLoanAmount = Item{
		Key: "loan_amount", Label: "Loan amount or range specified",
		Category: schema.CategoryLoanProduct, Required: true, Priority: schema.PriorityCritical, Kind: KindAmount,
		Question: "What is the expected loan amount range?",
	}
	itemLTV = Item{
		Key: "ltv_limits", Label: "LTV limits defined",
		Category: schema.CategoryLoanProduct, Required: true, Priority: schema.PriorityHigh, Kind: KindPercent,
		Question: "What are the maximum LTV ratios for this product?",
	}
	itemDTI = Item{
		Key: "dti_thresholds", Label: "DTI thresholds defined",
		Category: schema.CategoryIncome, Required: true, Priority: schema.PriorityCritical, Kind: KindPercent,
		Question: "What are the front-end and back-end DTI limits?",
	}
	itemCreditScore = Item{
		Key: "credit_score", Label: "Minimum credit score requirements",
		Category: schema.CategoryBorrower, Required: true, Priority: schema.PriorityCritical, Kind: KindCreditScore,
		Question: "What is the minimum credit score required?",
	}
	itemIncomeVerification = Item{
		Key: "income_verification", Label: "Income verification method specified",
		Category: schema.CategoryIncome, Required: true, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "How should income be verified? (W2, tax returns, bank statements)",
	}
	itemReserves = Item{
		Key: "reserves", Label: "Reserve requirements specified",
		Category: schema.CategoryBorrower, Required: true, Priority: schema.PriorityMedium, Kind: KindMonths,
		Question: "How many months of reserves are required?",
	}
	itemPropertyTypes = Item{
		Key: "property_types", Label: "Eligible property types listed",
		Category: schema.CategoryProperty, Required: true, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "What property types are eligible? (SFR, Condo, Multi-unit)",
	}
	itemOccupancy = Item{
		Key: "occupancy", Label: "Occupancy type specified",
		Category: schema.CategoryProperty, Required: true, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "What occupancy types are allowed? (Primary, Second home, Investment)",
	}
	itemTRID = Item{
		Key: "trid_timing", Label: "TRID disclosure timing requirements",
		Category: schema.CategoryDisclosure, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
		Question: "How will TRID timing requirements be enforced?",
	}
	itemHMDA = Item{
		Key: "hmda_fields", Label: "HMDA data collection requirements",
		Category: schema.CategoryCompliance, Required: true, Priority: schema.PriorityCritical, Kind: KindText,
		Question: "Which HMDA fields need to be collected?",
	}

	itemInterestRateType = Item{
		Key: "interest_rate_type", Label: "Fixed or adjustable rate specified",
		Category: schema.CategoryLoanProduct, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "Is this a fixed-rate or adjustable-rate mortgage?",
	}
	itemLoanTerm = Item{
		Key: "loan_term", Label: "Loan term specified (15, 20, 30 years)",
		Category: schema.CategoryLoanProduct, Priority: schema.PriorityHigh, Kind: KindYears,
		Question: "What loan terms should be supported?",
	}
	itemEmploymentHistory = Item{
		Key: "employment_history", Label: "Employment history requirements",
		Category: schema.CategoryIncome, Priority: schema.PriorityMedium, Kind: KindText,
		Question: "What employment history is required?",
	}
	itemAppraisal = Item{
		Key: "appraisal", Label: "Appraisal requirements defined",
		Category: schema.CategoryProperty, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "What are the appraisal requirements?",
	}
	itemFairLending = Item{
		Key: "fair_lending", Label: "Fair lending compliance approach",
		Category: schema.CategoryCompliance, Priority: schema.PriorityCritical, Kind: KindText,
		Question: "How will fair lending compliance be ensured?",
	}
	itemStateSpecific = Item{
		Key: "state_specific", Label: "State-specific requirements noted",
		Category: schema.CategoryCompliance, Priority: schema.PriorityHigh, Kind: KindText,
		Question: "Which states will this product be offered in? Any state-specific rules?",
	}
)

func core() []Item {
	return []Item{
		itemLoanType,
		itemLoanAmount,
		itemLTV,
		itemDTI,
		itemCreditScore,
		itemIncomeVerification,
		itemReserves,
		itemPropertyTypes,
		itemOccupancy,
		itemTRID,
		itemHMDA,
	}
}

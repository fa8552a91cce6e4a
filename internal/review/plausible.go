package review

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dshills/reqguard/internal/checklist"
)

// Plausible ranges per value kind.
const (
	minLoanAmount   = 10_000
	maxLoanAmount   = 50_000_000
	minCreditScore  = 300
	maxCreditScore  = 850
	maxReserveMonth = 120
	minTermYears    = 1
	maxTermYears    = 50
)

// placeholders are values an extractor emits when it found nothing.
var placeholders = map[string]bool{
	"tbd": true, "tba": true, "n/a": true, "na": true, "none": true, "null": true,
	"unknown": true, "-": true, "?": true, "not specified": true,
	"not specified in input": true, "not mentioned": true, "not stated": true,
}

// vaguePhrases make an otherwise present value ambiguous.
var vaguePhrases = []string{
	"as needed", "as appropriate", "as applicable", "reasonable", "etc.",
	"and so on", "standard guidelines", "standard fha guidelines",
	"to be determined", "tbd", "case by case", "case-by-case",
}

var (
	amountPattern  = regexp.MustCompile(`(?i)(\$)?\s?(\d[\d,]*(?:\.\d+)?)(?:\s*(million|thousand|mm|m|k))?\b`)
	// A minus sign counts only when it does not follow a digit, so the
	// second half of "500-579" or "80-97%" stays positive.
	percentPattern = regexp.MustCompile(`(?i)(?:^|[^\d.])(-?\d+(?:\.\d+)?)\s*(?:%|percent\b)`)
	numberPattern  = regexp.MustCompile(`(?:^|[^\d.])(-?\d+(?:\.\d+)?)(\s*%)?`)
	wordNumbers    = map[string]float64{
		"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
		"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	}
	wordPattern = regexp.MustCompile(`(?i)\b(one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)\b`)
)

// isPlaceholder reports whether s carries no information.
func isPlaceholder(s string) bool {
	s = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ".")))
	return s == "" || placeholders[s]
}

// checkPlausible returns a non-empty reason when value fails the check for
// kind.
func checkPlausible(kind checklist.Kind, value string) string {
	lower := strings.ToLower(value)
	for _, p := range vaguePhrases {
		if strings.Contains(lower, p) {
			return fmt.Sprintf("vague language %q", p)
		}
	}

	switch kind {
	case checklist.KindAmount:
		amounts := parseAmounts(value)
		if len(amounts) == 0 {
			return "no dollar figure"
		}
		for _, a := range amounts {
			if a < minLoanAmount || a > maxLoanAmount {
				return fmt.Sprintf("amount $%.0f outside plausible range", a)
			}
		}
	case checklist.KindPercent:
		pcts := parsePercents(value)
		if len(pcts) == 0 {
			return "no percentage"
		}
		for _, p := range pcts {
			if p < 0 || p > 100 {
				return fmt.Sprintf("percentage %g outside [0,100]", p)
			}
		}
	case checklist.KindCreditScore:
		scores := parseScores(value)
		if len(scores) == 0 {
			return "no credit score figure"
		}
		for _, s := range scores {
			if s < minCreditScore || s > maxCreditScore {
				return fmt.Sprintf("credit score %g outside [%d,%d]", s, minCreditScore, maxCreditScore)
			}
		}
	case checklist.KindMonths:
		n := parseCounts(value)
		if len(n) == 0 {
			return "no month count"
		}
		for _, m := range n {
			if m < 0 || m > maxReserveMonth {
				return fmt.Sprintf("%g months outside [0,%d]", m, maxReserveMonth)
			}
		}
	case checklist.KindYears:
		n := parseCounts(value)
		if len(n) == 0 {
			return "no term in years"
		}
		for _, y := range n {
			if y < minTermYears || y > maxTermYears {
				return fmt.Sprintf("%g years outside [%d,%d]", y, minTermYears, maxTermYears)
			}
		}
	}
	return ""
}

// parseAmounts returns dollar figures. A bare number counts only when it has
// a magnitude suffix or a dollar sign, so "30 years" is not an amount.
func parseAmounts(s string) []float64 {
	var out []float64
	for _, m := range amountPattern.FindAllStringSubmatch(s, -1) {
		dollar, digits, suffix := m[1], m[2], strings.ToLower(m[3])
		if dollar == "" && suffix == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
		if err != nil {
			continue
		}
		switch suffix {
		case "k", "thousand":
			v *= 1_000
		case "m", "mm", "million":
			v *= 1_000_000
		}
		out = append(out, v)
	}
	return out
}

func parsePercents(s string) []float64 {
	var out []float64
	for _, m := range percentPattern.FindAllStringSubmatch(s, -1) {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// parseScores returns integers of three or more digits that are not
// percentages.
func parseScores(s string) []float64 {
	var out []float64
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		if m[2] != "" || strings.Contains(m[1], ".") {
			continue
		}
		if len(strings.TrimPrefix(m[1], "-")) < 3 {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, v)
		}
	}
	return out
}

// parseCounts returns plain numbers and spelled-out small numbers.
func parseCounts(s string) []float64 {
	var out []float64
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		if m[2] != "" {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out = append(out, v)
		}
	}
	for _, m := range wordPattern.FindAllStringSubmatch(s, -1) {
		out = append(out, wordNumbers[strings.ToLower(m[1])])
	}
	return out
}

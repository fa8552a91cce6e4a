// Package redact masks borrower PII and credentials before requirements text
// is logged or sent to a model.
package redact

import (
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

// pemPattern matches PEM key blocks across multiple lines.
var pemPattern = regexp.MustCompile(`(?s)-----BEGIN [A-Z ]+KEY-----.*?-----END [A-Z ]+KEY-----`)

type rule struct {
	name string
	re   *regexp.Regexp
}

// rules holds single-line detectors in priority order. Borrower identifiers
// come first so that "loan number: 1234567" is not half-matched by a later
// rule.
var rules = []rule{
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"account_number", regexp.MustCompile(`(?i)\b(?:account|acct|loan)\s*(?:number|num|no\.?|#)\s*[:#]?\s*\d{6,17}\b`)},
	{"routing_number", regexp.MustCompile(`(?i)\b(?:routing|aba)\s*(?:number|num|no\.?|#)?\s*[:#]?\s*\d{9}\b`)},
	{"email", regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)},
	{"phone", regexp.MustCompile(`(?:\(\d{3}\)\s?|\b\d{3}[-.])\d{3}[-.]\d{4}\b`)},
	{"aws_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"api_key", regexp.MustCompile(`(?:^|\s|["'])sk-[a-zA-Z0-9\-_]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+\.[A-Za-z0-9\-_]+`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]{20,}=*`)},
	{"password", regexp.MustCompile(`(?i)password\s*[:=]\s*\S+`)},
}

// Redact replaces known PII and secret patterns in input with [REDACTED].
// Line structure is preserved: the number of newlines in the output always
// equals the number of newlines in the input.
func Redact(input string) string {
	out, _ := RedactCount(input)
	return out
}

// RedactCount is Redact plus a count of replacements per rule name. Rules
// with no match are absent from the map.
func RedactCount(input string) (string, map[string]int) {
	counts := map[string]int{}

	input = pemPattern.ReplaceAllStringFunc(input, func(match string) string {
		counts["pem"]++
		lines := strings.Split(match, "\n")
		for i := range lines {
			lines[i] = redacted
		}
		return strings.Join(lines, "\n")
	})

	for _, r := range rules {
		input = r.re.ReplaceAllStringFunc(input, func(m string) string {
			counts[r.name]++
			// The api_key rule may capture one leading separator; keep it.
			if r.name == "api_key" && !strings.HasPrefix(m, "sk-") {
				return m[:1] + redacted
			}
			return redacted
		})
	}
	return input, counts
}

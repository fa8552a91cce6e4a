package llm

import (
	"fmt"
	"strings"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/schema"
)

const extractSystemBase = `You are a business systems analyst for mortgage lending systems.
Your job is to extract structured requirements from a BRD or user story.

Extraction rules:
- Extract ONLY what is explicitly stated or strongly implied in the input
- Do NOT invent, infer or auto-complete values that are not present
- Use the checklist keys exactly as given; never add other keys
- Use null for a field the input does not cover
- Copy numbers with their units (%, $, months, years) exactly as written
- When a field has several parts (e.g. front-end and back-end DTI), use an
  object {"text": "...", "values": {"part": "value"}}

Output rules:
- Return JSON only, no prose, no markdown fences, no explanation
- Do not include a score or any judgement of completeness; that is computed externally`

const extractSchemaExample = `{
  "fields": {
    "loan_amount": "$50,000 to $726,200",
    "dti_thresholds": {"text": "31% front-end, 43% back-end", "values": {"front_end": "31%", "back_end": "43%"}},
    "credit_score": null
  },
  "summary": "One or two sentences describing the loan product."
}`

const critiqueSystemBase = `You are a critic reviewing mortgage system requirements.
Your job is to find problems, not solutions. Be adversarial and specific.

Look for:
- Edge cases that are not covered
- Ambiguous language that will cause defects
- Missing integration points
- Regulatory gaps beyond the checklist
- Conflicts or contradictions

Respond with a short plain-text narrative. Do not restate the checklist gaps
listed in the request; they are already reported.`

// BuildExtractSystemPrompt returns the extraction system prompt for c.
func BuildExtractSystemPrompt(c checklist.Checklist) string {
	var sb strings.Builder
	sb.WriteString(extractSystemBase)
	sb.WriteString("\n\n")
	sb.WriteString(c.FormatForPrompt())
	return sb.String()
}

// BuildExtractUserPrompt wraps the requirements text and, on refinement, the
// prior record so the model can carry over fields the feedback did not touch.
func BuildExtractUserPrompt(text string, prior *schema.RequirementsRecord) string {
	var sb strings.Builder
	sb.WriteString("Extract the checklist fields from the following requirements.\n\n")
	sb.WriteString("<requirements>\n")
	sb.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("</requirements>\n")

	if prior != nil && len(prior.Fields) > 0 {
		sb.WriteString("\nFields extracted in the previous iteration (keep unless the new text changes them):\n")
		sb.WriteString("<prior>\n")
		sb.WriteString(formatFields(prior))
		sb.WriteString("</prior>\n")
	}

	sb.WriteString("\nReturn the extraction as JSON with this structure:\n")
	sb.WriteString(extractSchemaExample)
	return sb.String()
}

// BuildRepairPrompt appends a fixed error category to the original user
// prompt. The category never echoes model output back into the prompt.
func BuildRepairPrompt(userPrompt, category string) string {
	return userPrompt + fmt.Sprintf(
		"\n\nYour previous response failed schema validation (error category: %q). Return only valid JSON matching the schema above.",
		category,
	)
}

// BuildCritiqueSystemPrompt returns the critic system prompt.
func BuildCritiqueSystemPrompt() string { return critiqueSystemBase }

// BuildCritiqueUserPrompt lists the detected gaps and the extracted record.
func BuildCritiqueUserPrompt(loanType string, record *schema.RequirementsRecord, gaps []schema.Gap) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Loan type: %s\n\n", loanType)
	sb.WriteString("Checklist gaps already found:\n")
	if len(gaps) == 0 {
		sb.WriteString("- none\n")
	}
	for _, g := range gaps {
		fmt.Fprintf(&sb, "- %s (%s, %s)\n", g.Label, g.Severity, g.Priority)
	}
	sb.WriteString("\n<requirements>\n")
	if record != nil {
		sb.WriteString(record.SourceText)
		if !strings.HasSuffix(record.SourceText, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("</requirements>\n")
	if record != nil && len(record.Fields) > 0 {
		sb.WriteString("\nExtracted fields:\n")
		sb.WriteString(formatFields(record))
	}
	return sb.String()
}

func formatFields(r *schema.RequirementsRecord) string {
	var sb strings.Builder
	for _, k := range r.Keys() {
		fmt.Fprintf(&sb, "%s: %s\n", k, r.Fields[k].Combined())
	}
	return sb.String()
}

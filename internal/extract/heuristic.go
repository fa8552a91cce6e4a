package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/dshills/reqguard/internal/checklist"
	"github.com/dshills/reqguard/internal/loan"
	"github.com/dshills/reqguard/internal/schema"
)

// cues maps checklist keys to the phrases that signal the text covers them.
// Keys without an entry fall back to their own words (see cueFor).
var cues = map[string]*regexp.Regexp{
	"loan_amount":          cue(`loan amounts?|loan sizes?|loan range|maximum loan|minimum loan|amounts? (?:from|between|up to)`),
	"ltv_limits":           cue(`ltv|cltv|loan[- ]to[- ]value`),
	"dti_thresholds":       cue(`dti|debt[- ]to[- ]income|(?:front|back)[- ]end ratios?`),
	"credit_score":         cue(`credit scores?|fico|minimum score`),
	"income_verification":  cue(`income (?:verification|documentation)|verif(?:y|ied|ication of) income|w-?2s?|tax returns?|pay ?stubs?|bank statements?`),
	"reserves":             cue(`reserves?`),
	"property_types":       cue(`property types?|single[- ]family|sfr|condo(?:minium)?s?|townhomes?|townhouses?|multi[- ]unit|2-4 units?|manufactured homes?`),
	"occupancy":            cue(`occupancy|owner[- ]occupied|primary residences?|second homes?|investment propert(?:y|ies)`),
	"trid_timing":          cue(`trid|loan estimates?|closing disclosures?`),
	"hmda_fields":          cue(`hmda`),
	"interest_rate_type":   cue(`fixed[- ]rate|adjustable[- ]rate|arms?|rate type`),
	"loan_term":            cue(`loan terms?|\d+[- ]years? (?:fixed|term|mortgage|loan)|amortization`),
	"employment_history":   cue(`employment history|years? of (?:continuous )?employment|employment verification|verification of employment|voe|job history`),
	"appraisal":            cue(`appraisals?|appraised`),
	"fair_lending":         cue(`fair lending|ecoa|equal credit opportunity|fair housing`),
	"state_specific":       cue(`state[- ]specific|state laws?|state regulations?|state requirements?`),
	"mip_calculation":      cue(`mip|mortgage insurance premiums?`),
	"fha_limits":           cue(`fha (?:loan )?limits?|county (?:loan )?limits?|loan limits? by county`),
	"min_down_payment":     cue(`down[- ]?payments?|(?:%|percent) down`),
	"pmi_terms":            cue(`pmi|private mortgage insurance`),
	"entitlement":          cue(`entitlement|certificate of eligibility|coe`),
	"funding_fee":          cue(`funding fees?`),
	"residual_income":      cue(`residual income`),
	"income_limits":        cue(`income limits?|household income|area median income|ami`),
	"eligible_area":        cue(`eligible (?:rural )?areas?|eligibility maps?|rural areas?|property eligibility`),
	"guarantee_fee":        cue(`guarantee fees?|guaranty fees?`),
	"loan_limit_threshold": cue(`conforming (?:loan )?limits?|above (?:the )?conforming|exceed(?:s|ing)? (?:the )?conforming`),
	"borrower_age":         cue(`borrower age|minimum age|aged? \d+|\d+ years? (?:of age|old)`),
	"counseling":           cue(`counseling|counselling`),
	"borrower_eligibility": cue(`borrower eligibility|eligible borrowers?|borrowers? must|eligibility criteria|first[- ]time (?:home ?)?buyers?`),
}

// cue compiles a case-insensitive, word-bounded alternation.
func cue(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`)
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?;]\s+|\n+`)
	clauseSep   = regexp.MustCompile(`,\s+|\s+(?:and|but|while)\s+`)
	digit       = regexp.MustCompile(`\d`)
	splitRatio  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%?\s*/\s*(\d+(?:\.\d+)?)\s*%`)
	frontEnd    = regexp.MustCompile(`(?i)front[- ]end[^.\d]{0,20}(\d+(?:\.\d+)?\s*%)`)
	backEnd     = regexp.MustCompile(`(?i)back[- ]end[^.\d]{0,20}(\d+(?:\.\d+)?\s*%)`)
	bullet      = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
)

// Heuristic is a deterministic, offline extractor. For each checklist item it
// looks for a sentence carrying one of the item's cue phrases and records
// that sentence (or, for numeric kinds, the clause holding the figure).
type Heuristic struct{}

// NewHeuristic returns the regex-driven extractor.
func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Name() string { return "heuristic" }

func (h *Heuristic) Extract(ctx context.Context, req Request) (*schema.RequirementsRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}

	sentences := splitSentences(req.Text)
	rec := &schema.RequirementsRecord{
		Fields:     make(map[string]schema.FieldValue, len(req.Checklist.Items)),
		SourceText: req.Text,
		Extractor:  h.Name(),
	}
	for _, it := range req.Checklist.Items {
		if it.Key == "loan_type" && req.LoanType != loan.Unknown {
			rec.Fields[it.Key] = schema.FieldValue{Text: string(req.LoanType)}
			continue
		}
		if v, ok := find(sentences, it); ok {
			rec.Fields[it.Key] = v
			continue
		}
		if pv, ok := req.Prior.Field(it.Key); ok {
			rec.Fields[it.Key] = pv
		}
	}
	if len(sentences) > 0 {
		rec.Summary = sentences[0]
	}
	return rec, nil
}

func find(sentences []string, it checklist.Item) (schema.FieldValue, bool) {
	re := cueFor(it.Key)
	numeric := it.Kind != checklist.KindText

	var first string
	for _, s := range sentences {
		if !re.MatchString(s) {
			continue
		}
		if !numeric {
			return schema.FieldValue{Text: s}, true
		}
		c := clauseFor(s, re)
		if digit.MatchString(c) {
			return withParts(it.Key, c, s), true
		}
		if digit.MatchString(s) {
			return withParts(it.Key, s, s), true
		}
		if first == "" {
			first = s
		}
	}
	if first != "" {
		return schema.FieldValue{Text: first}, true
	}
	return schema.FieldValue{}, false
}

// clauseFor narrows a sentence to the clause holding the cue so that figures
// belonging to other fields do not leak into this one.
func clauseFor(sentence string, re *regexp.Regexp) string {
	for _, c := range clauseSep.Split(sentence, -1) {
		if re.MatchString(c) {
			return strings.TrimSpace(c)
		}
	}
	return sentence
}

// withParts attaches front-end and back-end DTI sub-values when present.
func withParts(key, text, sentence string) schema.FieldValue {
	v := schema.FieldValue{Text: text}
	if key != "dti_thresholds" {
		return v
	}
	parts := map[string]string{}
	if m := splitRatio.FindStringSubmatch(sentence); m != nil {
		parts["front_end"] = m[1] + "%"
		parts["back_end"] = m[2] + "%"
	}
	if m := frontEnd.FindStringSubmatch(sentence); m != nil {
		parts["front_end"] = strings.ReplaceAll(m[1], " ", "")
	}
	if m := backEnd.FindStringSubmatch(sentence); m != nil {
		parts["back_end"] = strings.ReplaceAll(m[1], " ", "")
	}
	if len(parts) > 0 {
		v.Text = sentence
		v.Values = parts
	}
	return v
}

// cueFor returns the cue for key, deriving one from the key's words for
// items added through checklist overrides.
func cueFor(key string) *regexp.Regexp {
	if re, ok := cues[key]; ok {
		return re
	}
	words := strings.FieldsFunc(key, func(r rune) bool { return r == '_' || r == '-' })
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return cue(strings.Join(words, `[\s_-]+`))
}

// splitSentences breaks text on sentence punctuation and newlines, keeping
// the terminator so phrases like "etc." survive.
func splitSentences(text string) []string {
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(bullet.ReplaceAllString(s, ""))
		if s != "" {
			out = append(out, s)
		}
	}
	start := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		end := loc[0]
		if c := text[loc[0]]; c == '.' || c == '!' || c == '?' || c == ';' {
			end++
		}
		add(text[start:end])
		start = loc[1]
	}
	add(text[start:])
	return out
}

package loan

import (
	"regexp"
	"sort"
)

type signal struct {
	name    string
	pattern *regexp.Regexp
}

func sig(name, expr string) signal {
	return signal{name: name, pattern: regexp.MustCompile(`(?i)\b(?:` + expr + `)\b`)}
}

// signals is the fixed keyword table per loan type. Patterns are word-bounded
// so that short signals such as "va" do not fire inside "value".
var signals = map[Type][]signal{
	FHA: {
		sig("fha", `fha`),
		sig("federal housing", `federal\s+housing`),
		sig("hud", `hud`),
		sig("mip", `mip`),
		sig("upfront mip", `up-?front\s+mip`),
		sig("203b", `203\(?b`),
		sig("203k", `203\(?k`),
	},
	VA: {
		sig("va", `va`),
		sig("veteran", `veterans?`),
		sig("military", `military`),
		sig("certificate of eligibility", `certificate\s+of\s+eligibility`),
		sig("coe", `coe`),
		sig("funding fee", `funding\s+fee`),
	},
	USDA: {
		sig("usda", `usda`),
		sig("rural development", `rural\s+development`),
		sig("rural housing", `rural\s+housing`),
		sig("guaranteed rural", `guaranteed\s+rural`),
	},
	Conventional: {
		sig("conventional", `conventional`),
		sig("fannie mae", `fannie\s+mae`),
		sig("freddie mac", `freddie\s+mac`),
		sig("conforming", `conforming`),
		sig("gse", `gses?`),
	},
	Jumbo: {
		sig("jumbo", `jumbo`),
		sig("non-conforming", `non-?conforming`),
		sig("high balance", `high[\s-]+balance`),
		sig("super conforming", `super\s+conforming`),
	},
	Reverse: {
		sig("reverse mortgage", `reverse\s+mortgages?`),
		sig("hecm", `hecm`),
		sig("home equity conversion", `home\s+equity\s+conversion`),
	},
}

// Match records which signals of one loan type fired.
type Match struct {
	Type    Type     `json:"type"`
	Signals []string `json:"signals"`
}

// Detection is the full classification result: the chosen type plus every
// type that matched, best first.
type Detection struct {
	Primary Type    `json:"primary"`
	Matches []Match `json:"matches,omitempty"`
}

// Detected returns the matched types in rank order.
func (d Detection) Detected() []Type {
	out := make([]Type, 0, len(d.Matches))
	for _, m := range d.Matches {
		out = append(out, m.Type)
	}
	return out
}

// Classify returns the loan type with the most distinct matching signals.
// Ties go to the earlier entry in Priority. Text with no signal yields
// Unknown.
func Classify(text string) Type {
	return Detect(text).Primary
}

// Detect classifies text and reports the matched signals of every type.
func Detect(text string) Detection {
	var matches []Match
	for _, t := range Priority {
		var hit []string
		for _, s := range signals[t] {
			if s.pattern.MatchString(text) {
				hit = append(hit, s.name)
			}
		}
		if len(hit) > 0 {
			matches = append(matches, Match{Type: t, Signals: hit})
		}
	}
	if len(matches) == 0 {
		return Detection{Primary: Unknown}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if len(matches[i].Signals) != len(matches[j].Signals) {
			return len(matches[i].Signals) > len(matches[j].Signals)
		}
		return rank(matches[i].Type) < rank(matches[j].Type)
	})
	return Detection{Primary: matches[0].Type, Matches: matches}
}

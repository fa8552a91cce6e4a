package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dshills/reqguard/internal/schema"
)

type markdownRenderer struct{}

var funcs = template.FuncMap{
	"pct":   func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"upper": strings.ToUpper,
	"inc":   func(i int) int { return i + 1 },
	"fields": func(r *schema.RequirementsRecord) []fieldRow {
		var rows []fieldRow
		for _, k := range r.Keys() {
			rows = append(rows, fieldRow{Key: k, Value: oneLine(r.Fields[k].Combined())})
		}
		return rows
	},
}

type fieldRow struct {
	Key   string
	Value string
}

// oneLine keeps table cells on a single row.
func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", `\|`)
}

var mdTemplate = template.Must(template.New("outcome").Funcs(funcs).Parse(`# ReqGuard Report

{{ if .SessionID }}**Session:** {{ .SessionID }}
{{ end }}**Loan type:** {{ .LoanType }}{{ if gt (len .DetectedTypes) 1 }} (also detected: {{ range $i, $t := .DetectedTypes }}{{ if $i }}, {{ end }}{{ $t }}{{ end }}){{ end }}
**Outcome:** {{ .State }}{{ if .AbortReason }} ({{ .AbortReason }}){{ end }}
**Confidence:** {{ pct .Score.Value }} ({{ .Score.Tier }})
**Iterations:** {{ .Iterations }}/{{ .MaxIterations }}
**Missing:** {{ .Summary.MissingCount }} | **Ambiguous:** {{ .Summary.AmbiguousCount }} | **Checklist items:** {{ .Summary.ChecklistSize }}
{{ if .Gaps }}
---

## Gaps

| Item | Status | Priority | Note |
|---|---|---|---|
{{ range .Gaps }}| {{ .Label }} | {{ .Severity }} | {{ upper (print .Priority) }} | {{ .Reason }} |
{{ end }}{{ end }}{{ if .Questions }}
---

## Clarifying Questions
{{ range $i, $q := .Questions }}
{{ inc $i }}. {{ $q.Question }} *({{ $q.Priority }})*{{ end }}
{{ end }}{{ if .Record }}{{ with fields .Record }}
---

## Extracted Requirements

| Field | Value |
|---|---|
{{ range . }}| {{ .Key }} | {{ .Value }} |
{{ end }}{{ end }}{{ end }}{{ if .Critique }}
---

## Critique

{{ .Critique }}
{{ end }}{{ if .Warnings }}
---

## Warnings
{{ range .Warnings }}
- {{ . }}{{ end }}
{{ end }}
---
*Session: {{ .SessionID }} | Extractor: {{ .Meta.Extractor }}{{ if .Meta.Model }} ({{ .Meta.Model }}){{ end }}*
`))

func (r *markdownRenderer) Render(o *schema.Outcome) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, o); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}

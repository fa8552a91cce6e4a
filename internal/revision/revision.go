// Package revision renders what changed between refinement iterations.
package revision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/reqguard/internal/schema"
	"github.com/dshills/reqguard/internal/workflow"
)

// Change is one field whose value differs between two records. An empty
// Before means the field was added; an empty After means it was dropped.
type Change struct {
	Key    string `json:"key"`
	Before string `json:"before,omitempty"`
	After  string `json:"after,omitempty"`
}

// Changes compares two records field by field, in key order.
func Changes(prev, next *schema.RequirementsRecord) []Change {
	keys := map[string]bool{}
	for _, k := range prev.Keys() {
		keys[k] = true
	}
	for _, k := range next.Keys() {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []Change
	for _, k := range sorted {
		pv, _ := prev.Field(k)
		nv, _ := next.Field(k)
		before, after := pv.Combined(), nv.Combined()
		if before != after {
			out = append(out, Change{Key: k, Before: before, After: after})
		}
	}
	return out
}

// Step is the set of field changes made by one refinement.
type Step struct {
	From    int      `json:"from"`
	To      int      `json:"to"`
	Changes []Change `json:"changes"`
}

// Steps returns the field changes for each consecutive pair of revisions,
// including pairs where nothing changed.
func Steps(revs []workflow.Revision) []Step {
	out := make([]Step, 0, max(len(revs)-1, 0))
	for i := 1; i < len(revs); i++ {
		out = append(out, Step{
			From:    revs[i-1].Iteration,
			To:      revs[i].Iteration,
			Changes: Changes(revs[i-1].Record, revs[i].Record),
		})
	}
	return out
}

// GenerateDiff returns a patch-format diff of the input text and of the
// extracted fields for each consecutive pair of revisions. Pairs with no
// change are skipped. Fewer than two revisions yield "".
func GenerateDiff(revs []workflow.Revision) string {
	if len(revs) < 2 {
		return ""
	}

	dmp := diffmatchpatch.New()
	var out strings.Builder
	for i := 1; i < len(revs); i++ {
		prev, next := revs[i-1], revs[i]

		textPatch := patchText(dmp, prev.Text, next.Text)
		fieldPatch := patchText(dmp, formatFields(prev.Record), formatFields(next.Record))
		if textPatch == "" && fieldPatch == "" {
			continue
		}

		fmt.Fprintf(&out, "# iteration %d -> %d: score %.2f (%s) -> %.2f (%s)\n",
			prev.Iteration, next.Iteration,
			prev.Score.Value, prev.Score.Tier, next.Score.Value, next.Score.Tier)
		if textPatch != "" {
			out.WriteString("## input\n")
			out.WriteString(textPatch)
			out.WriteString("\n")
		}
		if fieldPatch != "" {
			out.WriteString("## fields\n")
			out.WriteString(fieldPatch)
			out.WriteString("\n")
		}
	}
	return out.String()
}

func patchText(dmp *diffmatchpatch.DiffMatchPatch, before, after string) string {
	if before == after {
		return ""
	}
	diffs := dmp.DiffMain(before, after, false)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}

// formatFields renders a record as "key: value" lines in key order so the
// diff is stable across iterations.
func formatFields(r *schema.RequirementsRecord) string {
	var sb strings.Builder
	for _, k := range r.Keys() {
		fmt.Fprintf(&sb, "%s: %s\n", k, r.Fields[k].Combined())
	}
	return sb.String()
}

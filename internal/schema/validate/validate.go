package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dshills/reqguard/internal/schema"
)

// extraction is the JSON shape the extraction prompt asks the model for.
type extraction struct {
	Fields  map[string]json.RawMessage `json:"fields"`
	Summary string                     `json:"summary"`
}

// ParseExtraction strips markdown fences, unmarshals JSON, and validates an
// LLM extraction response. allowed is the set of checklist keys the model
// was asked to fill; any other key is rejected. Each field may be a string,
// null, or an object {"text": "...", "values": {...}}.
func ParseExtraction(raw string, allowed []string) (*schema.RequirementsRecord, error) {
	cleaned := stripFences(raw)

	var ex extraction
	if err := json.Unmarshal([]byte(cleaned), &ex); err != nil {
		return nil, fmt.Errorf("JSON parse failed: %w", err)
	}
	if ex.Fields == nil {
		return nil, fmt.Errorf("fields object is required")
	}

	ok := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		ok[k] = true
	}

	keys := make([]string, 0, len(ex.Fields))
	for k := range ex.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rec := &schema.RequirementsRecord{
		Fields:  make(map[string]schema.FieldValue, len(ex.Fields)),
		Summary: strings.TrimSpace(ex.Summary),
	}
	for _, k := range keys {
		if !ok[k] {
			return nil, fmt.Errorf("fields: unknown field key %q", k)
		}
		v, present, err := decodeField(ex.Fields[k])
		if err != nil {
			return nil, fmt.Errorf("fields.%s: %w", k, err)
		}
		if present {
			rec.Fields[k] = v
		}
	}
	return rec, nil
}

func decodeField(raw json.RawMessage) (schema.FieldValue, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return schema.FieldValue{}, false, nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return schema.FieldValue{}, false, err
		}
		return schema.FieldValue{Text: s}, true, nil
	case '{':
		var v schema.FieldValue
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return schema.FieldValue{}, false, fmt.Errorf("invalid field object: %w", err)
		}
		return v, true, nil
	default:
		// Bare numbers and booleans are kept as their literal text.
		var lit interface{}
		if err := json.Unmarshal(trimmed, &lit); err != nil {
			return schema.FieldValue{}, false, err
		}
		if _, isArr := lit.([]interface{}); isArr {
			return schema.FieldValue{}, false, fmt.Errorf("arrays are not allowed; join values into one string")
		}
		return schema.FieldValue{Text: string(trimmed)}, true, nil
	}
}

// stripFences removes leading/trailing markdown code fences (```json ... ``` or ``` ... ```).
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		// Remove first line (the fence opener)
		idx := strings.Index(s, "\n")
		if idx >= 0 {
			s = s[idx+1:]
		}
	}
	if strings.HasSuffix(s, "```") {
		idx := strings.LastIndex(s, "\n```")
		if idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// ParseCritique extracts the critique narrative, tolerating fenced or
// plain-text responses.
func ParseCritique(raw string) (string, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return "", fmt.Errorf("critique is empty")
	}
	return cleaned, nil
}

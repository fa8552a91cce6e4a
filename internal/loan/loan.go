// Package loan identifies the mortgage product a requirements document
// describes.
package loan

import (
	"fmt"
	"strings"
)

// Type is the mortgage product identifier assigned to a session.
type Type string

const (
	FHA          Type = "FHA"
	VA           Type = "VA"
	Conventional Type = "Conventional"
	USDA         Type = "USDA"
	Jumbo        Type = "Jumbo"
	Reverse      Type = "Reverse"
	Unknown      Type = "Unknown"
)

// Priority is the tie-break order used when two types match the same
// number of signals. Earlier entries win.
var Priority = []Type{FHA, VA, Conventional, USDA, Jumbo, Reverse}

// Known returns every classifiable type in priority order. Unknown is not
// included.
func Known() []Type {
	out := make([]Type, len(Priority))
	copy(out, Priority)
	return out
}

// Parse resolves a user-supplied name (case-insensitive) to a Type.
func Parse(s string) (Type, error) {
	for _, t := range append(Known(), Unknown) {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown loan type %q: valid types are FHA, VA, Conventional, USDA, Jumbo, Reverse, Unknown", s)
}

func rank(t Type) int {
	for i, p := range Priority {
		if p == t {
			return i
		}
	}
	return len(Priority)
}

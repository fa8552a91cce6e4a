package render

import (
	"encoding/json"

	"github.com/dshills/reqguard/internal/schema"
)

type jsonRenderer struct{}

func (r *jsonRenderer) Render(o *schema.Outcome) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

package ontology

import (
	"encoding/json"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
)

// Record supplies a value per ontology key.
type Record interface {
	Lookup(key string) (any, bool)
}

// MapRecord is a flat key to value record.
type MapRecord map[string]any

// Lookup implements Record.
func (r MapRecord) Lookup(key string) (any, bool) {
	v, ok := r[key]
	return v, ok
}

// normalizeValue converts numeric values to float64 and numeric slices to
// []float64. Anything else is kept as is; filters treat it as non-numeric.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, float64, []float64:
		return v
	case []any:
		out := make([]float64, 0, len(x))
		for _, item := range x {
			f, ok := graph.Numeric(item)
			if !ok {
				return v
			}
			out = append(out, f)
		}
		return out
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	}
	if f, ok := graph.Numeric(v); ok {
		return f
	}
	return v
}

package graph

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
)

// Reserved attribute keys. They are promoted fields of a node and cannot be
// set through the attribute API.
const (
	KeyID    = "id"
	KeyValue = "value"
)

// Edge type tags used across the toolkit.
const (
	EdgeTypeTree    = "tree"
	EdgeTypeLinkage = "linkage"
)

// Node represents a vertex in the graph. The id is fixed at construction.
// Value is nil, a scalar number or a []float64.
type Node struct {
	id         string
	Value      any
	attributes map[string]any
}

// NewNode creates a node with a fresh, empty attribute map.
func NewNode(id string, value any) *Node {
	return &Node{
		id:         id,
		Value:      value,
		attributes: make(map[string]any),
	}
}

// ID returns the node id.
func (n *Node) ID() string {
	return n.id
}

// SetAttribute stores an attribute. Keys "id" and "value" are rejected;
// with overwrite=false an existing key is rejected too.
func (n *Node) SetAttribute(key string, value any, overwrite bool) error {
	if key == KeyID || key == KeyValue {
		return NewError("SetAttribute").Node(n.id).Context(key).Cause(ErrReservedAttribute).Err()
	}
	if !overwrite {
		if _, exists := n.attributes[key]; exists {
			return NewError("SetAttribute").Node(n.id).Context(key).Cause(ErrAttributeExists).Err()
		}
	}
	n.attributes[key] = value
	return nil
}

// Attribute returns the attribute stored under key.
func (n *Node) Attribute(key string) (any, bool) {
	v, ok := n.attributes[key]
	return v, ok
}

// Attributes returns a copy of the attribute map.
func (n *Node) Attributes() map[string]any {
	return maps.Clone(n.attributes)
}

// Numeric returns the node value as a float64 when it is a scalar number.
// nil, vectors and non-numeric values report false.
func (n *Node) Numeric() (float64, bool) {
	return Numeric(n.Value)
}

// Clone returns a copy of the node with its own attribute map.
func (n *Node) Clone() *Node {
	c := &Node{id: n.id, Value: cloneValue(n.Value), attributes: make(map[string]any, len(n.attributes))}
	for k, v := range n.attributes {
		c.attributes[k] = cloneValue(v)
	}
	return c
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("Node(%s=%v)", n.id, n.Value)
}

// MarshalJSON encodes the node with its attributes promoted next to id and
// value. NaN and infinite values are written as null.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.attributes)+2)
	for k, v := range n.attributes {
		out[k] = v
	}
	out[KeyID] = n.id
	out[KeyValue] = encodeValue(n.Value)
	return json.Marshal(out)
}

// UnmarshalJSON decodes a node written by MarshalJSON.
func (n *Node) UnmarshalJSON(data []byte) error {
	raw := make(map[string]any)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id, ok := raw[KeyID].(string)
	if !ok || id == "" {
		return fmt.Errorf("decode node: %w: missing id", ErrInvalidType)
	}
	n.id = id
	n.Value = decodeValue(raw[KeyValue])
	n.attributes = make(map[string]any, len(raw))
	for k, v := range raw {
		if k == KeyID || k == KeyValue {
			continue
		}
		n.attributes[k] = v
	}
	return nil
}

// EdgeKey identifies an edge by its ordered endpoints.
type EdgeKey struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// String implements fmt.Stringer.
func (k EdgeKey) String() string {
	return k.Source + "->" + k.Target
}

// Edge represents a relationship between nodes
type Edge struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Weight     float64        `json:"weight"`
	Type       string         `json:"type,omitempty"`
	Directed   bool           `json:"directed"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewEdge creates a directed edge with weight 1 and an empty attribute map.
func NewEdge(source, target string) *Edge {
	return &Edge{
		Source:     source,
		Target:     target,
		Weight:     1,
		Directed:   true,
		Attributes: make(map[string]any),
	}
}

// Key returns the (source, target) identifier of the edge.
func (e *Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target}
}

// Clone returns a copy of the edge with its own attribute map.
func (e *Edge) Clone() *Edge {
	c := *e
	c.Attributes = make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		c.Attributes[k] = cloneValue(v)
	}
	return &c
}

// Numeric converts a node value to float64. nil reports false.
func Numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return math.NaN(), false
	}
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []float64:
		return append([]float64(nil), x...)
	case []any:
		return append([]any(nil), x...)
	default:
		return v
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// encodeValue replaces non-finite numbers, which JSON cannot hold, with nil.
func encodeValue(v any) any {
	switch x := v.(type) {
	case float64:
		if !finite(x) {
			return nil
		}
	case float32:
		if !finite(float64(x)) {
			return nil
		}
	case []float64:
		if slices.ContainsFunc(x, func(f float64) bool { return !finite(f) }) {
			out := make([]any, len(x))
			for i, f := range x {
				if finite(f) {
					out[i] = f
				}
			}
			return out
		}
	}
	return v
}

// decodeValue turns JSON-decoded vectors back into []float64. Null cells
// decode as NaN.
func decodeValue(v any) any {
	arr, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]float64, 0, len(arr))
	for _, item := range arr {
		if item == nil {
			out = append(out, math.NaN())
			continue
		}
		f, ok := Numeric(item)
		if !ok {
			return v
		}
		out = append(out, f)
	}
	return out
}

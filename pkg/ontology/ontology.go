// Package ontology turns a nested schema plus a flat data record into a
// populated hierarchical graph.
package ontology

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidOntology is returned for schemas that are not nested mappings.
var ErrInvalidOntology = errors.New("invalid ontology")

// Entry is one key of an ontology level together with its sub-mapping.
// A leaf has no children.
type Entry struct {
	Key      string
	Children Ontology
}

// Ontology is an ordered nested mapping of string keys. Key order is kept
// from the source document so transforms are reproducible.
type Ontology []Entry

// Len returns the total number of keys across all levels.
func (o Ontology) Len() int {
	n := 0
	for _, e := range o {
		n += 1 + e.Children.Len()
	}
	return n
}

// Keys returns every key in depth-first pre-order.
func (o Ontology) Keys() []string {
	out := make([]string, 0, o.Len())
	var walk func(Ontology)
	walk = func(level Ontology) {
		for _, e := range level {
			out = append(out, e.Key)
			walk(e.Children)
		}
	}
	walk(o)
	return out
}

// Find returns the entry stored under key at any depth.
func (o Ontology) Find(key string) (Entry, bool) {
	for _, e := range o {
		if e.Key == key {
			return e, true
		}
		if found, ok := e.Children.Find(key); ok {
			return found, true
		}
	}
	return Entry{}, false
}

// FromMap builds an ontology from generic nested maps. Go maps carry no
// order, so keys are sorted lexically at every level. Leaves may be nil or
// empty maps.
func FromMap(m map[string]any) (Ontology, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make(Ontology, 0, len(keys))
	for _, k := range keys {
		var children Ontology
		switch v := m[k].(type) {
		case nil:
		case map[string]any:
			sub, err := FromMap(v)
			if err != nil {
				return nil, err
			}
			children = sub
		default:
			return nil, fmt.Errorf("%w: key %q maps to %T, want a mapping", ErrInvalidOntology, k, v)
		}
		out = append(out, Entry{Key: k, Children: children})
	}
	return out, nil
}

// UnmarshalYAML decodes a YAML mapping keeping document order.
func (o *Ontology) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := fromYAMLNode(value)
	if err != nil {
		return err
	}
	*o = decoded
	return nil
}

func fromYAMLNode(node *yaml.Node) (Ontology, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromYAMLNode(node.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(node.Alias)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: line %d: scalar %q where a mapping was expected", ErrInvalidOntology, node.Line, node.Value)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidOntology, node.Line)
	}

	out := make(Ontology, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		children, err := fromYAMLNode(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: key, Children: children})
	}
	return out, nil
}

// UnmarshalJSON decodes a JSON object keeping document order.
func (o *Ontology) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	decoded, err := fromJSONTokens(dec)
	if err != nil {
		return err
	}
	*o = decoded
	return nil
}

func fromJSONTokens(dec *json.Decoder) (Ontology, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOntology, err)
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: unexpected %v where an object was expected", ErrInvalidOntology, tok)
	}

	var out Ontology
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOntology, err)
		}
		key, _ := keyTok.(string)
		children, err := fromJSONTokens(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{Key: key, Children: children})
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOntology, err)
	}
	return out, nil
}

// MarshalJSON writes the ontology as nested objects in key order.
func (o Ontology) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		child, err := e.Children.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(child)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode reads an ontology from r. Documents starting with '{' are read
// as JSON, anything else as YAML.
func Decode(r io.Reader) (Ontology, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var o Ontology
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		err = json.Unmarshal(data, &o)
	} else {
		err = yaml.Unmarshal(data, &o)
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// Load reads an ontology file.
func Load(path string) (Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer f.Close()
	o, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ontology %s: %w", path, err)
	}
	return o, nil
}

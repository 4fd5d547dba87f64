// Package mask implements the node mask overlay: a set of excluded node and
// edge ids that is applied read-only to a graph.
package mask

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
)

// NodeMask holds masked node ids and masked edge keys. It never mutates the
// graphs it is applied to.
type NodeMask struct {
	nodes map[string]struct{}
	edges map[graph.EdgeKey]struct{}
}

// New creates an empty mask.
func New() *NodeMask {
	return &NodeMask{
		nodes: make(map[string]struct{}),
		edges: make(map[graph.EdgeKey]struct{}),
	}
}

// MaskNode adds id to the mask.
func (m *NodeMask) MaskNode(id string) {
	m.nodes[id] = struct{}{}
}

// MaskEdge adds the edge source->target to the mask.
func (m *NodeMask) MaskEdge(source, target string) {
	m.edges[graph.EdgeKey{Source: source, Target: target}] = struct{}{}
}

// MaskCascade masks id and every tree descendant of id in h.
func (m *NodeMask) MaskCascade(h *graph.Hierarchical, id string) ([]string, error) {
	desc, err := h.Descendants(id)
	if err != nil {
		return nil, err
	}
	masked := append([]string{id}, desc...)
	for _, d := range masked {
		m.MaskNode(d)
	}
	return masked, nil
}

// IsNodeMasked reports whether id is masked.
func (m *NodeMask) IsNodeMasked(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// IsEdgeMasked reports whether source->target is masked.
func (m *NodeMask) IsEdgeMasked(source, target string) bool {
	_, ok := m.edges[graph.EdgeKey{Source: source, Target: target}]
	return ok
}

// Nodes returns the masked node ids in lexical order.
func (m *NodeMask) Nodes() []string {
	out := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Edges returns the masked edge keys ordered by source, then target.
func (m *NodeMask) Edges() []graph.EdgeKey {
	out := make([]graph.EdgeKey, 0, len(m.edges))
	for k := range m.edges {
		out = append(out, k)
	}
	slices.SortFunc(out, func(a, b graph.EdgeKey) int {
		if c := strings.Compare(a.Source, b.Source); c != 0 {
			return c
		}
		return strings.Compare(a.Target, b.Target)
	})
	return out
}

// Len returns the number of masked nodes.
func (m *NodeMask) Len() int {
	return len(m.nodes)
}

// Empty reports whether nothing is masked.
func (m *NodeMask) Empty() bool {
	return len(m.nodes) == 0 && len(m.edges) == 0
}

// Clone returns an independent copy.
func (m *NodeMask) Clone() *NodeMask {
	c := New()
	for id := range m.nodes {
		c.nodes[id] = struct{}{}
	}
	for k := range m.edges {
		c.edges[k] = struct{}{}
	}
	return c
}

// Fit materialises the masked view of g: the unmasked nodes, the edges
// whose endpoints both survive, minus the explicitly masked edges. g is not
// modified.
func (m *NodeMask) Fit(g *graph.Graph) *graph.Graph {
	sub := g.InducedSubgraph(func(id string) bool { return !m.IsNodeMasked(id) })
	for k := range m.edges {
		sub.RemoveEdge(k.Source, k.Target)
	}
	return sub
}

// Validate checks that every masked id refers to a node of g.
func (m *NodeMask) Validate(g *graph.Graph) error {
	for _, id := range m.Nodes() {
		if !g.HasNode(id) {
			return graph.NewError("Validate").Node(id).Context("masked node").Cause(graph.ErrDanglingReference).Err()
		}
	}
	for _, k := range m.Edges() {
		if !g.HasNode(k.Source) || !g.HasNode(k.Target) {
			return graph.NewError("Validate").Edge(k.Source, k.Target).Context("masked edge").Cause(graph.ErrDanglingReference).Err()
		}
	}
	return nil
}

type maskJSON struct {
	Nodes []string        `json:"nodes"`
	Edges []graph.EdgeKey `json:"edges"`
}

// MarshalJSON encodes the mask with sorted ids.
func (m *NodeMask) MarshalJSON() ([]byte, error) {
	return json.Marshal(maskJSON{Nodes: m.Nodes(), Edges: m.Edges()})
}

// UnmarshalJSON decodes a mask written by MarshalJSON.
func (m *NodeMask) UnmarshalJSON(data []byte) error {
	var raw maskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	fresh := New()
	for _, id := range raw.Nodes {
		fresh.MaskNode(id)
	}
	for _, k := range raw.Edges {
		fresh.MaskEdge(k.Source, k.Target)
	}
	*m = *fresh
	return nil
}

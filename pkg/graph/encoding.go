package graph

import (
	"encoding/json"
	"fmt"
)

// snapshot is the wire form shared by Graph and Hierarchical.
type snapshot struct {
	ID      string            `json:"id,omitempty"`
	Root    string            `json:"root,omitempty"`
	Nodes   []*Node           `json:"nodes"`
	Parents map[string]string `json:"parents,omitempty"`
	Edges   []*Edge           `json:"edges"`
}

// MarshalJSON encodes nodes and edges in insertion order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{ID: g.ID, Nodes: g.Nodes(), Edges: g.Edges()})
}

// UnmarshalJSON rebuilds a graph written by MarshalJSON.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	fresh := NewWithID(s.ID)
	for _, n := range s.Nodes {
		if err := fresh.AddNode(n); err != nil {
			return err
		}
	}
	for _, e := range s.Edges {
		if err := fresh.AddEdge(e); err != nil {
			return err
		}
	}
	*g = *fresh
	return nil
}

// MarshalJSON encodes the tree with its root and parent references.
func (h *Hierarchical) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		ID:      h.ID,
		Root:    h.root,
		Nodes:   h.Nodes(),
		Parents: h.parent,
		Edges:   h.Edges(),
	})
}

// UnmarshalJSON rebuilds a tree written by MarshalJSON. Nodes are replayed
// in insertion order, so every parent precedes its children.
func (h *Hierarchical) UnmarshalJSON(data []byte) error {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if len(s.Nodes) == 0 || s.Nodes[0].id != s.Root {
		return fmt.Errorf("decode hierarchical graph: %w: first node must be the root %q", ErrInvalidType, s.Root)
	}

	fresh, err := NewHierarchical(s.Nodes[0])
	if err != nil {
		return err
	}
	fresh.ID = s.ID
	for _, n := range s.Nodes[1:] {
		if err := fresh.AddNode(&TreeNode{Node: n, Parent: s.Parents[n.id]}); err != nil {
			return err
		}
	}
	for _, e := range s.Edges {
		if err := fresh.AddEdge(e); err != nil {
			return err
		}
	}
	*h = *fresh
	return nil
}

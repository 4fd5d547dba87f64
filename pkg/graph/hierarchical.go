package graph

import (
	"fmt"
	"slices"
)

// TreeNode is a node together with the id of its parent. Only the root of
// a Hierarchical has no parent.
type TreeNode struct {
	*Node
	Parent string
}

// Hierarchical is a Graph constrained to a tree: a single root and exactly
// one parent per non-root node. Parent/child relations are stored as id
// references in the graph's node arena, and every parent->child relation is
// materialised as a directed "tree" edge.
//
// The level index is derived state. It is rebuilt eagerly by AddNode and
// can be rebuilt explicitly with Rebuild.
type Hierarchical struct {
	*Graph

	root     string
	parent   map[string]string
	children map[string][]string

	levels  map[int][]string
	levelOf map[string]int
}

// NewHierarchical creates a tree holding only root.
func NewHierarchical(root *Node) (*Hierarchical, error) {
	h := &Hierarchical{
		Graph:    New(),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
	if err := h.Graph.AddNode(root); err != nil {
		return nil, err
	}
	h.root = root.id
	h.Rebuild()
	return h, nil
}

// AddNode attaches n under its declared parent. The parent must already be
// present; the parent's children are appended before the node and its tree
// edge are added to the graph.
func (h *Hierarchical) AddNode(n *TreeNode) error {
	if n == nil || n.Node == nil {
		return NewError("AddNode").Context("not a tree node").Cause(ErrInvalidType).Err()
	}
	if n.Parent == "" {
		return NewError("AddNode").Node(n.id).Cause(ErrOrphanNode).Err()
	}
	if !h.HasNode(n.Parent) {
		return NewError("AddNode").Node(n.id).Context("parent " + n.Parent).Cause(ErrDanglingReference).Err()
	}
	if err := h.Graph.AddNode(n.Node); err != nil {
		return err
	}

	h.children[n.Parent] = append(h.children[n.Parent], n.id)
	h.parent[n.id] = n.Parent

	e := NewEdge(n.Parent, n.id)
	e.Type = EdgeTypeTree
	if err := h.Graph.AddEdge(e); err != nil {
		return err
	}
	h.Rebuild()
	return nil
}

// AddChild is shorthand for AddNode(&TreeNode{Node: n, Parent: parent}).
func (h *Hierarchical) AddChild(parent string, n *Node) error {
	return h.AddNode(&TreeNode{Node: n, Parent: parent})
}

// AddEdge only accepts directed edges that restate an existing
// parent->child relation; they replace the stored tree edge's weight and
// attributes. Anything else would break the tree shape.
func (h *Hierarchical) AddEdge(e *Edge) error {
	if e == nil {
		return NewError("AddEdge").Context("nil edge").Cause(ErrInvalidType).Err()
	}
	if !e.Directed {
		return NewError("AddEdge").Edge(e.Source, e.Target).Context("edge must be directed").Cause(ErrInvalidEdgeType).Err()
	}
	if p, ok := h.parent[e.Target]; !ok || p != e.Source {
		if !h.HasNode(e.Source) || !h.HasNode(e.Target) {
			return NewError("AddEdge").Edge(e.Source, e.Target).Cause(ErrDanglingReference).Err()
		}
		return NewError("AddEdge").Edge(e.Source, e.Target).Context("not a parent->child edge").Cause(ErrInvalidEdgeType).Err()
	}
	if e.Type == "" {
		e.Type = EdgeTypeTree
	}
	return h.Graph.AddEdge(e)
}

// RemoveEdge rejects parent->child edges, which are fixed once a node is
// attached. Any other edge is removed as in Graph.RemoveEdge.
func (h *Hierarchical) RemoveEdge(source, target string) (bool, error) {
	if p, ok := h.parent[target]; ok && p == source {
		return false, NewError("RemoveEdge").Edge(source, target).Context("tree edge").Cause(ErrInvalidEdgeType).Err()
	}
	return h.Graph.RemoveEdge(source, target), nil
}

// Root returns the root node.
func (h *Hierarchical) Root() *Node {
	return h.nodes[h.root]
}

// RootID returns the root id.
func (h *Hierarchical) RootID() string {
	return h.root
}

// IsRoot reports whether id is the root.
func (h *Hierarchical) IsRoot(id string) bool {
	return id == h.root
}

// Parent returns the parent id of id; the root has none.
func (h *Hierarchical) Parent(id string) (string, bool) {
	p, ok := h.parent[id]
	return p, ok
}

// ChildrenOf returns the tree children of id in insertion order.
func (h *Hierarchical) ChildrenOf(id string) []string {
	return slices.Clone(h.children[id])
}

// Descendants returns every tree descendant of id in depth-first pre-order.
// Only parent->child relations are followed.
func (h *Hierarchical) Descendants(id string) ([]string, error) {
	if !h.HasNode(id) {
		return nil, NodeNotFoundError("Descendants", id)
	}
	var out []string
	var walk func(string)
	walk = func(current string) {
		for _, c := range h.children[current] {
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out, nil
}

// Rebuild recomputes the level index with a depth-first walk from the root,
// assigning level = parent's level + 1.
func (h *Hierarchical) Rebuild() {
	levels := make(map[int][]string)
	levelOf := make(map[string]int, len(h.nodes))
	var walk func(id string, level int)
	walk = func(id string, level int) {
		levels[level] = append(levels[level], id)
		levelOf[id] = level
		for _, c := range h.children[id] {
			walk(c, level+1)
		}
	}
	walk(h.root, 0)
	h.levels = levels
	h.levelOf = levelOf
}

// Level returns the distance from the root to id.
func (h *Hierarchical) Level(id string) (int, bool) {
	l, ok := h.levelOf[id]
	return l, ok
}

// PathLevel computes the level of id by walking parent references. It does
// not use the level index.
func (h *Hierarchical) PathLevel(id string) (int, error) {
	if !h.HasNode(id) {
		return 0, NodeNotFoundError("PathLevel", id)
	}
	level := 0
	for current := id; current != h.root; level++ {
		p, ok := h.parent[current]
		if !ok {
			return 0, NewError("PathLevel").Node(current).Cause(ErrOrphanNode).Err()
		}
		current = p
	}
	return level, nil
}

// NodesAtLevel returns the ids at the given level in depth-first order.
func (h *Hierarchical) NodesAtLevel(level int) []string {
	return slices.Clone(h.levels[level])
}

// Depth returns the largest level in the tree.
func (h *Hierarchical) Depth() int {
	depth := 0
	for l := range h.levels {
		depth = max(depth, l)
	}
	return depth
}

// Clone returns a structurally independent deep copy of the tree.
func (h *Hierarchical) Clone() *Hierarchical {
	c := &Hierarchical{
		Graph:    h.Graph.Clone(),
		root:     h.root,
		parent:   make(map[string]string, len(h.parent)),
		children: make(map[string][]string, len(h.children)),
	}
	for k, v := range h.parent {
		c.parent[k] = v
	}
	for k, v := range h.children {
		c.children[k] = slices.Clone(v)
	}
	c.Rebuild()
	return c
}

// String implements fmt.Stringer.
func (h *Hierarchical) String() string {
	return fmt.Sprintf("Hierarchical(root=%s, nodes=%d, depth=%d)", h.root, h.NodeCount(), h.Depth())
}

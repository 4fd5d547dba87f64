package graph

import (
	"slices"
)

// Graph is a directed graph keyed by node id. Node and edge iteration
// follows insertion order so every traversal is deterministic.
//
// Graph is NOT safe for concurrent mutation. Workers that build or link
// graphs in parallel must each own their copy (see Clone).
type Graph struct {
	ID string

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[EdgeKey]*Edge
	edgeOrder []EdgeKey
	out       map[string][]string
	in        map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		edges: make(map[EdgeKey]*Edge),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
	}
}

// NewWithID creates an empty graph carrying an identifier.
func NewWithID(id string) *Graph {
	g := New()
	g.ID = id
	return g
}

// AddNode inserts a node. nil nodes, empty ids and ids already present are
// rejected.
func (g *Graph) AddNode(n *Node) error {
	if n == nil {
		return NewError("AddNode").Context("nil node").Cause(ErrInvalidType).Err()
	}
	if n.id == "" {
		return NewError("AddNode").Context("empty id").Cause(ErrInvalidType).Err()
	}
	if _, exists := g.nodes[n.id]; exists {
		return NewError("AddNode").Node(n.id).Cause(ErrDuplicateID).Err()
	}
	if n.attributes == nil {
		n.attributes = make(map[string]any)
	}
	g.nodes[n.id] = n
	g.nodeOrder = append(g.nodeOrder, n.id)
	return nil
}

// AddEdge inserts an edge whose endpoints are both present. Adding an edge
// with an existing (source, target) key replaces its weight, type and
// attributes in place.
func (g *Graph) AddEdge(e *Edge) error {
	if e == nil {
		return NewError("AddEdge").Context("nil edge").Cause(ErrInvalidType).Err()
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return NewError("AddEdge").Edge(e.Source, e.Target).Context("missing source").Cause(ErrDanglingReference).Err()
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return NewError("AddEdge").Edge(e.Source, e.Target).Context("missing target").Cause(ErrDanglingReference).Err()
	}
	if e.Attributes == nil {
		e.Attributes = make(map[string]any)
	}

	key := e.Key()
	if _, exists := g.edges[key]; exists {
		g.edges[key] = e
		return nil
	}
	g.edges[key] = e
	g.edgeOrder = append(g.edgeOrder, key)
	g.out[e.Source] = append(g.out[e.Source], e.Target)
	g.in[e.Target] = append(g.in[e.Target], e.Source)
	return nil
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node stored under id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Edge returns the edge from source to target.
func (g *Graph) Edge(source, target string) (*Edge, bool) {
	e, ok := g.edges[EdgeKey{Source: source, Target: target}]
	return e, ok
}

// HasEdge reports whether an edge from source to target is present.
func (g *Graph) HasEdge(source, target string) bool {
	_, ok := g.edges[EdgeKey{Source: source, Target: target}]
	return ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// NodeIDs returns node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	return slices.Clone(g.nodeOrder)
}

// Nodes returns nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// EdgeKeys returns edge keys in insertion order.
func (g *Graph) EdgeKeys() []EdgeKey {
	return slices.Clone(g.edgeOrder)
}

// Edges returns edges in insertion order.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, g.edges[k])
	}
	return out
}

// Successors returns the direct successors of id in edge insertion order.
func (g *Graph) Successors(id string) []string {
	return slices.Clone(g.out[id])
}

// Predecessors returns the direct predecessors of id in edge insertion order.
func (g *Graph) Predecessors(id string) []string {
	return slices.Clone(g.in[id])
}

// Children returns the direct successors of id or, when recursive is set,
// every node reachable from id along directed edges (id itself excluded
// unless it lies on a cycle). Descendants come back in breadth-first order.
func (g *Graph) Children(id string, recursive bool) ([]string, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, NodeNotFoundError("Children", id)
	}
	if !recursive {
		return g.Successors(id), nil
	}

	visited := map[string]bool{}
	queue := slices.Clone(g.out[id])
	result := make([]string, 0, len(queue))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		result = append(result, current)
		queue = append(queue, g.out[current]...)
	}
	return result, nil
}

// Clone returns a structurally independent deep copy of the graph.
func (g *Graph) Clone() *Graph {
	c := NewWithID(g.ID)
	for _, id := range g.nodeOrder {
		c.nodes[id] = g.nodes[id].Clone()
	}
	c.nodeOrder = slices.Clone(g.nodeOrder)
	for _, k := range g.edgeOrder {
		c.edges[k] = g.edges[k].Clone()
	}
	c.edgeOrder = slices.Clone(g.edgeOrder)
	for id, succ := range g.out {
		c.out[id] = slices.Clone(succ)
	}
	for id, pred := range g.in {
		c.in[id] = slices.Clone(pred)
	}
	return c
}

// InducedSubgraph returns a new graph holding copies of the nodes for which
// keep returns true and of the edges whose endpoints are both kept.
func (g *Graph) InducedSubgraph(keep func(id string) bool) *Graph {
	sub := NewWithID(g.ID)
	for _, id := range g.nodeOrder {
		if keep(id) {
			// ids are unique in g, AddNode cannot fail
			_ = sub.AddNode(g.nodes[id].Clone())
		}
	}
	for _, k := range g.edgeOrder {
		if sub.HasNode(k.Source) && sub.HasNode(k.Target) {
			_ = sub.AddEdge(g.edges[k].Clone())
		}
	}
	return sub
}

// RemoveEdge deletes the edge from source to target if present and reports
// whether it existed.
func (g *Graph) RemoveEdge(source, target string) bool {
	key := EdgeKey{Source: source, Target: target}
	if _, ok := g.edges[key]; !ok {
		return false
	}
	delete(g.edges, key)
	g.edgeOrder = slices.DeleteFunc(g.edgeOrder, func(k EdgeKey) bool { return k == key })
	g.out[source] = removeOnce(g.out[source], target)
	g.in[target] = removeOnce(g.in[target], source)
	return true
}

func removeOnce(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}

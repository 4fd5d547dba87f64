package linkage

import (
	"math"
	"slices"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/knob"
)

// SimpleChildLinker links siblings whose values are closer than Theta. The
// edge runs from the lower value to the higher one.
type SimpleChildLinker struct {
	Theta float64
}

// NewSimpleChildLinker creates a sibling linker.
func NewSimpleChildLinker(theta float64) *SimpleChildLinker {
	return &SimpleChildLinker{Theta: theta}
}

// Kind implements Linker.
func (l *SimpleChildLinker) Kind() string {
	return KindChild
}

// Knobs implements knob.Tunable.
func (l *SimpleChildLinker) Knobs() map[string]float64 {
	return map[string]float64{"theta": l.Theta}
}

// SetKnob implements knob.Tunable. The only knob is "theta".
func (l *SimpleChildLinker) SetKnob(name string, value float64) error {
	if err := knob.CheckValue("SimpleChildLinker", name, value); err != nil {
		return err
	}
	if name != "theta" {
		return knob.Unknown("SimpleChildLinker", name)
	}
	l.Theta = value
	return nil
}

// Link implements Linker.
func (l *SimpleChildLinker) Link(h *graph.Hierarchical) ([]*graph.Edge, error) {
	return l.LinkGraph(h.Graph), nil
}

// LinkGraph compares every pair of direct successors of every node. Pairs
// are visited in lexical id order and each unordered pair is linked at most
// once. Nodes without a scalar value are skipped.
func (l *SimpleChildLinker) LinkGraph(g *graph.Graph) []*graph.Edge {
	var links []*graph.Edge
	seen := make(map[graph.EdgeKey]bool)

	for _, parent := range g.NodeIDs() {
		children := g.Successors(parent)
		slices.Sort(children)
		for i := 0; i < len(children); i++ {
			u, _ := g.Node(children[i])
			uv, ok := scalar(u)
			if !ok {
				continue
			}
			for j := i + 1; j < len(children); j++ {
				v, _ := g.Node(children[j])
				vv, ok := scalar(v)
				if !ok {
					continue
				}
				d := math.Abs(uv - vv)
				if d >= l.Theta {
					continue
				}
				src, dst := u.ID(), v.ID()
				if !precedes(src, uv, dst, vv) {
					src, dst = dst, src
				}
				key := graph.EdgeKey{Source: src, Target: dst}
				if seen[key] {
					continue
				}
				seen[key] = true
				links = append(links, newLink(src, dst, 1, d))
			}
		}
	}
	return links
}

// Apply returns a copy of g with the sibling links added. g is not modified.
func (l *SimpleChildLinker) Apply(g *graph.Graph) (*graph.Graph, error) {
	out := g.Clone()
	for _, e := range l.LinkGraph(g) {
		if err := out.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return out, nil
}

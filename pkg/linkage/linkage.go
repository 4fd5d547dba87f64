// Package linkage derives edges between nodes of a hierarchical graph from
// the proximity of their values.
package linkage

import (
	"fmt"
	"math"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/knob"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
)

// Kinds accepted by New.
const (
	KindSimple = "simple"
	KindChild  = "child"
)

// AttrDelta holds the value distance that produced a link.
const AttrDelta = "delta"

// Linker synthesises edges for a hierarchical graph. Implementations must
// not mutate the graph they are given.
type Linker interface {
	knob.Tunable
	Link(h *graph.Hierarchical) ([]*graph.Edge, error)
	Kind() string
}

// New builds a linker of the given kind with its default knobs overridden
// by knobs.
func New(kind string, knobs map[string]float64, logger logging.Logger) (Linker, error) {
	var l Linker
	switch kind {
	case KindSimple:
		l = NewSimpleLinkageFunction(-1, logger)
	case KindChild:
		l = NewSimpleChildLinker(1)
	default:
		return nil, fmt.Errorf("unsupported linkage kind %q", kind)
	}
	for name, v := range knobs {
		if err := l.SetKnob(name, v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Clone returns an independent copy of l.
func Clone(l Linker) Linker {
	switch x := l.(type) {
	case *SimpleLinkageFunction:
		c := *x
		return &c
	case *SimpleChildLinker:
		c := *x
		return &c
	default:
		return l
	}
}

// scalar returns the scalar numeric value of a node. Vectors, strings and
// nil report false.
func scalar(n *graph.Node) (float64, bool) {
	v, ok := n.Numeric()
	if !ok || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// precedes is the total order used to orient a link: lower value first,
// lexical id order on equal values.
func precedes(idA string, a float64, idB string, b float64) bool {
	if a != b {
		return a < b
	}
	return idA < idB
}

func newLink(source, target string, weight, delta float64) *graph.Edge {
	e := graph.NewEdge(source, target)
	e.Weight = weight
	e.Type = graph.EdgeTypeLinkage
	e.Attributes[AttrDelta] = delta
	return e
}

package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/dd0wney/rk-toolkit/pkg/distance"
)

// Distance method names.
const (
	MethodJaccard = "jaccard"
	MethodCosine  = "cosine"
)

// DistanceOptions configures the composite graph distance.
type DistanceOptions struct {
	// TopologicalMethod compares node-id and edge-id sets. Only "jaccard".
	TopologicalMethod string
	// ValueMethod compares the values of shared nodes. Only "cosine".
	ValueMethod string
	// EdgeWeight and NodeWeight mix the edge and node set distances.
	EdgeWeight float64
	NodeWeight float64
	// TopologicalWeight and ValueWeight mix the two components.
	TopologicalWeight float64
	ValueWeight       float64
	// FillValue replaces missing or NaN values before vectorisation.
	FillValue float64
}

// DefaultDistanceOptions returns Jaccard topology, cosine values and even
// 0.5/0.5 weights everywhere.
func DefaultDistanceOptions() DistanceOptions {
	return DistanceOptions{
		TopologicalMethod: MethodJaccard,
		ValueMethod:       MethodCosine,
		EdgeWeight:        0.5,
		NodeWeight:        0.5,
		TopologicalWeight: 0.5,
		ValueWeight:       0.5,
		FillValue:         0,
	}
}

func unsupported(op, method string) error {
	return NewError(op).Context(fmt.Sprintf("method %q", method)).Cause(ErrUnsupportedMethod).Err()
}

// EdgeDistance compares the (source, target) key sets of two graphs.
func (g *Graph) EdgeDistance(other *Graph, method string) (float64, error) {
	if method != MethodJaccard {
		return 0, unsupported("EdgeDistance", method)
	}
	return distance.Jaccard(distance.NewSet(g.edgeOrder...), distance.NewSet(other.edgeOrder...)), nil
}

// NodeDistance compares the node-id sets of two graphs.
func (g *Graph) NodeDistance(other *Graph, method string) (float64, error) {
	if method != MethodJaccard {
		return 0, unsupported("NodeDistance", method)
	}
	return distance.Jaccard(distance.NewSet(g.nodeOrder...), distance.NewSet(other.nodeOrder...)), nil
}

// weightedMean returns (wa*a + wb*b) / (wa + wb).
func weightedMean(op string, a, wa, b, wb float64) (float64, error) {
	if wa < 0 || wb < 0 || wa+wb <= 0 {
		return 0, NewError(op).Context(fmt.Sprintf("weights %v/%v", wa, wb)).Cause(ErrInvalidWeights).Err()
	}
	return (wa*a + wb*b) / (wa + wb), nil
}

// TopologicalDistance mixes the edge and node set distances with the given
// weights. The result stays in [0, 1].
func (g *Graph) TopologicalDistance(other *Graph, method string, edgeWeight, nodeWeight float64) (float64, error) {
	ed, err := g.EdgeDistance(other, method)
	if err != nil {
		return 0, err
	}
	nd, err := g.NodeDistance(other, method)
	if err != nil {
		return 0, err
	}
	return weightedMean("TopologicalDistance", ed, edgeWeight, nd, nodeWeight)
}

// ValueMap returns every node's numeric value; nil, vector and NaN values
// are replaced by fill.
func (g *Graph) ValueMap(fill float64) map[string]float64 {
	out := make(map[string]float64, len(g.nodes))
	for id, n := range g.nodes {
		v, ok := n.Numeric()
		if !ok || math.IsNaN(v) {
			v = fill
		}
		out[id] = v
	}
	return out
}

// ValueDistance compares the values of the nodes the two graphs share.
// The shared ids are sorted, their values vectorised (missing and NaN
// values replaced by fill) and compared with the cosine distance. Graphs
// that share no node are maximally distant (1).
func (g *Graph) ValueDistance(other *Graph, method string, fill float64) (float64, error) {
	if method != MethodCosine {
		return 0, unsupported("ValueDistance", method)
	}

	shared := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		if other.HasNode(id) {
			shared = append(shared, id)
		}
	}
	if len(shared) == 0 {
		return 1, nil
	}
	slices.Sort(shared)

	a1, a2 := g.ValueMap(fill), other.ValueMap(fill)
	v1 := make([]float64, len(shared))
	v2 := make([]float64, len(shared))
	for i, id := range shared {
		v1[i] = a1[id]
		v2[i] = a2[id]
	}
	return distance.CosineDistance(v1, v2)
}

// WeightedDistance is the hybrid of topological and value distance. It
// captures both the magnitude differences and the difference in shape of
// two graphs.
func (g *Graph) WeightedDistance(other *Graph, opts DistanceOptions) (float64, error) {
	td, err := g.TopologicalDistance(other, opts.TopologicalMethod, opts.EdgeWeight, opts.NodeWeight)
	if err != nil {
		return 0, err
	}
	vd, err := g.ValueDistance(other, opts.ValueMethod, opts.FillValue)
	if err != nil {
		return 0, err
	}
	return weightedMean("WeightedDistance", td, opts.TopologicalWeight, vd, opts.ValueWeight)
}

// Similarity is 1 - WeightedDistance.
func (g *Graph) Similarity(other *Graph, opts DistanceOptions) (float64, error) {
	d, err := g.WeightedDistance(other, opts)
	if err != nil {
		return 0, err
	}
	return 1 - d, nil
}

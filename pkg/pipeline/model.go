package pipeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/mask"
)

// Model is the R-K model of one record: the structural tree built from the
// ontology, the node mask computed by the filters, the links derived by the
// linkage function and the location from the localizer. Models are treated
// as read-only once built.
type Model struct {
	ID         uuid.UUID           `json:"id"`
	Structural *graph.Hierarchical `json:"structural"`
	Mask       *mask.NodeMask      `json:"mask"`
	Links      []*graph.Edge       `json:"links"`
	Location   []float64           `json:"location"`
}

// Complete reports whether all four parts are populated.
func (m *Model) Complete() bool {
	return m.Structural != nil && m.Mask != nil && m.Links != nil && m.Location != nil
}

// Validate checks that the mask and every link reference nodes of the
// structural graph.
func (m *Model) Validate() error {
	if !m.Complete() {
		return fmt.Errorf("model %s: %w", m.ID, ErrIncompleteModel)
	}
	if err := m.Mask.Validate(m.Structural.Graph); err != nil {
		return err
	}
	for _, e := range m.Links {
		if !m.Structural.HasNode(e.Source) || !m.Structural.HasNode(e.Target) {
			return graph.NewError("Validate").Edge(e.Source, e.Target).Context("link").Cause(graph.ErrDanglingReference).Err()
		}
	}
	return nil
}

// View materialises the comparable graph: a copy of the structural graph
// with the links added and the mask applied. A link that restates an
// existing edge replaces it.
func (m *Model) View() (*graph.Graph, error) {
	if !m.Complete() {
		return nil, fmt.Errorf("model %s: %w", m.ID, ErrIncompleteModel)
	}
	g := m.Structural.Graph.Clone()
	for _, e := range m.Links {
		if err := g.AddEdge(e.Clone()); err != nil {
			return nil, err
		}
	}
	return m.Mask.Fit(g), nil
}

// Distance is the weighted graph distance between the views of m and other.
func (m *Model) Distance(other *Model, opts graph.DistanceOptions) (float64, error) {
	v1, err := m.View()
	if err != nil {
		return 0, err
	}
	v2, err := other.View()
	if err != nil {
		return 0, err
	}
	return v1.WeightedDistance(v2, opts)
}

// Similarity is 1 - Distance.
func (m *Model) Similarity(other *Model, opts graph.DistanceOptions) (float64, error) {
	d, err := m.Distance(other, opts)
	if err != nil {
		return 0, err
	}
	return 1 - d, nil
}

package mask

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func buildTree(t *testing.T) *graph.Hierarchical {
	t.Helper()
	h, err := graph.NewHierarchical(graph.NewNode("root", nil))
	if err != nil {
		t.Fatal(err)
	}
	for _, rel := range [][2]string{{"root", "A"}, {"root", "B"}, {"A", "A_1"}, {"A", "A_2"}, {"B", "B_1"}, {"B", "B_2"}} {
		if err := h.AddChild(rel[0], graph.NewNode(rel[1], nil)); err != nil {
			t.Fatal(err)
		}
	}
	return h
}

func TestFit_EmptyMask(t *testing.T) {
	h := buildTree(t)
	view := New().Fit(h.Graph)

	if view.NodeCount() != h.NodeCount() || view.EdgeCount() != h.EdgeCount() {
		t.Errorf("empty mask changed the graph: %d/%d nodes, %d/%d edges",
			view.NodeCount(), h.NodeCount(), view.EdgeCount(), h.EdgeCount())
	}
}

func TestFit_FullMask(t *testing.T) {
	h := buildTree(t)
	m := New()
	for _, id := range h.NodeIDs() {
		m.MaskNode(id)
	}
	view := m.Fit(h.Graph)
	if view.NodeCount() != 0 || view.EdgeCount() != 0 {
		t.Errorf("full mask left %d nodes and %d edges", view.NodeCount(), view.EdgeCount())
	}
}

func TestFit_MaskedEdgeDroppedEvenWhenEndpointsSurvive(t *testing.T) {
	h := buildTree(t)
	m := New()
	m.MaskEdge("A", "A_1")
	m.MaskNode("B_2")

	view := m.Fit(h.Graph)
	if view.HasEdge("A", "A_1") {
		t.Error("explicitly masked edge survived")
	}
	if !view.HasNode("A") || !view.HasNode("A_1") {
		t.Error("endpoints of a masked edge were removed")
	}
	if view.HasNode("B_2") || view.HasEdge("B", "B_2") {
		t.Error("masked node or its edge survived")
	}
	if h.NodeCount() != 7 || h.EdgeCount() != 6 {
		t.Error("Fit mutated the input graph")
	}
}

func TestMaskCascade(t *testing.T) {
	h := buildTree(t)
	m := New()

	masked, err := m.MaskCascade(h, "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(masked) != 3 {
		t.Errorf("MaskCascade returned %v, want A and its two children", masked)
	}
	for _, id := range []string{"A", "A_1", "A_2"} {
		if !m.IsNodeMasked(id) {
			t.Errorf("%s not masked", id)
		}
	}
	if m.IsNodeMasked("B") {
		t.Error("sibling branch masked")
	}

	if _, err := m.MaskCascade(h, "ghost"); !errors.Is(err, graph.ErrNodeNotFound) {
		t.Errorf("MaskCascade(ghost) error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	h := buildTree(t)
	m := New()
	m.MaskNode("A")
	if err := m.Validate(h.Graph); err != nil {
		t.Errorf("Validate: %v", err)
	}
	m.MaskEdge("A", "ghost")
	if err := m.Validate(h.Graph); !errors.Is(err, graph.ErrDanglingReference) {
		t.Errorf("Validate error = %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	m := New()
	m.MaskNode("b")
	m.MaskNode("a")
	m.MaskEdge("x", "y")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"nodes":["a","b"],"edges":[{"source":"x","target":"y"}]}` {
		t.Errorf("encoded = %s", data)
	}

	back := New()
	if err := json.Unmarshal(data, back); err != nil {
		t.Fatal(err)
	}
	if !back.IsNodeMasked("a") || !back.IsEdgeMasked("x", "y") || back.Len() != 2 {
		t.Errorf("decoded mask = %v / %v", back.Nodes(), back.Edges())
	}
}

func TestCloneIndependent(t *testing.T) {
	m := New()
	m.MaskNode("a")
	c := m.Clone()
	c.MaskNode("b")
	if m.IsNodeMasked("b") {
		t.Error("clone shares state with the original")
	}
}

// TestMaskInvariants checks that a cascaded mask always removes descendants.
func TestMaskInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("cascade excludes every descendant", prop.ForAll(
		func(parents []int, pick int) bool {
			h, _ := graph.NewHierarchical(graph.NewNode("n0", nil))
			for i := 1; i <= len(parents); i++ {
				_ = h.AddChild(fmt.Sprintf("n%d", parents[i-1]%i), graph.NewNode(fmt.Sprintf("n%d", i), nil))
			}
			target := fmt.Sprintf("n%d", pick%h.NodeCount())

			m := New()
			if _, err := m.MaskCascade(h, target); err != nil {
				return false
			}
			view := m.Fit(h.Graph)
			desc, _ := h.Descendants(target)
			for _, d := range append(desc, target) {
				if view.HasNode(d) {
					return false
				}
			}
			return view.NodeCount() == h.NodeCount()-len(desc)-1
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.IntRange(0, 50),
	))

	properties.Property("empty mask is a no-op", prop.ForAll(
		func(parents []int) bool {
			h, _ := graph.NewHierarchical(graph.NewNode("n0", nil))
			for i := 1; i <= len(parents); i++ {
				_ = h.AddChild(fmt.Sprintf("n%d", parents[i-1]%i), graph.NewNode(fmt.Sprintf("n%d", i), nil))
			}
			view := New().Fit(h.Graph)
			return view.NodeCount() == h.NodeCount() && view.EdgeCount() == h.EdgeCount()
		},
		gen.SliceOf(gen.IntRange(0, 50)),
	))

	properties.TestingRun(t)
}

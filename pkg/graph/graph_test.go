package graph

import (
	"errors"
	"math"
	"slices"
	"testing"
)

// buildTree returns root -> {a, b}, a -> {a1, a2}, b -> {b1, b2}.
func buildTree(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, id := range []string{"root", "a", "b", "a1", "a2", "b1", "b2"} {
		if err := g.AddNode(NewNode(id, nil)); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, e := range [][2]string{{"root", "a"}, {"root", "b"}, {"a", "a1"}, {"a", "a2"}, {"b", "b1"}, {"b", "b2"}} {
		if err := g.AddEdge(NewEdge(e[0], e[1])); err != nil {
			t.Fatalf("AddEdge(%s->%s): %v", e[0], e[1], err)
		}
	}
	return g
}

func TestAddNode(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr error
	}{
		{"valid", NewNode("x", 1.0), nil},
		{"nil node", nil, ErrInvalidType},
		{"empty id", NewNode("", nil), ErrInvalidType},
		{"duplicate", NewNode("dup", nil), ErrDuplicateID},
	}

	g := New()
	if err := g.AddNode(NewNode("dup", nil)); err != nil {
		t.Fatalf("seed: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.AddNode(tt.node)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("AddNode() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddNode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddEdge_DanglingReference(t *testing.T) {
	g := New()
	_ = g.AddNode(NewNode("a", nil))

	if err := g.AddEdge(NewEdge("a", "missing")); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("missing target: got %v, want ErrDanglingReference", err)
	}
	if err := g.AddEdge(NewEdge("missing", "a")); !errors.Is(err, ErrDanglingReference) {
		t.Errorf("missing source: got %v, want ErrDanglingReference", err)
	}
	if err := g.AddEdge(nil); !errors.Is(err, ErrInvalidType) {
		t.Errorf("nil edge: got %v, want ErrInvalidType", err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount() = %d, want 0", g.EdgeCount())
	}
}

func TestAddEdge_ReplacesExistingKey(t *testing.T) {
	g := New()
	_ = g.AddNode(NewNode("a", nil))
	_ = g.AddNode(NewNode("b", nil))

	_ = g.AddEdge(NewEdge("a", "b"))
	e := NewEdge("a", "b")
	e.Weight = 0.25
	if err := g.AddEdge(e); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}

	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	got, _ := g.Edge("a", "b")
	if got.Weight != 0.25 {
		t.Errorf("Weight = %v, want 0.25", got.Weight)
	}
	if succ := g.Successors("a"); len(succ) != 1 {
		t.Errorf("Successors(a) = %v, want one entry", succ)
	}
}

func TestChildren(t *testing.T) {
	g := buildTree(t)

	direct, err := g.Children("root", false)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	if !slices.Equal(direct, []string{"a", "b"}) {
		t.Errorf("Children(root, false) = %v", direct)
	}

	all, err := g.Children("root", true)
	if err != nil {
		t.Fatalf("Children: %v", err)
	}
	want := []string{"a", "b", "a1", "a2", "b1", "b2"}
	if !slices.Equal(all, want) {
		t.Errorf("Children(root, true) = %v, want %v", all, want)
	}

	leaf, _ := g.Children("a1", true)
	if len(leaf) != 0 {
		t.Errorf("Children(a1, true) = %v, want empty", leaf)
	}

	if _, err := g.Children("nope", false); !IsNotFound(err) {
		t.Errorf("Children(nope) error = %v, want not found", err)
	}
}

func TestNodeAttributes(t *testing.T) {
	n := NewNode("x", 2.0)

	for _, key := range []string{KeyID, KeyValue} {
		if err := n.SetAttribute(key, "v", true); !errors.Is(err, ErrReservedAttribute) {
			t.Errorf("SetAttribute(%q) error = %v, want ErrReservedAttribute", key, err)
		}
	}

	if err := n.SetAttribute("color", "red", false); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if err := n.SetAttribute("color", "blue", false); !errors.Is(err, ErrAttributeExists) {
		t.Errorf("SetAttribute without overwrite error = %v, want ErrAttributeExists", err)
	}
	if err := n.SetAttribute("color", "blue", true); err != nil {
		t.Errorf("SetAttribute with overwrite: %v", err)
	}
	if v, _ := n.Attribute("color"); v != "blue" {
		t.Errorf("color = %v, want blue", v)
	}
}

func TestClone_Independent(t *testing.T) {
	g := buildTree(t)
	c := g.Clone()

	_ = c.AddNode(NewNode("extra", nil))
	_ = c.AddEdge(NewEdge("b2", "extra"))
	n, _ := c.Node("a")
	n.Value = 42.0

	if g.HasNode("extra") || g.HasEdge("b2", "extra") {
		t.Error("mutating the clone changed the original structure")
	}
	if orig, _ := g.Node("a"); orig.Value != nil {
		t.Errorf("original node value = %v, want nil", orig.Value)
	}
}

func TestInducedSubgraph(t *testing.T) {
	g := buildTree(t)
	sub := g.InducedSubgraph(func(id string) bool { return id != "a" })

	if sub.NodeCount() != 6 {
		t.Errorf("NodeCount() = %d, want 6", sub.NodeCount())
	}
	// root->a, a->a1, a->a2 are dropped
	if sub.EdgeCount() != 3 {
		t.Errorf("EdgeCount() = %d, want 3", sub.EdgeCount())
	}
	if sub.HasEdge("root", "a") {
		t.Error("edge to removed node survived")
	}
}

func TestRemoveEdge(t *testing.T) {
	g := buildTree(t)
	if !g.RemoveEdge("a", "a1") {
		t.Fatal("RemoveEdge(a, a1) = false")
	}
	if g.RemoveEdge("a", "a1") {
		t.Error("second RemoveEdge(a, a1) = true")
	}
	if slices.Contains(g.Successors("a"), "a1") || slices.Contains(g.Predecessors("a1"), "a") {
		t.Error("adjacency still references removed edge")
	}
}

func TestNodeJSON(t *testing.T) {
	n := NewNode("v", []float64{1, 2})
	_ = n.SetAttribute("color", "red", false)

	data, err := n.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var decoded Node
	if err := decoded.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if decoded.ID() != "v" {
		t.Errorf("ID() = %q", decoded.ID())
	}
	vec, ok := decoded.Value.([]float64)
	if !ok || !slices.Equal(vec, []float64{1, 2}) {
		t.Errorf("Value = %#v, want []float64{1, 2}", decoded.Value)
	}
	if c, _ := decoded.Attribute("color"); c != "red" {
		t.Errorf("color = %v", c)
	}

	var bad Node
	if err := bad.UnmarshalJSON([]byte(`{"value": 1}`)); !errors.Is(err, ErrInvalidType) {
		t.Errorf("missing id error = %v, want ErrInvalidType", err)
	}
}

func TestNodeJSON_NonFinite(t *testing.T) {
	tests := []struct {
		name  string
		value any
		check func(any) bool
	}{
		{"nan", math.NaN(), func(v any) bool { return v == nil }},
		{"inf", math.Inf(1), func(v any) bool { return v == nil }},
		{"vector", []float64{1, math.NaN()}, func(v any) bool {
			vec, ok := v.([]float64)
			return ok && len(vec) == 2 && vec[0] == 1 && math.IsNaN(vec[1])
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := NewNode("n", tt.value).MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON: %v", err)
			}
			var decoded Node
			if err := decoded.UnmarshalJSON(data); err != nil {
				t.Fatalf("UnmarshalJSON(%s): %v", data, err)
			}
			if !tt.check(decoded.Value) {
				t.Errorf("decoded value = %#v from %s", decoded.Value, data)
			}
		})
	}
}

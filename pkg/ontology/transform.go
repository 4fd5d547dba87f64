package ontology

import (
	"fmt"
	"math"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/validation"
)

const (
	// DefaultLens is the id of the root node.
	DefaultLens = "root"
	// DefaultColorDecay is the multiplicative alpha decay per depth.
	DefaultColorDecay = 0.1
	// AttrColor holds the #rrggbbaa branch colour of a node.
	AttrColor = "color"
)

// Transform maps records onto a hierarchical graph shaped by an ontology.
// It holds no per-record state and may be shared between goroutines.
type Transform struct {
	ontology   Ontology
	lens       string
	colorDecay float64
	palette    Palette
	logger     logging.Logger
}

// Option configures a Transform.
type Option func(*Transform)

// WithLens sets the root id. Top-level keys equal to the lens merge into
// the root instead of creating a self-loop.
func WithLens(id string) Option {
	return func(t *Transform) { t.lens = id }
}

// WithColorDecay sets the alpha decay applied per depth.
func WithColorDecay(rate float64) Option {
	return func(t *Transform) { t.colorDecay = rate }
}

// WithPalette replaces the Spectral palette.
func WithPalette(p Palette) Option {
	return func(t *Transform) { t.palette = p }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(t *Transform) { t.logger = l }
}

// New creates a Transform for o.
func New(o Ontology, opts ...Option) (*Transform, error) {
	t := &Transform{
		ontology:   o,
		lens:       DefaultLens,
		colorDecay: DefaultColorDecay,
		palette:    Spectral,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = logging.OrDefault(t.logger)

	err := validation.NewConfigValidator("ontology").
		Custom("lens", func() error { return validation.ValidateNodeID(t.lens) }).
		Finite("colorDecay", t.colorDecay).
		RangeFloat("colorDecay", t.colorDecay, 0, 1).
		Validate()
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Ontology returns the schema the transform walks.
func (t *Transform) Ontology() Ontology {
	return t.ontology
}

// Lens returns the root id.
func (t *Transform) Lens() string {
	return t.lens
}

// Transform builds a hierarchical graph for rec. The walk is depth-first in
// ontology order: every key becomes a node whose value is rec[key] (nil
// when absent) with one edge from its ontology parent. A key equal to its
// parent id is folded into the parent. Branch colours are spread evenly
// over the palette at depth 1 and their alpha decays by (1 - decay) per
// depth below.
func (t *Transform) Transform(rec Record) (*graph.Hierarchical, error) {
	if rec == nil {
		rec = MapRecord{}
	}
	rootValue, _ := rec.Lookup(t.lens)
	h, err := graph.NewHierarchical(graph.NewNode(t.lens, normalizeValue(rootValue)))
	if err != nil {
		return nil, err
	}
	if err := t.convert(h, rec, t.ontology, t.lens, 1, Color{}); err != nil {
		return nil, err
	}
	t.logger.Debug("ontology transform complete",
		logging.Component("ontology"),
		logging.Int("nodes", h.NodeCount()),
		logging.Int("depth", h.Depth()),
	)
	return h, nil
}

func (t *Transform) convert(h *graph.Hierarchical, rec Record, level Ontology, parent string, depth int, inherited Color) error {
	for i, e := range level {
		if e.Key == parent {
			// self reference: the parent absorbs the entry's children
			if err := t.convert(h, rec, e.Children, parent, depth, inherited); err != nil {
				return err
			}
			continue
		}

		c := inherited
		if depth == 1 {
			c = t.palette.At(float64(i) / float64(len(level)))
		}
		c.A = math.Pow(1-t.colorDecay, float64(depth))

		value, _ := rec.Lookup(e.Key)
		n := graph.NewNode(e.Key, normalizeValue(value))
		if err := n.SetAttribute(AttrColor, c.Hex(), true); err != nil {
			return err
		}
		if err := h.AddChild(parent, n); err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrInvalidOntology, e.Key, err)
		}
		if err := t.convert(h, rec, e.Children, e.Key, depth+1, c); err != nil {
			return err
		}
	}
	return nil
}

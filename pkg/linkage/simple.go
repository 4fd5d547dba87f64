package linkage

import (
	"math"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/knob"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
)

// SimpleLinkageFunction walks a hierarchical graph from the root and links
// siblings and child/parent pairs whose values are closer than Threshold.
// A negative Threshold links regardless of distance.
//
// At every parent:
//   - each pair of distinct siblings p1, p2 with scalar values and
//     p2 before p1 in (value, id) order yields p2 -> p1;
//   - under the root, every child is linked to the root with weight 1;
//   - under any other parent with a scalar value, each child whose value
//     does not exceed the parent's yields child -> parent.
//
// Links carry their distance as weight and in the "delta" attribute. Every
// child is visited.
type SimpleLinkageFunction struct {
	Threshold float64
	logger    logging.Logger
}

// NewSimpleLinkageFunction creates a recursive linkage function.
func NewSimpleLinkageFunction(threshold float64, logger logging.Logger) *SimpleLinkageFunction {
	return &SimpleLinkageFunction{Threshold: threshold, logger: logging.OrDefault(logger)}
}

// Kind implements Linker.
func (f *SimpleLinkageFunction) Kind() string {
	return KindSimple
}

// Knobs implements knob.Tunable.
func (f *SimpleLinkageFunction) Knobs() map[string]float64 {
	return map[string]float64{"threshold": f.Threshold}
}

// SetKnob implements knob.Tunable. The only knob is "threshold".
func (f *SimpleLinkageFunction) SetKnob(name string, value float64) error {
	if err := knob.CheckValue("SimpleLinkageFunction", name, value); err != nil {
		return err
	}
	if name != "threshold" {
		return knob.Unknown("SimpleLinkageFunction", name)
	}
	f.Threshold = value
	return nil
}

// Link implements Linker.
func (f *SimpleLinkageFunction) Link(h *graph.Hierarchical) ([]*graph.Edge, error) {
	logger := logging.OrDefault(f.logger)
	var links []*graph.Edge
	f.link(h, h.RootID(), logger, &links)
	return links, nil
}

func (f *SimpleLinkageFunction) within(d float64) bool {
	return f.Threshold < 0 || d < f.Threshold
}

func (f *SimpleLinkageFunction) link(h *graph.Hierarchical, parent string, logger logging.Logger, links *[]*graph.Edge) {
	children := h.ChildrenOf(parent)

	for _, id1 := range children {
		n1, _ := h.Node(id1)
		v1, ok := scalar(n1)
		if !ok {
			continue
		}
		for _, id2 := range children {
			if id1 == id2 {
				continue
			}
			n2, _ := h.Node(id2)
			v2, ok := scalar(n2)
			if !ok {
				continue
			}
			d := math.Abs(v1 - v2)
			if f.within(d) && precedes(id2, v2, id1, v1) {
				*links = append(*links, newLink(id2, id1, d, d))
			}
		}
	}

	isRoot := h.IsRoot(parent)
	pn, _ := h.Node(parent)
	pv, parentOK := scalar(pn)
	if !isRoot && !parentOK && len(children) > 0 {
		logger.Warn("no value set, skipping node for linkage",
			logging.Component("linkage"),
			logging.NodeID(parent),
		)
	}

	for _, c := range children {
		switch {
		case isRoot:
			backbone := graph.NewEdge(c, parent)
			backbone.Type = graph.EdgeTypeLinkage
			*links = append(*links, backbone)
		case parentOK:
			cn, _ := h.Node(c)
			if cv, ok := scalar(cn); ok {
				d := math.Abs(pv - cv)
				if f.within(d) && cv <= pv {
					*links = append(*links, newLink(c, parent, d, d))
				}
			}
		}
		f.link(h, c, logger, links)
	}
}

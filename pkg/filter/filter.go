// Package filter provides per-node predicates that decide whether a node
// is masked out of an R-K model.
package filter

import (
	"fmt"
	"math"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/knob"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
)

// Kinds accepted by New.
const (
	KindRange = "range"
	KindAll   = "all"
	KindNone  = "none"
)

// Filter decides whether a node should be filtered out. Filter returns true
// to filter the node out and false to keep it.
type Filter interface {
	knob.Tunable
	Filter(n *graph.Node) bool
	Kind() string
}

// New builds a filter of the given kind. Knobs not listed keep their
// defaults; unknown knobs are rejected.
func New(kind string, knobs map[string]float64, logger logging.Logger) (Filter, error) {
	var f Filter
	switch kind {
	case KindRange:
		f = NewRangeFilter(0, 1, logger)
	case KindAll:
		f = FilterAll{}
	case KindNone:
		f = FilterNone{}
	default:
		return nil, fmt.Errorf("unsupported filter kind %q", kind)
	}
	for name, v := range knobs {
		if err := f.SetKnob(name, v); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// RangeFilter keeps nodes whose value lies in (Min, Max]. Nodes without a
// numeric value are kept and a warning is logged.
type RangeFilter struct {
	Min    float64
	Max    float64
	logger logging.Logger
}

// NewRangeFilter creates a range filter. A nil logger uses the default.
func NewRangeFilter(min, max float64, logger logging.Logger) *RangeFilter {
	return &RangeFilter{Min: min, Max: max, logger: logging.OrDefault(logger)}
}

// Filter implements Filter.
func (f *RangeFilter) Filter(n *graph.Node) bool {
	logger := logging.OrDefault(f.logger)
	if n == nil {
		logger.Warn("range filter applied to nil node", logging.Component("filter"))
		return false
	}
	v, ok := n.Numeric()
	if !ok || math.IsNaN(v) {
		logger.Warn("node has no numeric value, keeping it",
			logging.Component("filter"),
			logging.NodeID(n.ID()),
			logging.String("value_type", fmt.Sprintf("%T", n.Value)),
		)
		return false
	}
	return !(f.Min < v && v <= f.Max)
}

// Kind implements Filter.
func (f *RangeFilter) Kind() string {
	return KindRange
}

// Knobs implements knob.Tunable.
func (f *RangeFilter) Knobs() map[string]float64 {
	return map[string]float64{"min": f.Min, "max": f.Max}
}

// SetKnob implements knob.Tunable. Knobs are "min" and "max".
func (f *RangeFilter) SetKnob(name string, value float64) error {
	if err := knob.CheckValue("RangeFilter", name, value); err != nil {
		return err
	}
	switch name {
	case "min":
		f.Min = value
	case "max":
		f.Max = value
	default:
		return knob.Unknown("RangeFilter", name)
	}
	return nil
}

// Clone returns a copy sharing the logger.
func (f *RangeFilter) Clone() *RangeFilter {
	c := *f
	return &c
}

// FilterAll filters out every node.
type FilterAll struct{}

// Filter implements Filter.
func (FilterAll) Filter(*graph.Node) bool { return true }

// Kind implements Filter.
func (FilterAll) Kind() string { return KindAll }

// Knobs implements knob.Tunable.
func (FilterAll) Knobs() map[string]float64 { return map[string]float64{} }

// SetKnob implements knob.Tunable.
func (FilterAll) SetKnob(name string, _ float64) error {
	return knob.Unknown("FilterAll", name)
}

// FilterNone keeps every node.
type FilterNone struct{}

// Filter implements Filter.
func (FilterNone) Filter(*graph.Node) bool { return false }

// Kind implements Filter.
func (FilterNone) Kind() string { return KindNone }

// Knobs implements knob.Tunable.
func (FilterNone) Knobs() map[string]float64 { return map[string]float64{} }

// SetKnob implements knob.Tunable.
func (FilterNone) SetKnob(name string, _ float64) error {
	return knob.Unknown("FilterNone", name)
}

// Clone returns an independent copy of f. Stateless filters are returned
// as is.
func Clone(f Filter) Filter {
	if rf, ok := f.(*RangeFilter); ok {
		return rf.Clone()
	}
	return f
}

// Package localization computes the location vector stored on an R-K model.
package localization

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
)

// ErrInvalidGrid is returned when a record does not hold a usable grid.
var ErrInvalidGrid = errors.New("invalid localization grid")

// Localizer derives a coordinate vector for a record.
type Localizer interface {
	Localize(rec ontology.Record) ([]float64, error)
}

// IterableLocalizer hands out consecutive positions: every call advances
// each enabled axis by one, starting at 0. Disabled axes stay at -1.
type IterableLocalizer struct {
	mu     sync.Mutex
	axes   []bool
	counts []float64
}

// NewIterableLocalizer creates a localizer with one axis per flag. With no
// flags it iterates three axes.
func NewIterableLocalizer(axes ...bool) *IterableLocalizer {
	if len(axes) == 0 {
		axes = []bool{true, true, true}
	}
	counts := make([]float64, len(axes))
	for i := range counts {
		counts[i] = -1
	}
	return &IterableLocalizer{axes: append([]bool(nil), axes...), counts: counts}
}

// Localize implements Localizer. The record is ignored.
func (l *IterableLocalizer) Localize(ontology.Record) ([]float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, on := range l.axes {
		if on {
			l.counts[i]++
		}
	}
	return append([]float64(nil), l.counts...), nil
}

// Reset rewinds every axis to -1.
func (l *IterableLocalizer) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.counts {
		l.counts[i] = -1
	}
}

// Clone returns an independent localizer at the same position.
func (l *IterableLocalizer) Clone() *IterableLocalizer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &IterableLocalizer{
		axes:   append([]bool(nil), l.axes...),
		counts: append([]float64(nil), l.counts...),
	}
}

// Clone copies stateful localizers. Stateless ones are returned as is.
func Clone(l Localizer) Localizer {
	if x, ok := l.(*IterableLocalizer); ok {
		return x.Clone()
	}
	return l
}

// NDMaxLocalizer locates a record at the maximum of a grid. The record
// holds the x coordinates under XKey, the y coordinates under YKey and the
// row-major len(x) by len(y) grid under ZKey. The location is (x[i], y[j])
// for the cell (i, j) holding the largest value.
type NDMaxLocalizer struct {
	XKey string
	YKey string
	ZKey string
}

// Localize implements Localizer.
func (l NDMaxLocalizer) Localize(rec ontology.Record) ([]float64, error) {
	xs, err := lookupVector(rec, l.XKey)
	if err != nil {
		return nil, err
	}
	ys, err := lookupVector(rec, l.YKey)
	if err != nil {
		return nil, err
	}
	zs, err := lookupVector(rec, l.ZKey)
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 || len(ys) == 0 || len(zs) != len(xs)*len(ys) {
		return nil, fmt.Errorf("%w: %d x %d axes with %d cells", ErrInvalidGrid, len(xs), len(ys), len(zs))
	}

	idx := floats.MaxIdx(zs)
	return []float64{xs[idx/len(ys)], ys[idx%len(ys)]}, nil
}

func lookupVector(rec ontology.Record, key string) ([]float64, error) {
	raw, ok := rec.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrInvalidGrid, key)
	}
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, item := range v {
			f, ok := graph.Numeric(item)
			if !ok {
				return nil, fmt.Errorf("%w: %q[%d] is %T", ErrInvalidGrid, key, i, item)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q is %T, want a numeric list", ErrInvalidGrid, key, raw)
	}
}

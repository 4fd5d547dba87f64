// Package pipeline runs the R-K pipeline: ontology transform, filtering,
// linkage and localization of a record into an R-K model.
package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/rk-toolkit/pkg/filter"
	"github.com/dd0wney/rk-toolkit/pkg/graph"
	"github.com/dd0wney/rk-toolkit/pkg/knob"
	"github.com/dd0wney/rk-toolkit/pkg/linkage"
	"github.com/dd0wney/rk-toolkit/pkg/localization"
	"github.com/dd0wney/rk-toolkit/pkg/logging"
	"github.com/dd0wney/rk-toolkit/pkg/mask"
	"github.com/dd0wney/rk-toolkit/pkg/metrics"
	"github.com/dd0wney/rk-toolkit/pkg/ontology"
	"github.com/dd0wney/rk-toolkit/pkg/parallel"
	"github.com/dd0wney/rk-toolkit/pkg/validation"
)

// Column kinds used by Remap and Weights.
const (
	ColumnFilter  = "filter"
	ColumnLinkage = "linkage"
)

// Pipeline turns records into R-K models.
//
// A Pipeline owns its filters and linker; SetKnob and Remap mutate them,
// so a Pipeline must not be tuned while another goroutine runs Transform.
// Transform itself only reads the pipeline: every run builds its own tree,
// so concurrent runs are safe.
type Pipeline struct {
	transform *ontology.Transform
	filters   map[string]filter.Filter
	linker    linkage.Linker
	localizer localization.Localizer
	logger    logging.Logger
	metrics   *metrics.Registry
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFilter binds f to the node target.
func WithFilter(target string, f filter.Filter) Option {
	return func(p *Pipeline) { p.filters[target] = f }
}

// WithLinker replaces the default SimpleLinkageFunction(-1).
func WithLinker(l linkage.Linker) Option {
	return func(p *Pipeline) { p.linker = l }
}

// WithLocalizer replaces the default three-axis IterableLocalizer.
func WithLocalizer(l localization.Localizer) Option {
	return func(p *Pipeline) { p.localizer = l }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithMetrics records pipeline metrics into r.
func WithMetrics(r *metrics.Registry) Option {
	return func(p *Pipeline) { p.metrics = r }
}

// New creates a pipeline around an ontology transform.
func New(t *ontology.Transform, opts ...Option) *Pipeline {
	p := &Pipeline{
		transform: t,
		filters:   make(map[string]filter.Filter),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger)
	if p.linker == nil {
		p.linker = linkage.NewSimpleLinkageFunction(-1, p.logger)
	}
	if p.localizer == nil {
		p.localizer = localization.NewIterableLocalizer()
	}
	return p
}

// SetFilter binds f to the node target, replacing any previous filter.
func (p *Pipeline) SetFilter(target string, f filter.Filter) {
	p.filters[target] = f
}

// Filter returns the filter bound to target.
func (p *Pipeline) Filter(target string) (filter.Filter, bool) {
	f, ok := p.filters[target]
	return f, ok
}

// FilterTargets returns the filtered node ids in lexical order.
func (p *Pipeline) FilterTargets() []string {
	return slices.Sorted(maps.Keys(p.filters))
}

// Linker returns the linkage function.
func (p *Pipeline) Linker() linkage.Linker {
	return p.linker
}

// LinkerTarget is the target id used for linker knob columns: the root id.
func (p *Pipeline) LinkerTarget() string {
	return p.transform.Lens()
}

// Transform runs the pipeline on one record. Filters are applied in
// lexical target order; a node that is filtered out is masked together
// with all of its tree descendants. Errors from any stage abort the run.
func (p *Pipeline) Transform(rec ontology.Record) (*Model, error) {
	stage := time.Now()
	location, err := p.localizer.Localize(rec)
	if err != nil {
		p.recordRun(stage, nil, err)
		return nil, fmt.Errorf("localize: %w", err)
	}
	p.recordStage("localize", stage)
	return p.build(rec, location, stage)
}

// TransformAll runs the pipeline over records on the worker pool and
// returns the models in record order. Records are localized sequentially,
// so stateful localizers number them in input order; the remaining stages
// run concurrently, each on its own tree.
func (p *Pipeline) TransformAll(ctx context.Context, pool *parallel.WorkerPool, records []ontology.Record) ([]*Model, error) {
	locations := make([][]float64, len(records))
	for i, rec := range records {
		stage := time.Now()
		location, err := p.localizer.Localize(rec)
		if err != nil {
			p.recordRun(stage, nil, err)
			return nil, fmt.Errorf("record %d: localize: %w", i, err)
		}
		p.recordStage("localize", stage)
		locations[i] = location
	}

	return parallel.Map(ctx, pool, records, func(_ context.Context, i int, rec ontology.Record) (*Model, error) {
		m, err := p.build(rec, locations[i], time.Now())
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		return m, nil
	})
}

func (p *Pipeline) build(rec ontology.Record, location []float64, start time.Time) (model *Model, err error) {
	timer := logging.StartTimer(p.logger, "pipeline transform", logging.Component("pipeline"))
	defer func() {
		if err != nil {
			timer.EndError(err)
		} else {
			timer.EndWithLevel(logging.DebugLevel, "pipeline transform")
		}
		p.recordRun(start, model, err)
	}()

	stage := time.Now()
	h, err := p.transform.Transform(rec)
	if err != nil {
		return nil, fmt.Errorf("ontology transform: %w", err)
	}
	p.recordStage("transform", stage)

	stage = time.Now()
	m, err := p.applyFilters(h)
	if err != nil {
		return nil, err
	}
	p.recordStage("filter", stage)

	stage = time.Now()
	links, err := p.linker.Link(h)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	if links == nil {
		links = []*graph.Edge{}
	}
	p.recordStage("link", stage)

	if location == nil {
		location = []float64{}
	}
	model = &Model{
		ID:         uuid.New(),
		Structural: h,
		Mask:       m,
		Links:      links,
		Location:   location,
	}
	return model, nil
}

func (p *Pipeline) applyFilters(h *graph.Hierarchical) (*mask.NodeMask, error) {
	m := mask.New()
	for _, target := range p.FilterTargets() {
		f := p.filters[target]
		n, ok := h.Node(target)
		if !ok {
			return nil, fmt.Errorf("%w: node %q is not in the graph", ErrInvalidFilterTarget, target)
		}
		if _, ok := n.Numeric(); !ok {
			return nil, fmt.Errorf("%w: node %q has no numeric value (%T)", ErrInvalidFilterTarget, target, n.Value)
		}

		filtered := f.Filter(n)
		if p.metrics != nil {
			p.metrics.RecordFilter(f.Kind(), filtered)
		}
		if !filtered {
			continue
		}
		masked, err := m.MaskCascade(h, target)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("node filtered out",
			logging.Component("pipeline"),
			logging.NodeID(target),
			logging.Count(len(masked)),
		)
	}
	return m, nil
}

func (p *Pipeline) recordRun(start time.Time, m *Model, err error) {
	if p.metrics == nil {
		return
	}
	nodes, masked, links := 0, 0, 0
	if m != nil {
		nodes, masked, links = m.Structural.NodeCount(), m.Mask.Len(), len(m.Links)
	}
	p.metrics.RecordPipelineRun(time.Since(start), nodes, masked, links, err)
}

func (p *Pipeline) recordStage(name string, start time.Time) {
	if p.metrics != nil {
		p.metrics.RecordStage(name, time.Since(start))
	}
}

// Clone returns a pipeline with independent copies of the filters and the
// linker. The ontology transform, localizer, logger and metrics are shared.
func (p *Pipeline) Clone() *Pipeline {
	c := &Pipeline{
		transform: p.transform,
		filters:   make(map[string]filter.Filter, len(p.filters)),
		linker:    linkage.Clone(p.linker),
		localizer: localization.Clone(p.localizer),
		logger:    p.logger,
		metrics:   p.metrics,
	}
	for target, f := range p.filters {
		c.filters[target] = filter.Clone(f)
	}
	return c
}

// Column formats a knob column as "{kind}_{knob}_{target}".
func Column(kind, knobName, target string) string {
	return kind + "_" + knobName + "_" + target
}

// ParseColumn splits a knob column. Knob names never contain underscores,
// so target ids may.
func ParseColumn(column string) (kind, knobName, target string, err error) {
	parts := strings.SplitN(column, "_", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q is not kind_knob_target", ErrInvalidColumn, column)
	}
	kind, knobName, target = parts[0], parts[1], parts[2]
	if kind != ColumnFilter && kind != ColumnLinkage {
		return "", "", "", fmt.Errorf("%w: %q has unknown kind %q", ErrInvalidColumn, column, kind)
	}
	if err := validation.ValidateKnobName(knobName); err != nil {
		return "", "", "", fmt.Errorf("%w: %q: %w", ErrInvalidColumn, column, err)
	}
	return kind, knobName, target, nil
}

// Remap returns a copy of the pipeline with each column's knob set to the
// matching weight. The receiver is not modified.
func (p *Pipeline) Remap(weights []float64, columns []string) (*Pipeline, error) {
	if len(weights) != len(columns) {
		return nil, fmt.Errorf("%w: %d weights, %d columns", ErrWeightMismatch, len(weights), len(columns))
	}

	c := p.Clone()
	for i, col := range columns {
		kind, name, target, err := ParseColumn(col)
		if err != nil {
			return nil, err
		}

		var t knob.Tunable
		switch kind {
		case ColumnFilter:
			f, ok := c.filters[target]
			if !ok {
				return nil, fmt.Errorf("%w: no filter on %q", ErrInvalidColumn, target)
			}
			t = f
		case ColumnLinkage:
			if target != c.LinkerTarget() {
				return nil, fmt.Errorf("%w: linker is bound to %q, not %q", ErrInvalidColumn, c.LinkerTarget(), target)
			}
			t = c.linker
		}
		if err := t.SetKnob(name, weights[i]); err != nil {
			return nil, fmt.Errorf("remap %s: %w", col, err)
		}
	}

	if p.metrics != nil {
		p.metrics.RecordRemap()
	}
	return c, nil
}

// Weights returns every knob value with its column name: filters first in
// lexical target order, then the linker, knobs in lexical order within each
// component. Remap(Weights()) reproduces the pipeline.
func (p *Pipeline) Weights() ([]float64, []string) {
	var (
		values  []float64
		columns []string
	)
	add := func(kind, target string, t knob.Tunable) {
		knobs := t.Knobs()
		for _, name := range knob.Names(t) {
			values = append(values, knobs[name])
			columns = append(columns, Column(kind, name, target))
		}
	}
	for _, target := range p.FilterTargets() {
		add(ColumnFilter, target, p.filters[target])
	}
	add(ColumnLinkage, p.LinkerTarget(), p.linker)
	return values, columns
}

// DistanceMatrix is the package-level DistanceMatrix with each computation
// recorded in the pipeline's metrics.
func (p *Pipeline) DistanceMatrix(models []*Model, opts graph.DistanceOptions) ([][]float64, error) {
	return distanceMatrix(models, opts, func(d float64, err error) {
		if p.metrics != nil {
			p.metrics.RecordDistance("weighted", d, err)
		}
	})
}

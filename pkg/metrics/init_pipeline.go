package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var countBuckets = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}

func (r *Registry) initPipelineMetrics() {
	r.PipelineRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_pipeline_runs_total",
			Help: "Total number of pipeline transforms",
		},
		[]string{"status"},
	)

	r.PipelineRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rk_pipeline_run_duration_seconds",
			Help:    "Pipeline transform duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)

	r.PipelineStageDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rk_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"stage"},
	)

	r.PipelineMaskedNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rk_pipeline_masked_nodes",
			Help:    "Number of masked nodes per model",
			Buckets: countBuckets,
		},
	)

	r.PipelineLinks = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rk_pipeline_links",
			Help:    "Number of derived links per model",
			Buckets: countBuckets,
		},
	)

	r.PipelineModelNodes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rk_pipeline_model_nodes",
			Help:    "Number of nodes in the structural graph per model",
			Buckets: countBuckets,
		},
	)

	r.PipelineRemapsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "rk_pipeline_remaps_total",
			Help: "Total number of knob remaps",
		},
	)
}

func (r *Registry) initFilterMetrics() {
	r.FilterEvaluationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_filter_evaluations_total",
			Help: "Total number of filter evaluations by filter kind and outcome",
		},
		[]string{"kind", "result"},
	)
}

func (r *Registry) initDistanceMetrics() {
	r.DistanceComputationsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_distance_computations_total",
			Help: "Total number of model distance computations",
		},
		[]string{"method", "status"},
	)

	r.DistanceValue = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rk_distance_value",
			Help:    "Distribution of computed model distances",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"method"},
	)
}

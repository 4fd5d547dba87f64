package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the toolkit
type Registry struct {
	// Pipeline Metrics
	PipelineRunsTotal     *prometheus.CounterVec
	PipelineRunDuration   prometheus.Histogram
	PipelineStageDuration *prometheus.HistogramVec
	PipelineMaskedNodes   prometheus.Histogram
	PipelineLinks         prometheus.Histogram
	PipelineModelNodes    prometheus.Histogram
	PipelineRemapsTotal   prometheus.Counter

	// Filter Metrics
	FilterEvaluationsTotal *prometheus.CounterVec

	// Distance Metrics
	DistanceComputationsTotal *prometheus.CounterVec
	DistanceValue             *prometheus.HistogramVec

	// IO Metrics
	ModelsWrittenTotal *prometheus.CounterVec
	ModelsReadTotal    *prometheus.CounterVec
	ModelBytesWritten  *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initPipelineMetrics()
	r.initFilterMetrics()
	r.initDistanceMetrics()
	r.initIOMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

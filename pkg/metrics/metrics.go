package metrics

import (
	"time"
)

// Status label values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

func status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordPipelineRun records a finished pipeline transform
func (r *Registry) RecordPipelineRun(duration time.Duration, nodes, masked, links int, err error) {
	r.PipelineRunsTotal.WithLabelValues(status(err)).Inc()
	r.PipelineRunDuration.Observe(duration.Seconds())
	if err != nil {
		return
	}
	r.PipelineModelNodes.Observe(float64(nodes))
	r.PipelineMaskedNodes.Observe(float64(masked))
	r.PipelineLinks.Observe(float64(links))
}

// RecordStage records the duration of one pipeline stage
func (r *Registry) RecordStage(stage string, duration time.Duration) {
	r.PipelineStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRemap counts a knob remap
func (r *Registry) RecordRemap() {
	r.PipelineRemapsTotal.Inc()
}

// RecordFilter records a single filter decision
func (r *Registry) RecordFilter(kind string, filtered bool) {
	result := "keep"
	if filtered {
		result = "filter"
	}
	r.FilterEvaluationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordDistance records a model distance computation
func (r *Registry) RecordDistance(method string, value float64, err error) {
	r.DistanceComputationsTotal.WithLabelValues(method, status(err)).Inc()
	if err == nil {
		r.DistanceValue.WithLabelValues(method).Observe(value)
	}
}

// RecordWrite records a model write
func (r *Registry) RecordWrite(backend string, bytes int, err error) {
	r.ModelsWrittenTotal.WithLabelValues(backend, status(err)).Inc()
	if err == nil {
		r.ModelBytesWritten.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordRead records a decoded model
func (r *Registry) RecordRead(backend string) {
	r.ModelsReadTotal.WithLabelValues(backend).Inc()
}

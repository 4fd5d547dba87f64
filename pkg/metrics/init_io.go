package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initIOMetrics() {
	r.ModelsWrittenTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_io_models_written_total",
			Help: "Total number of models handed to a writer",
		},
		[]string{"backend", "status"},
	)

	r.ModelsReadTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_io_models_read_total",
			Help: "Total number of models decoded by a reader",
		},
		[]string{"backend"},
	)

	r.ModelBytesWritten = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "rk_io_bytes_written_total",
			Help: "Total encoded model bytes written",
		},
		[]string{"backend"},
	)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRenderMetrics() {
	r.FramesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topomap_render_frames_total",
			Help: "Frames processed, by outcome",
		},
		[]string{"outcome"},
	)

	r.FrameDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topomap_render_frame_duration_seconds",
			Help:    "Full frame duration (drain, tick, draw) in seconds",
			Buckets: []float64{0.0005, 0.001, 0.004, 0.008, 0.016, 0.033, 0.1},
		},
	)

	r.LabelsSuppressedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_render_labels_suppressed_total",
			Help: "Labels skipped for low zoom or overlap",
		},
	)
}

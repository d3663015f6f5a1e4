package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initEngineMetrics() {
	r.TicksTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_engine_ticks_total",
			Help: "Total number of simulation ticks",
		},
	)

	r.TickDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topomap_engine_tick_duration_seconds",
			Help:    "Simulation tick duration in seconds",
			Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.004, 0.008, 0.016, 0.033},
		},
	)

	r.Alpha = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_engine_alpha",
			Help: "Current simulation alpha",
		},
	)

	r.AlphaTarget = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_engine_alpha_target",
			Help: "Current simulation alpha target",
		},
	)

	r.EngineState = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topomap_engine_state",
			Help: "Engine state (1 for the active state)",
		},
		[]string{"state"},
	)

	r.CoordinateResetsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_engine_coordinate_resets_total",
			Help: "Nodes whose non-finite coordinates were reset",
		},
	)
}

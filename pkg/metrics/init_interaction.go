package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initInteractionMetrics() {
	r.SelectionsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_interaction_selections_total",
			Help: "Node selections delivered to the host",
		},
	)

	r.DragsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_interaction_drags_total",
			Help: "Completed node drags",
		},
	)

	r.ZoomScale = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_interaction_zoom_scale",
			Help: "Current view zoom factor",
		},
	)

	r.IgnoredEventsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_interaction_ignored_events_total",
			Help: "Pointer events dropped because the view was torn down",
		},
	)
}

func (r *Registry) initFeedMetrics() {
	r.FeedMessagesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topomap_feed_messages_total",
			Help: "Snapshot messages received by feeds",
		},
		[]string{"source", "status"},
	)
}

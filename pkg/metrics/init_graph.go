package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initGraphMetrics() {
	r.GraphNodes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_graph_nodes",
			Help: "Number of nodes in the working set",
		},
	)

	r.GraphEdges = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "topomap_graph_edges",
			Help: "Number of edges in the working set after filtering",
		},
	)

	r.LoadsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_graph_loads_total",
			Help: "Total number of snapshots loaded into the model",
		},
	)

	r.LoadDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "topomap_graph_load_duration_seconds",
			Help:    "Time spent diffing and placing a snapshot",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
	)

	r.DroppedEdgesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "topomap_graph_dropped_edges_total",
			Help: "Edges dropped at ingestion",
		},
		[]string{"reason"},
	)

	r.DuplicateIDsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_graph_duplicate_ids_total",
			Help: "Duplicate node ids seen in inbound snapshots",
		},
	)

	r.PlacedNodesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "topomap_graph_placed_nodes_total",
			Help: "New nodes given a seed position",
		},
	)
}

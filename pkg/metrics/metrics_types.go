package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the visualization core
type Registry struct {
	// Graph model
	GraphNodes        prometheus.Gauge
	GraphEdges        prometheus.Gauge
	LoadsTotal        prometheus.Counter
	LoadDuration      prometheus.Histogram
	DroppedEdgesTotal *prometheus.CounterVec
	DuplicateIDsTotal prometheus.Counter
	PlacedNodesTotal  prometheus.Counter

	// Force engine
	TicksTotal            prometheus.Counter
	TickDuration          prometheus.Histogram
	Alpha                 prometheus.Gauge
	AlphaTarget           prometheus.Gauge
	EngineState           *prometheus.GaugeVec
	CoordinateResetsTotal prometheus.Counter

	// Renderer
	FramesTotal           *prometheus.CounterVec
	FrameDuration         prometheus.Histogram
	LabelsSuppressedTotal prometheus.Counter

	// Interaction
	SelectionsTotal    prometheus.Counter
	DragsTotal         prometheus.Counter
	ZoomScale          prometheus.Gauge
	IgnoredEventsTotal prometheus.Counter

	// Feeds
	FeedMessagesTotal *prometheus.CounterVec

	registry *prometheus.Registry
	mu       sync.RWMutex
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

	r.initGraphMetrics()
	r.initEngineMetrics()
	r.initRenderMetrics()
	r.initInteractionMetrics()
	r.initFeedMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

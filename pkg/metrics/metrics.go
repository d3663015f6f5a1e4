package metrics

import (
	"time"
)

// Engine state label values
var engineStates = []string{"idle", "running", "cooling", "stopped"}

// RecordLoad records a snapshot load
func (r *Registry) RecordLoad(nodes, edges, dangling, selfLoops, duplicates, placed int, duration time.Duration) {
	r.LoadsTotal.Inc()
	r.LoadDuration.Observe(duration.Seconds())
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
	if dangling > 0 {
		r.DroppedEdgesTotal.WithLabelValues("dangling").Add(float64(dangling))
	}
	if selfLoops > 0 {
		r.DroppedEdgesTotal.WithLabelValues("self_loop").Add(float64(selfLoops))
	}
	if duplicates > 0 {
		r.DuplicateIDsTotal.Add(float64(duplicates))
	}
	if placed > 0 {
		r.PlacedNodesTotal.Add(float64(placed))
	}
}

// RecordTick records one simulation tick
func (r *Registry) RecordTick(duration time.Duration, alpha, alphaTarget float64, resets int) {
	r.TicksTotal.Inc()
	r.TickDuration.Observe(duration.Seconds())
	r.Alpha.Set(alpha)
	r.AlphaTarget.Set(alphaTarget)
	if resets > 0 {
		r.CoordinateResetsTotal.Add(float64(resets))
	}
}

// SetEngineState marks the active engine state
func (r *Registry) SetEngineState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range engineStates {
		r.EngineState.WithLabelValues(s).Set(0)
	}
	r.EngineState.WithLabelValues(state).Set(1)
}

// RecordFrame records a processed frame. Outcome is "drawn", "idle" or "skipped".
func (r *Registry) RecordFrame(outcome string, duration time.Duration, labelsSuppressed int) {
	r.FramesTotal.WithLabelValues(outcome).Inc()
	r.FrameDuration.Observe(duration.Seconds())
	if labelsSuppressed > 0 {
		r.LabelsSuppressedTotal.Add(float64(labelsSuppressed))
	}
}

// RecordSelection records a node selection
func (r *Registry) RecordSelection() {
	r.SelectionsTotal.Inc()
}

// RecordDrag records a completed drag
func (r *Registry) RecordDrag() {
	r.DragsTotal.Inc()
}

// SetZoom records the current zoom factor
func (r *Registry) SetZoom(k float64) {
	r.ZoomScale.Set(k)
}

// RecordIgnoredEvent records an event dropped after teardown
func (r *Registry) RecordIgnoredEvent() {
	r.IgnoredEventsTotal.Inc()
}

// RecordFeedMessage records a feed message. Status is "ok" or "error".
func (r *Registry) RecordFeedMessage(source, status string) {
	r.FeedMessagesTotal.WithLabelValues(source, status).Inc()
}

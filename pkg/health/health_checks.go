package health

import (
	"fmt"
	"time"
)

// EngineCheck reports the force engine. A stopped engine means the view has
// been torn down.
func EngineCheck(state func() (name string, alpha float64, stopped bool)) CheckFunc {
	return func() Check {
		name, alpha, stopped := state()
		check := Check{
			Name:    "engine",
			Details: map[string]any{"state": name, "alpha": alpha},
		}
		if stopped {
			check.Status = StatusUnhealthy
			check.Message = "Simulation stopped"
		} else {
			check.Status = StatusHealthy
			check.Message = "Simulation " + name
		}
		return check
	}
}

// SnapshotCheck reports whether a snapshot has been applied.
func SnapshotCheck(current func() (revision string, nodes int)) CheckFunc {
	return func() Check {
		rev, nodes := current()
		check := Check{
			Name:    "snapshot",
			Details: map[string]any{"revision": rev, "nodes": nodes},
		}
		switch {
		case rev == "":
			check.Status = StatusUnhealthy
			check.Message = "Waiting for the first snapshot"
		case nodes == 0:
			check.Status = StatusDegraded
			check.Message = "Snapshot is empty"
		default:
			check.Status = StatusHealthy
			check.Message = fmt.Sprintf("%d nodes loaded", nodes)
		}
		return check
	}
}

// FeedCheck reports the snapshot feeds. Stopped feeds degrade the view: it
// keeps showing the last good layout. A feed that has not delivered within
// staleAfter also degrades it; zero disables the age check.
func FeedCheck(state func() (running, stopped int, last time.Time), staleAfter time.Duration) CheckFunc {
	return func() Check {
		running, stopped, last := state()
		check := Check{
			Name:    "feeds",
			Details: map[string]any{"running": running, "stopped": stopped},
		}
		if !last.IsZero() {
			check.Details["last_delivery"] = last
		}
		switch {
		case running == 0 && stopped == 0:
			check.Status = StatusHealthy
			check.Message = "No feeds configured"
		case running == 0:
			check.Status = StatusDegraded
			check.Message = "All feeds stopped"
		case stopped > 0:
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("%d of %d feeds stopped", stopped, running+stopped)
		case staleAfter > 0 && (last.IsZero() || time.Since(last) > staleAfter):
			check.Status = StatusDegraded
			check.Message = "No snapshot delivered recently"
		default:
			check.Status = StatusHealthy
			check.Message = "Feeds delivering"
		}
		return check
	}
}

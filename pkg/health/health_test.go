package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCheckerAggregatesWorstStatus(t *testing.T) {
	c := NewChecker()
	c.RegisterLiveness("a", func() Check { return Check{Status: StatusHealthy} })
	c.RegisterLiveness("b", func() Check { return Check{Status: StatusDegraded} })

	resp := c.Liveness()
	if resp.Status != StatusDegraded {
		t.Errorf("Expected degraded, got %s", resp.Status)
	}
	if resp.Checks["a"].Name != "a" {
		t.Errorf("Unnamed check should take its registered name, got %q", resp.Checks["a"].Name)
	}

	c.RegisterReadiness("c", func() Check { return Check{Status: StatusUnhealthy} })
	if got := c.Liveness().Status; got != StatusDegraded {
		t.Errorf("Readiness checks must not affect liveness, got %s", got)
	}
	ready := c.Readiness()
	if ready.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy readiness, got %s", ready.Status)
	}
	if len(ready.Checks) != 3 {
		t.Errorf("Readiness should include liveness checks, got %d", len(ready.Checks))
	}
}

func TestEngineCheck(t *testing.T) {
	tests := []struct {
		name    string
		stopped bool
		want    Status
	}{
		{"running", false, StatusHealthy},
		{"cooling", false, StatusHealthy},
		{"stopped", true, StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := EngineCheck(func() (string, float64, bool) { return tt.name, 0.5, tt.stopped })()
			if check.Status != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, check.Status)
			}
			if check.Details["state"] != tt.name {
				t.Errorf("Missing state detail: %v", check.Details)
			}
		})
	}
}

func TestSnapshotCheck(t *testing.T) {
	tests := []struct {
		rev   string
		nodes int
		want  Status
	}{
		{"", 0, StatusUnhealthy},
		{"r1", 0, StatusDegraded},
		{"r1", 10, StatusHealthy},
	}
	for _, tt := range tests {
		check := SnapshotCheck(func() (string, int) { return tt.rev, tt.nodes })()
		if check.Status != tt.want {
			t.Errorf("rev=%q nodes=%d: expected %s, got %s", tt.rev, tt.nodes, tt.want, check.Status)
		}
	}
}

func TestFeedCheck(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name             string
		running, stopped int
		last             time.Time
		stale            time.Duration
		want             Status
	}{
		{"none configured", 0, 0, time.Time{}, time.Minute, StatusHealthy},
		{"all stopped", 0, 2, now, 0, StatusDegraded},
		{"one stopped", 1, 1, now, 0, StatusDegraded},
		{"fresh", 2, 0, now, time.Minute, StatusHealthy},
		{"stale", 1, 0, now.Add(-time.Hour), time.Minute, StatusDegraded},
		{"never delivered", 1, 0, time.Time{}, time.Minute, StatusDegraded},
		{"age check disabled", 1, 0, time.Time{}, 0, StatusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := FeedCheck(func() (int, int, time.Time) { return tt.running, tt.stopped, tt.last }, tt.stale)()
			if check.Status != tt.want {
				t.Errorf("Expected %s, got %s (%s)", tt.want, check.Status, check.Message)
			}
		})
	}
}

func TestHandlers(t *testing.T) {
	rev := ""
	c := NewChecker()
	c.RegisterLiveness("engine", EngineCheck(func() (string, float64, bool) { return "running", 1, false }))
	c.RegisterReadiness("snapshot", SnapshotCheck(func() (string, int) { return rev, 3 }))

	serve := func(h http.HandlerFunc) (*httptest.ResponseRecorder, Response) {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		var resp Response
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Invalid JSON body: %v", err)
		}
		return rec, resp
	}

	rec, resp := serve(c.LivenessHandler())
	if rec.Code != http.StatusOK || resp.Status != StatusHealthy {
		t.Errorf("Liveness: code %d status %s", rec.Code, resp.Status)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Unexpected content type %q", ct)
	}

	rec, resp = serve(c.ReadinessHandler())
	if rec.Code != http.StatusServiceUnavailable || resp.Status != StatusUnhealthy {
		t.Errorf("Readiness before load: code %d status %s", rec.Code, resp.Status)
	}

	rev = "r1"
	rec, _ = serve(c.ReadinessHandler())
	if rec.Code != http.StatusOK {
		t.Errorf("Readiness after load: code %d", rec.Code)
	}
}

package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/csspublisher/internal/version"
)

// HealthStatus represents the overall health of the daemon.
type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
)

// LastRun summarises the most recent finished run.
type LastRun struct {
	RunID      string    `json:"run_id"`
	Outcome    string    `json:"outcome"`
	Commit     string    `json:"commit,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    HealthStatus `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Uptime    string       `json:"uptime"`
	Version   string       `json:"version"`
	Runs      int64        `json:"runs"`
	Skipped   int64        `json:"skipped"`
	LastRun   *LastRun     `json:"last_run,omitempty"`
}

// Health reports the daemon state. The daemon is degraded while the last
// run failed; it stays up either way so the next tick can recover.
func (d *Daemon) Health() *HealthResponse {
	resp := &HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Uptime:    time.Since(d.startedAt).Truncate(time.Second).String(),
		Version:   version.Version,
		Runs:      d.runs.Load(),
		Skipped:   d.skipped.Load(),
	}
	if last := d.lastRun.Load(); last != nil {
		resp.LastRun = last
		if last.Outcome != "success" {
			resp.Status = HealthStatusDegraded
		}
	}
	return resp
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d.Health())
}

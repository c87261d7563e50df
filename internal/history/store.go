package history

import (
	"context"
	"time"
)

// Run status values stored in the runs table.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
)

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	SourceURL   string        `json:"source_url"`
	Reason      string        `json:"reason,omitempty"`
	Destination string        `json:"destination"`
	Status      string        `json:"status"`
	Outcome     string        `json:"outcome,omitempty"`
	Commit      string        `json:"commit,omitempty"`
	Error       string        `json:"error,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	FinishedAt  *time.Time    `json:"finished_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
}

// Store persists run events and summaries.
type Store interface {
	// Append adds a new event for runID.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events of a run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// SaveRun inserts or replaces a run summary.
	SaveRun(ctx context.Context, run RunSummary) error

	// RecentRuns lists up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)

	// Close closes the store and releases resources.
	Close() error
}

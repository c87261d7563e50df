package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

// Sink records pipeline events in a Store.
type Sink struct {
	store       Store
	destination string
	now         func() time.Time
}

var _ pipeline.EventSink = (*Sink)(nil)

// NewSink returns a sink writing to store. destination is recorded on the
// run summary created when a run starts.
func NewSink(store Store, destination string) *Sink {
	return &Sink{store: store, destination: destination, now: time.Now}
}

func (s *Sink) RunStarted(ctx context.Context, runID string, req pipeline.PublishRequest) error {
	payload, err := json.Marshal(map[string]any{
		"source_url":  req.SourceURL,
		"reason":      req.Reason,
		"destination": s.destination,
	})
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", EventRunStarted, err)
	}
	if err := s.store.Append(ctx, runID, EventRunStarted, payload, nil); err != nil {
		return err
	}
	return s.store.SaveRun(ctx, RunSummary{
		RunID:       runID,
		SourceURL:   req.SourceURL,
		Reason:      req.Reason,
		Destination: s.destination,
		Status:      StatusRunning,
		StartedAt:   s.now(),
	})
}

func (s *Sink) StateChanged(ctx context.Context, runID string, t pipeline.Transition) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", EventStateChanged, err)
	}
	return s.store.Append(ctx, runID, EventStateChanged, payload, map[string]string{"state": string(t.To)})
}

// RunFinished records the outcome even when the run's context was canceled,
// so an interrupted run does not stay "running" forever.
func (s *Sink) RunFinished(ctx context.Context, o *pipeline.Outcome) error {
	ctx = context.WithoutCancel(ctx)
	summary := SummaryFromOutcome(o)
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", EventRunFinished, err)
	}
	if err := s.store.Append(ctx, o.RunID, EventRunFinished, payload, map[string]string{"outcome": string(o.Kind)}); err != nil {
		return err
	}
	return s.store.SaveRun(ctx, summary)
}

// SummaryFromOutcome converts a finished run into its stored summary.
func SummaryFromOutcome(o *pipeline.Outcome) RunSummary {
	finished := o.StartedAt.Add(o.Duration)
	summary := RunSummary{
		RunID:       o.RunID,
		SourceURL:   o.Request.SourceURL,
		Reason:      o.Request.Reason,
		Destination: o.Destination,
		Status:      StatusFinished,
		Outcome:     string(o.Kind),
		Commit:      o.Commit,
		StartedAt:   o.StartedAt,
		FinishedAt:  &finished,
		Duration:    o.Duration,
	}
	if o.Err != nil {
		summary.Error = o.Err.Error()
	}
	return summary
}

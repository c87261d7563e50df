package pipeline

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/csspublisher/internal/logfields"
)

// EventSink observes runs. Implementations persist or broadcast what they
// see; an error is logged and never affects the run.
type EventSink interface {
	RunStarted(ctx context.Context, runID string, req PublishRequest) error
	StateChanged(ctx context.Context, runID string, t Transition) error
	RunFinished(ctx context.Context, o *Outcome) error
}

// NoopSink discards all events.
type NoopSink struct{}

func (NoopSink) RunStarted(context.Context, string, PublishRequest) error { return nil }
func (NoopSink) StateChanged(context.Context, string, Transition) error   { return nil }
func (NoopSink) RunFinished(context.Context, *Outcome) error              { return nil }

// MultiSink delivers every event to each sink in order.
type MultiSink []EventSink

func (m MultiSink) RunStarted(ctx context.Context, runID string, req PublishRequest) error {
	for _, s := range m {
		logSinkError(ctx, "run_started", s.RunStarted(ctx, runID, req))
	}
	return nil
}

func (m MultiSink) StateChanged(ctx context.Context, runID string, t Transition) error {
	for _, s := range m {
		logSinkError(ctx, "state_changed", s.StateChanged(ctx, runID, t))
	}
	return nil
}

func (m MultiSink) RunFinished(ctx context.Context, o *Outcome) error {
	for _, s := range m {
		logSinkError(ctx, "run_finished", s.RunFinished(ctx, o))
	}
	return nil
}

func logSinkError(ctx context.Context, event string, err error) {
	if err != nil {
		slog.WarnContext(ctx, "Event sink failed", slog.String("event", event), logfields.Error(err))
	}
}

// Package events broadcasts the outcome of every publish run over NATS so
// other services (chat bots, dashboards) can react to it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

// RunEvent is the JSON message published when a run finishes.
type RunEvent struct {
	RunID       string    `json:"run_id"`
	Outcome     string    `json:"outcome"`
	Succeeded   bool      `json:"succeeded"`
	Destination string    `json:"destination"`
	SourceURL   string    `json:"source_url"`
	Reason      string    `json:"reason,omitempty"`
	Commit      string    `json:"commit,omitempty"`
	FailedStage string    `json:"failed_stage,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunEvent converts an outcome into its broadcast form.
func NewRunEvent(o *pipeline.Outcome) RunEvent {
	ev := RunEvent{
		RunID:       o.RunID,
		Outcome:     string(o.Kind),
		Succeeded:   o.Succeeded(),
		Destination: o.Destination,
		SourceURL:   o.Request.SourceURL,
		Reason:      o.Request.Reason,
		Commit:      o.Commit,
		FailedStage: string(o.FailedStage()),
		StartedAt:   o.StartedAt,
		DurationMS:  o.Duration.Milliseconds(),
		Timestamp:   time.Now(),
	}
	if o.Err != nil {
		ev.Error = o.Err.Error()
	}
	return ev
}

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// Publisher is a pipeline.EventSink that publishes RunEvents.
type Publisher struct {
	conn    Conn
	subject string
	close   func()
}

var _ pipeline.EventSink = (*Publisher)(nil)

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, subject string) *Publisher {
	if subject == "" {
		subject = config.DefaultEventSubject
	}
	return &Publisher{conn: conn, subject: subject, close: func() {}}
}

// Connect dials the configured NATS server.
func Connect(cfg config.EventsConfig) (*Publisher, error) {
	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name("csspublisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p := NewPublisher(conn, cfg.Subject)
	p.close = func() {
		if err := conn.Drain(); err != nil {
			conn.Close()
		}
	}
	slog.Info("NATS event publisher initialized", logfields.URL(cfg.NATSURL), slog.String("subject", p.subject))
	return p, nil
}

// Subject returns the subject run events are published on.
func (p *Publisher) Subject() string { return p.subject }

func (p *Publisher) RunStarted(context.Context, string, pipeline.PublishRequest) error { return nil }

func (p *Publisher) StateChanged(context.Context, string, pipeline.Transition) error { return nil }

// RunFinished publishes the outcome. Delivery is fire-and-forget and does
// not depend on the run's context being live.
func (p *Publisher) RunFinished(ctx context.Context, o *pipeline.Outcome) error {
	ctx = context.WithoutCancel(ctx)
	data, err := json.Marshal(NewRunEvent(o))
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}
	slog.DebugContext(ctx, "Published run event", logfields.Outcome(string(o.Kind)), slog.String("subject", p.subject))
	return nil
}

// Close drains and closes the connection if this publisher opened it.
func (p *Publisher) Close() {
	p.close()
}

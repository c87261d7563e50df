package pipeline

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/finisher"
	"git.home.luguber.info/inful/csspublisher/internal/git"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
	"git.home.luguber.info/inful/csspublisher/internal/logging"
	"git.home.luguber.info/inful/csspublisher/internal/metrics"
	"git.home.luguber.info/inful/csspublisher/internal/notify"
	"git.home.luguber.info/inful/csspublisher/internal/publish"
	"git.home.luguber.info/inful/csspublisher/internal/stylesheet"
)

// Cloner populates a fresh working tree.
type Cloner interface {
	Prepare(ctx context.Context, sourceURL string) (*git.WorkingTree, error)
}

// Compiler turns the entry stylesheet into CSS.
type Compiler interface {
	Compile(ctx context.Context, entryPath string) (*stylesheet.CompiledDocument, error)
}

// Finisher produces the publishable document.
type Finisher interface {
	Finish(doc *stylesheet.CompiledDocument, destination string) (*finisher.PublishableDocument, error)
}

// Publisher pushes the document and its assets.
type Publisher interface {
	Publish(ctx context.Context, doc *finisher.PublishableDocument, assetDir, reason string) error
}

// Notifier informs moderators of a rejected stylesheet.
type Notifier interface {
	Notify(ctx context.Context, destination, reason string, originalErr error) error
}

// ArtifactWriter keeps a copy of the finished stylesheet for inspection.
type ArtifactWriter interface {
	WriteFile(name string, data []byte) (string, error)
}

// Dependencies are the collaborators of an Orchestrator. Artifacts is
// optional.
type Dependencies struct {
	Cloner    Cloner
	Compiler  Compiler
	Finisher  Finisher
	Publisher Publisher
	Notifier  Notifier
	Artifacts ArtifactWriter
}

// Orchestrator sequences a run and maps its result to an Outcome.
type Orchestrator struct {
	cfg      *config.Config
	deps     Dependencies
	recorder metrics.Recorder
	sink     EventSink
	clock    clockwork.Clock
	newID    func() string

	mu sync.Mutex
}

// New creates an orchestrator over explicit collaborators.
func New(cfg *config.Config, deps Dependencies) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		deps:     deps,
		recorder: metrics.NoopRecorder{},
		sink:     NoopSink{},
		clock:    clockwork.NewRealClock(),
		newID:    uuid.NewString,
	}
}

// WithRecorder attaches a metrics recorder; the publisher receives it too
// when it supports one.
func (o *Orchestrator) WithRecorder(r metrics.Recorder) *Orchestrator {
	if r == nil {
		return o
	}
	o.recorder = r
	if p, ok := o.deps.Publisher.(*publish.Publisher); ok {
		p.WithRecorder(r)
	}
	return o
}

// WithSink attaches run observers. Multiple sinks are delivered in order.
func (o *Orchestrator) WithSink(sinks ...EventSink) *Orchestrator {
	switch len(sinks) {
	case 0:
	case 1:
		o.sink = sinks[0]
	default:
		o.sink = MultiSink(sinks)
	}
	return o
}

// WithClock replaces the clock used for durations and transition times.
func (o *Orchestrator) WithClock(c clockwork.Clock) *Orchestrator {
	if c != nil {
		o.clock = c
	}
	return o
}

// Destination returns the configured subreddit.
func (o *Orchestrator) Destination() string { return o.cfg.Destination.Subreddit }

// run tracks the state machine of a single execution.
type run struct {
	id          string
	state       State
	transitions []Transition
}

func (o *Orchestrator) advance(ctx context.Context, r *run, to State) {
	if !CanTransition(r.state, to) {
		// Programming error; record it rather than corrupt the trail.
		slog.ErrorContext(ctx, "Invalid state transition", logfields.State(string(r.state)), slog.String("to", string(to)))
		return
	}
	t := Transition{From: r.state, To: to, At: o.clock.Now()}
	r.transitions = append(r.transitions, t)
	r.state = to
	slog.DebugContext(ctx, "State changed", logfields.State(string(to)), slog.String("from", string(t.From)))
	logSinkError(ctx, "state_changed", o.sink.StateChanged(ctx, r.id, t))
}

// stage enters state and runs fn, timing it and wrapping any failure in a
// StageError.
func (o *Orchestrator) stage(ctx context.Context, r *run, state State, fn func(context.Context) error) error {
	o.advance(ctx, r, state)
	t0 := o.clock.Now()
	err := fn(ctx)
	dur := o.clock.Since(t0)
	o.recorder.ObserveStageDuration(string(state), dur)
	if err == nil {
		o.recorder.IncStageResult(string(state), metrics.ResultSuccess)
		return nil
	}
	se := newStageError(state, err)
	if se.Kind == StageErrorCanceled {
		o.recorder.IncStageResult(string(state), metrics.ResultCanceled)
	} else {
		o.recorder.IncStageResult(string(state), metrics.ResultFailed)
	}
	slog.ErrorContext(ctx, "Stage failed",
		logfields.Stage(string(state)),
		slog.String("kind", string(se.Kind)),
		logfields.DurationMS(float64(dur.Milliseconds())),
		logfields.Error(err))
	return se
}

// Run executes req once. The returned error is non-nil only when the run
// could not start (invalid request or a run already in progress); every
// started run yields an Outcome.
func (o *Orchestrator) Run(ctx context.Context, req PublishRequest) (*Outcome, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !o.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer o.mu.Unlock()

	r := &run{id: o.newID(), state: StateIdle}
	ctx = logging.WithRunID(ctx, r.id)
	start := o.clock.Now()
	destination := o.Destination()

	slog.InfoContext(ctx, "Publish run started", logfields.URL(req.SourceURL), logfields.Destination(destination))
	logSinkError(ctx, "run_started", o.sink.RunStarted(ctx, r.id, req))

	out := &Outcome{
		RunID:       r.id,
		Request:     req,
		Destination: destination,
		StartedAt:   start,
	}
	out.Kind, out.Err = o.execute(ctx, r, req, out)
	var se *StageError
	if stderrors.As(out.Err, &se) && se.Kind == StageErrorCanceled {
		out.Kind = OutcomeCanceled
	}

	o.advance(ctx, r, StateTerminal)
	out.FinalState = r.state
	out.Transitions = r.transitions
	out.Duration = o.clock.Since(start)

	o.recorder.ObserveRunDuration(out.Duration)
	o.recorder.IncRunOutcome(string(out.Kind))

	attrs := []any{
		logfields.Outcome(string(out.Kind)),
		logfields.Destination(destination),
		logfields.DurationMS(float64(out.Duration.Milliseconds())),
	}
	if out.Err != nil {
		slog.ErrorContext(ctx, "Publish run failed", append(attrs, logfields.Error(out.Err))...)
	} else {
		slog.InfoContext(ctx, "Publish run succeeded", attrs...)
	}
	logSinkError(ctx, "run_finished", o.sink.RunFinished(ctx, out))
	return out, nil
}

// execute walks the states up to (not including) terminal.
func (o *Orchestrator) execute(ctx context.Context, r *run, req PublishRequest, out *Outcome) (OutcomeKind, error) {
	destination := out.Destination

	var tree *git.WorkingTree
	if err := o.stage(ctx, r, StateCloning, func(ctx context.Context) error {
		t0 := o.clock.Now()
		var err error
		tree, err = o.deps.Cloner.Prepare(ctx, req.SourceURL)
		o.recorder.ObserveCloneDuration(o.clock.Since(t0), err == nil)
		return err
	}); err != nil {
		return OutcomeTransportFailure, err
	}
	out.Commit = tree.Commit

	var compiled *stylesheet.CompiledDocument
	if err := o.stage(ctx, r, StateCompiling, func(ctx context.Context) error {
		var err error
		compiled, err = o.deps.Compiler.Compile(ctx, o.cfg.EntryPath(tree.Root))
		return err
	}); err != nil {
		return OutcomeCompileFailure, err
	}

	var doc *finisher.PublishableDocument
	if err := o.stage(ctx, r, StateFinishing, func(ctx context.Context) error {
		var err error
		doc, err = o.deps.Finisher.Finish(compiled, destination)
		if err != nil {
			return err
		}
		o.writeArtifact(ctx, doc)
		return nil
	}); err != nil {
		return OutcomeCompileFailure, err
	}

	pubErr := o.stage(ctx, r, StatePublishing, func(ctx context.Context) error {
		return o.deps.Publisher.Publish(ctx, doc, o.cfg.AssetPath(tree.Root), req.Reason)
	})
	if pubErr == nil {
		o.advance(ctx, r, StateDone)
		return OutcomeSuccess, nil
	}

	var rejected *publish.RejectedError
	if !stderrors.As(pubErr, &rejected) {
		// Either the stylesheet is live and an image failed, or the run was
		// canceled before the remote answered. Neither warrants modmail.
		return OutcomeAssetUploadFailure, pubErr
	}

	if err := o.stage(ctx, r, StateNotifyingFailure, func(ctx context.Context) error {
		return o.deps.Notifier.Notify(ctx, destination, req.Reason, rejected.Err)
	}); err != nil {
		return OutcomeNotificationFailure, err
	}
	return OutcomePublishRejected, pubErr
}

func (o *Orchestrator) writeArtifact(ctx context.Context, doc *finisher.PublishableDocument) {
	if o.deps.Artifacts == nil {
		return
	}
	path, err := o.deps.Artifacts.WriteFile(config.DefaultPublishedName, []byte(doc.Text()))
	if err != nil {
		slog.WarnContext(ctx, "Could not keep a copy of the finished stylesheet", logfields.Error(err))
		return
	}
	slog.DebugContext(ctx, "Finished stylesheet written", logfields.Path(path))
}

var (
	_ Notifier = (*notify.Fallback)(nil)
	_ Cloner   = (*git.Client)(nil)
)

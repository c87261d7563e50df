package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
	"git.home.luguber.info/inful/csspublisher/internal/metrics"
	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

// ScheduledReason is attached to stylesheet revisions made by the daemon.
const ScheduledReason = "scheduled update"

// Runner executes a publish run.
type Runner interface {
	Run(ctx context.Context, req pipeline.PublishRequest) (*pipeline.Outcome, error)
}

// HeadResolver reports the commit the source currently points to.
type HeadResolver interface {
	RemoteHead(ctx context.Context, sourceURL string) (string, error)
}

// Daemon republishes the configured source on an interval. With a
// HeadResolver it only runs when the source has a commit it has not yet
// settled.
type Daemon struct {
	cfg       *config.Config
	runner    Runner
	heads     HeadResolver
	registry  *prom.Registry
	scheduler *Scheduler
	startedAt time.Time

	runs    atomic.Int64
	skipped atomic.Int64
	lastRun atomic.Pointer[LastRun]
	// settled is the last commit whose run needs no retry.
	settled atomic.Pointer[string]
	addr    atomic.Value
}

// NewRegistry returns a registry with the Go and process collectors and the
// pipeline recorder registered.
func NewRegistry() (*prom.Registry, *metrics.PrometheusRecorder) {
	reg := prom.NewRegistry()
	reg.MustRegister(promcollect.NewGoCollector(), promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	return reg, metrics.NewPrometheusRecorder(reg)
}

// New creates a daemon. reg is served on /metrics; nil serves the default
// registry.
func New(cfg *config.Config, runner Runner, reg *prom.Registry) (*Daemon, error) {
	s, err := NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Daemon{
		cfg:       cfg,
		runner:    runner,
		registry:  reg,
		scheduler: s,
		startedAt: time.Now(),
	}, nil
}

// WithHeadResolver enables change detection: ticks whose source HEAD equals
// the last settled commit are skipped.
func (d *Daemon) WithHeadResolver(h HeadResolver) *Daemon {
	d.heads = h
	return d
}

// Handler returns the HTTP routes served by the daemon.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.registry))
	mux.HandleFunc("/healthz", d.handleHealth)
	return mux
}

// Addr returns the bound listen address once Run has started listening.
func (d *Daemon) Addr() string {
	if v, ok := d.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Run schedules the publish job, serves HTTP and blocks until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	interval := d.cfg.Daemon.Interval
	if interval <= 0 {
		interval = config.DefaultInterval
	}
	if _, err := d.scheduler.ScheduleEvery("publish", interval, true, d.tick); err != nil {
		return err
	}

	ln, err := net.Listen("tcp", d.cfg.Daemon.MetricsAddr)
	if err != nil {
		return err
	}
	d.addr.Store(ln.Addr().String())
	srv := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	d.scheduler.Start()
	slog.Info("Watch daemon started",
		slog.String("addr", ln.Addr().String()),
		slog.Duration("interval", interval),
		logfields.URL(d.cfg.Source.URL),
		logfields.Destination(d.cfg.Destination.Subreddit))

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown failed", logfields.Error(err))
	}
	if err := d.scheduler.Stop(); err != nil {
		slog.Warn("Scheduler shutdown failed", logfields.Error(err))
	}
	slog.Info("Watch daemon stopped")
	return runErr
}

// tick runs one publish unless the source is unchanged since the last
// settled run. gocron passes a context canceled on shutdown.
func (d *Daemon) tick(ctx context.Context) {
	src := d.cfg.Source.URL
	if d.heads != nil {
		head, err := d.heads.RemoteHead(ctx, src)
		switch {
		case err != nil:
			// Let the run itself report the transport failure.
			slog.Warn("Could not resolve source HEAD", logfields.URL(src), logfields.Error(err))
		case head == d.settledCommit():
			d.skipped.Add(1)
			slog.Debug("Source unchanged; skipping scheduled run", logfields.Commit(head))
			return
		}
	}

	out, err := d.runner.Run(ctx, pipeline.PublishRequest{SourceURL: src, Reason: ScheduledReason})
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			slog.Info("Skipping scheduled run; previous run still in progress")
			return
		}
		slog.Error("Scheduled run could not start", logfields.Error(err))
		return
	}
	d.runs.Add(1)
	last := &LastRun{RunID: out.RunID, Outcome: string(out.Kind), Commit: out.Commit, FinishedAt: time.Now()}
	if out.Err != nil {
		last.Error = out.Err.Error()
	}
	d.lastRun.Store(last)
	if settles(out) {
		commit := out.Commit
		d.settled.Store(&commit)
	}
}

func (d *Daemon) settledCommit() string {
	if c := d.settled.Load(); c != nil {
		return *c
	}
	return ""
}

// settles reports whether rerunning out.Commit would repeat the same result.
// Rejections and compile failures are settled so moderators are told once
// per commit; canceled runs and image upload failures are retried.
func settles(out *pipeline.Outcome) bool {
	if out.Commit == "" {
		return false
	}
	switch out.Kind {
	case pipeline.OutcomeCanceled, pipeline.OutcomeAssetUploadFailure:
		return false
	default:
		return true
	}
}

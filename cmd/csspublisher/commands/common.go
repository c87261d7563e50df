// Package commands implements the csspublisher kong commands.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/events"
	"git.home.luguber.info/inful/csspublisher/internal/history"
	"git.home.luguber.info/inful/csspublisher/internal/logging"
	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Clone, compile and publish the stylesheet once"`
	Watch   WatchCmd   `cmd:"" help:"Republish on an interval and serve metrics"`
	History HistoryCmd `cmd:"" help:"List recent publish runs"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	Show    VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; sets up a logger until the
// configuration is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	g.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(g.Logger)
	return nil
}

// loadConfig loads the configuration and installs the configured logger.
// --verbose overrides the configured level.
func loadConfig(g *Global, root *CLI) (*config.Config, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if root.Verbose {
		level = config.LogLevelDebug
	}
	g.Logger = logging.New(level, cfg.Logging.Format, os.Stderr)
	slog.SetDefault(g.Logger)
	return cfg, nil
}

// openSinks builds the optional history and NATS sinks. The returned close
// function releases them.
func openSinks(cfg *config.Config) ([]pipeline.EventSink, func(), error) {
	var sinks []pipeline.EventSink
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.History.Path != "" {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, func() {
			if err := store.Close(); err != nil {
				slog.Warn("Failed to close history store", "error", err)
			}
		})
		sinks = append(sinks, history.NewSink(store, cfg.Destination.Subreddit))
	}

	if cfg.Events.NATSURL != "" {
		pub, err := events.Connect(cfg.Events)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, pub.Close)
		sinks = append(sinks, pub)
	}
	return sinks, closeAll, nil
}

// runOnce executes one publish run and converts a failed outcome into a
// classified error.
func runOnce(ctx context.Context, orch *pipeline.Orchestrator, req pipeline.PublishRequest) (*pipeline.Outcome, error) {
	out, err := orch.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	if cerr := pipeline.Classify(out); cerr != nil {
		return out, cerr
	}
	return out, nil
}

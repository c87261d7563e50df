package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/csspublisher/internal/daemon"
	"git.home.luguber.info/inful/csspublisher/internal/git"
	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
	"git.home.luguber.info/inful/csspublisher/internal/workspace"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Interval string `help:"Override the configured republish interval (e.g. 30m)"`
	Addr     string `help:"Override the metrics listen address"`
	Always   bool   `help:"Republish on every tick even when the source HEAD is unchanged"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if err := applyWatchOverrides(&cfg.Daemon, w.Interval, w.Addr); err != nil {
		return err
	}

	sinks, closeSinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	reg, recorder := daemon.NewRegistry()
	orch := pipeline.NewFromConfig(cfg).WithRecorder(recorder).WithSink(sinks...)

	d, err := daemon.New(cfg, orch, reg)
	if err != nil {
		return err
	}
	if !w.Always {
		d.WithHeadResolver(git.NewClient(workspace.NewManager(cfg.Workspace.Dir), cfg.Source))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return d.Run(ctx)
}

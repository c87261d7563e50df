package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/csspublisher/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Reason string `short:"r" help:"Reason recorded on the stylesheet revision"`
	Source string `help:"Override the configured source repository URL"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}

	sinks, closeSinks, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	src := cfg.Source.URL
	if r.Source != "" {
		src = r.Source
	}
	orch := pipeline.NewFromConfig(cfg).WithSink(sinks...)
	out, err := runOnce(ctx, orch, pipeline.PublishRequest{SourceURL: src, Reason: r.Reason})
	if err != nil {
		return err
	}
	fmt.Printf("Published stylesheet to /r/%s (commit %s, run %s)\n", orch.Destination(), shortCommit(out.Commit), out.RunID)
	return nil
}

func shortCommit(c string) string {
	if len(c) > 8 {
		return c[:8]
	}
	return c
}

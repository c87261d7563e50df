package pipeline

import (
	"path/filepath"

	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/finisher"
	"git.home.luguber.info/inful/csspublisher/internal/git"
	"git.home.luguber.info/inful/csspublisher/internal/notify"
	"git.home.luguber.info/inful/csspublisher/internal/publish"
	"git.home.luguber.info/inful/csspublisher/internal/reddit"
	"git.home.luguber.info/inful/csspublisher/internal/stylesheet"
	"git.home.luguber.info/inful/csspublisher/internal/workspace"
)

// NewFromConfig wires the production collaborators: a go-git clone into the
// configured workspace, the sass binary, the tdewolff minifier and the
// Reddit API.
func NewFromConfig(cfg *config.Config) *Orchestrator {
	ws := workspace.NewManager(cfg.Workspace.Dir)

	loadPaths := make([]string, 0, len(cfg.Source.LoadPaths))
	for _, p := range cfg.Source.LoadPaths {
		loadPaths = append(loadPaths, filepath.Join(ws.Path(), filepath.FromSlash(p)))
	}

	api := reddit.NewClient(cfg.Destination)
	return New(cfg, Dependencies{
		Cloner:    git.NewClient(ws, cfg.Source),
		Compiler:  stylesheet.NewCompiler(loadPaths...),
		Finisher:  finisher.New(),
		Publisher: publish.NewPublisher(api, cfg.Destination.Subreddit),
		Notifier:  notify.NewFallback(api),
		Artifacts: ws,
	})
}

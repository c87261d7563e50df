package git

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-git/go-git/v5"

	"git.home.luguber.info/inful/csspublisher/internal/auth"
	"git.home.luguber.info/inful/csspublisher/internal/config"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
	"git.home.luguber.info/inful/csspublisher/internal/workspace"
)

// WorkingTree is the checkout produced by Prepare. It is owned by the
// current run and erased by the next Prepare.
type WorkingTree struct {
	Root   string
	Commit string
}

// Client clones the source repository into the scratch directory.
type Client struct {
	workspace       *workspace.Manager
	auth            *auth.Registry
	authCfg         *config.AuthConfig
	insecureSkipTLS bool
	progress        io.Writer
}

// NewClient creates a client that clones into ws using the credentials and
// trust setting from src.
func NewClient(ws *workspace.Manager, src config.SourceConfig) *Client {
	return &Client{
		workspace:       ws,
		auth:            auth.NewRegistry(),
		authCfg:         src.Auth,
		insecureSkipTLS: src.TrustAnyServerIdentity,
	}
}

// WithProgress streams clone progress to w (fluent helper).
func (c *Client) WithProgress(w io.Writer) *Client { c.progress = w; return c }

// Prepare erases any previous checkout and clones sourceURL in full.
// No retry is attempted; every failure is fatal for the run.
func (c *Client) Prepare(ctx context.Context, sourceURL string) (*WorkingTree, error) {
	if err := c.workspace.Reset(); err != nil {
		return nil, err
	}
	repoPath := c.workspace.Path()

	method, err := c.auth.CreateAuth(c.authCfg)
	if err != nil {
		return nil, &TransportError{URL: sourceURL, Reason: ReasonAuth, Err: err}
	}

	slog.DebugContext(ctx, "Cloning repository",
		logfields.URL(sourceURL),
		logfields.Path(repoPath),
		slog.Bool("trust_any_server_identity", c.insecureSkipTLS))

	repository, err := git.PlainCloneContext(ctx, repoPath, false, &git.CloneOptions{
		URL:             sourceURL,
		Auth:            method,
		InsecureSkipTLS: c.insecureSkipTLS,
		Progress:        c.progress,
	})
	if err != nil {
		return nil, classifyCloneError(sourceURL, err)
	}

	tree := &WorkingTree{Root: repoPath}
	if ref, herr := repository.Head(); herr == nil {
		tree.Commit = ref.Hash().String()
		slog.InfoContext(ctx, "Repository cloned", logfields.URL(sourceURL), logfields.Commit(tree.Commit[:8]), logfields.Path(repoPath))
	} else {
		slog.InfoContext(ctx, "Repository cloned", logfields.URL(sourceURL), logfields.Path(repoPath))
	}
	return tree, nil
}

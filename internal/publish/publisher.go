package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/csspublisher/internal/finisher"
	"git.home.luguber.info/inful/csspublisher/internal/logfields"
	"git.home.luguber.info/inful/csspublisher/internal/metrics"
)

// API is the destination's remote interface.
type API interface {
	UpdateStylesheet(ctx context.Context, subreddit, css, reason string) error
	UploadImage(ctx context.Context, subreddit string, img AssetImage) error
}

// Publisher pushes documents and assets to a single destination.
type Publisher struct {
	api         API
	destination string
	recorder    metrics.Recorder
}

// NewPublisher returns a publisher targeting destination.
func NewPublisher(api API, destination string) *Publisher {
	return &Publisher{api: api, destination: destination, recorder: metrics.NoopRecorder{}}
}

// WithRecorder attaches a metrics recorder.
func (p *Publisher) WithRecorder(r metrics.Recorder) *Publisher {
	if r != nil {
		p.recorder = r
	}
	return p
}

// Destination returns the subreddit this publisher targets.
func (p *Publisher) Destination() string { return p.destination }

// Publish updates the stylesheet and, once it is accepted, uploads every
// image in assetDir concurrently. Publish returns after all uploads finish.
//
// Only a failure reported by the remote is a *RejectedError. Cancellation of
// ctx is returned as is so callers do not mistake it for a rejection.
func (p *Publisher) Publish(ctx context.Context, doc *finisher.PublishableDocument, assetDir, reason string) error {
	if err := p.api.UpdateStylesheet(ctx, p.destination, doc.Text(), reason); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("stylesheet update interrupted: %w: %w", cerr, err)
		}
		if isContextError(err) {
			return err
		}
		return &RejectedError{Destination: p.destination, Err: err}
	}
	slog.InfoContext(ctx, "Stylesheet accepted", logfields.Destination(p.destination))

	assets, err := DiscoverAssets(assetDir)
	if err != nil {
		return err
	}
	return p.uploadAll(ctx, assets)
}

func (p *Publisher) uploadAll(ctx context.Context, assets []AssetImage) error {
	p.recorder.SetAssetConcurrency(len(assets))
	if len(assets) == 0 {
		return nil
	}

	// Plain errgroup, not WithContext: one failed upload must not cancel the
	// others, and Wait must see all of them finish.
	var g errgroup.Group
	for _, asset := range assets {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &AssetUploadError{Asset: asset, Err: fmt.Errorf("panic: %v", r)}
				}
				p.recorder.IncAssetUpload(string(asset.Kind), err == nil)
				if err != nil {
					slog.ErrorContext(ctx, "Image upload failed",
						logfields.Destination(p.destination),
						logfields.Asset(asset.Name),
						logfields.Path(asset.FilePath),
						logfields.Error(err))
				}
			}()
			if uerr := p.api.UploadImage(ctx, p.destination, asset); uerr != nil {
				return &AssetUploadError{Asset: asset, Err: uerr}
			}
			slog.DebugContext(ctx, "Image uploaded", logfields.Destination(p.destination), logfields.Asset(asset.Name))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Images uploaded", logfields.Destination(p.destination), slog.Int("count", len(assets)))
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

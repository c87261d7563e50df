package pipeline

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
)

// PublishRequest is the input of a run.
type PublishRequest struct {
	// SourceURL locates the repository holding the style sources.
	SourceURL string
	// Reason is attached to the stylesheet revision at the destination.
	Reason string
}

// Validate rejects requests without a usable source location.
func (r PublishRequest) Validate() error {
	if strings.TrimSpace(r.SourceURL) == "" {
		return errors.ValidationError("source URL is required").Build()
	}
	if _, err := url.Parse(r.SourceURL); err != nil {
		return errors.ValidationError("source URL is not parsable").
			WithCause(err).
			WithContext("url", r.SourceURL).
			Build()
	}
	return nil
}

package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Reason is a coarse classification of a clone failure.
type Reason string

const (
	ReasonAuth     Reason = "auth"
	ReasonNotFound Reason = "not_found"
	ReasonNetwork  Reason = "network"
	ReasonProtocol Reason = "protocol"
	ReasonCanceled Reason = "canceled"
	ReasonUnknown  Reason = "unknown"
)

// TransportError reports that the working tree could not be populated.
type TransportError struct {
	URL    string
	Reason Reason
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("clone %s failed (%s): %v", e.URL, e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyCloneError maps go-git errors onto a Reason, preferring typed
// sentinels and falling back to message heuristics.
func classifyCloneError(url string, err error) error {
	reason := ReasonUnknown
	l := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		reason = ReasonCanceled
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed),
		strings.Contains(l, "authentication"),
		strings.Contains(l, "invalid username or password"):
		reason = ReasonAuth
	case errors.Is(err, transport.ErrRepositoryNotFound),
		strings.Contains(l, "not found"),
		strings.Contains(l, "does not exist"):
		reason = ReasonNotFound
	case strings.Contains(l, "unsupported protocol"),
		strings.Contains(l, "protocol not supported"),
		strings.Contains(l, "unsupported scheme"):
		reason = ReasonProtocol
	case strings.Contains(l, "timeout"),
		strings.Contains(l, "connection refused"),
		strings.Contains(l, "connection reset"),
		strings.Contains(l, "no such host"),
		strings.Contains(l, "no route to host"),
		strings.Contains(l, "remote hung up"):
		reason = ReasonNetwork
	}
	return &TransportError{URL: url, Reason: reason, Err: err}
}

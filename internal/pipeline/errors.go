package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/csspublisher/internal/git"
)

// ErrRunInProgress is returned by Run while another run is executing on the
// same Orchestrator.
var ErrRunInProgress = errors.NewError(errors.CategoryRuntime, "a publish run is already in progress").
	WithSeverity(errors.SeverityWarning).
	Build()

// StageErrorKind enumerates classes of stage failures.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"
	StageErrorCanceled StageErrorKind = "canceled"
)

// StageError wraps the failure of a single state.
type StageError struct {
	Kind  StageErrorKind
	Stage State
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newStageError(stage State, err error) *StageError {
	kind := StageErrorFatal
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		kind = StageErrorCanceled
	}
	return &StageError{Kind: kind, Stage: stage, Err: err}
}

// Classify converts a failed outcome into a ClassifiedError for the CLI and
// logs. It returns nil for a successful outcome.
func Classify(o *Outcome) *errors.ClassifiedError {
	if o == nil || o.Kind == OutcomeSuccess {
		return nil
	}

	var b *errors.ErrorBuilder
	switch o.Kind {
	case OutcomeTransportFailure:
		b = errors.NewError(errors.CategoryGit, "failed to clone source repository")
		var terr *git.TransportError
		if stderrors.As(o.Err, &terr) {
			b.WithContext("reason", string(terr.Reason)).WithContext("url", terr.URL)
			switch terr.Reason {
			case git.ReasonAuth:
				b.WithCategory(errors.CategoryAuth).UserAction()
			case git.ReasonNetwork:
				b.WithCategory(errors.CategoryNetwork).Retryable()
			}
		}
	case OutcomeCompileFailure:
		b = errors.NewError(errors.CategoryCompile, "failed to compile stylesheet").UserAction()
	case OutcomePublishRejected:
		b = errors.NewError(errors.CategoryPublish, "stylesheet rejected; moderators notified").UserAction()
	case OutcomeAssetUploadFailure:
		b = errors.NewError(errors.CategoryAsset, "stylesheet published but an image upload failed").Retryable()
	case OutcomeCanceled:
		b = errors.NewError(errors.CategoryRuntime, "publish run canceled").WithSeverity(errors.SeverityWarning)
	case OutcomeNotificationFailure:
		b = errors.NewError(errors.CategoryNotification, "stylesheet rejected and moderators could not be notified").Fatal()
	default:
		b = errors.InternalError("unknown run outcome")
	}
	return b.WithCause(o.Err).
		WithContext("run_id", o.RunID).
		WithContext("outcome", string(o.Kind)).
		Build()
}

package pipeline

import "time"

// OutcomeKind is the terminal result class of a run.
type OutcomeKind string

const (
	OutcomeSuccess             OutcomeKind = "success"
	OutcomeTransportFailure    OutcomeKind = "transport_failure"
	OutcomeCompileFailure      OutcomeKind = "compile_failure"
	OutcomePublishRejected     OutcomeKind = "publish_rejected"
	OutcomeAssetUploadFailure  OutcomeKind = "asset_upload_failure"
	OutcomeNotificationFailure OutcomeKind = "notification_failure"
	// OutcomeCanceled means the caller's context ended the run early.
	OutcomeCanceled            OutcomeKind = "canceled"
)

// Outcome is the single result of a run.
type Outcome struct {
	RunID       string
	Kind        OutcomeKind
	Request     PublishRequest
	Destination string
	Commit      string
	// Err is the *StageError of the failing state, nil on success.
	Err         error
	FinalState  State
	Transitions []Transition
	StartedAt   time.Time
	Duration    time.Duration
}

// Succeeded reports whether the stylesheet and all assets were published.
func (o *Outcome) Succeeded() bool { return o != nil && o.Kind == OutcomeSuccess }

// FailedStage returns the state in which the run failed, or "" on success.
func (o *Outcome) FailedStage() State {
	if se, ok := o.Err.(*StageError); ok {
		return se.Stage
	}
	return ""
}

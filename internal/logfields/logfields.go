package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyStage       = "stage"
	KeyState       = "state"
	KeyOutcome     = "outcome"
	KeyDurationMS  = "duration_ms"
	KeyURL         = "url"
	KeyPath        = "path"
	KeyCommit      = "commit"
	KeyDestination = "destination"
	KeyAsset       = "asset"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func Destination(d string) slog.Attr  { return slog.String(KeyDestination, d) }
func Asset(name string) slog.Attr     { return slog.String(KeyAsset, name) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

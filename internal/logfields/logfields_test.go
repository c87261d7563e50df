package logfields

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"RunID", KeyRunID, "r-1", RunID("r-1")},
		{"Stage", KeyStage, "compile", Stage("compile")},
		{"State", KeyState, "cloning", State("cloning")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
		{"URL", KeyURL, "https://example.com/r.git", URL("https://example.com/r.git")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Commit", KeyCommit, "abc12345", Commit("abc12345")},
		{"Destination", KeyDestination, "example", Destination("example")},
		{"Asset", KeyAsset, "banner", Asset("banner")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.attrKey, c.attr.Key)
			assert.Equal(t, c.attrVal, c.attr.Value.String())
		})
	}
}

func TestErrorAndDuration(t *testing.T) {
	assert.Equal(t, "", Error(nil).Value.String())
	assert.Equal(t, "boom", Error(errors.New("boom")).Value.String())
	assert.Equal(t, KeyError, Error(nil).Key)

	d := DurationMS(12.5)
	assert.Equal(t, KeyDurationMS, d.Key)
	assert.InDelta(t, 12.5, d.Value.Float64(), 0.0001)
}

package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("bad flag").Build(), expected: 2},
		{name: "auth", err: NewError(CategoryAuth, "unauthorized").Build(), expected: 5},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "git", err: NewError(CategoryGit, "clone failed").Build(), expected: 8},
		{name: "compile", err: NewError(CategoryCompile, "sass failed").Build(), expected: 11},
		{name: "publish rejected", err: NewError(CategoryPublish, "rejected").Build(), expected: 20},
		{name: "asset upload", err: NewError(CategoryAsset, "upload failed").Build(), expected: 21},
		{name: "notification", err: NewError(CategoryNotification, "modmail failed").Build(), expected: 22},
		{name: "unclassified", err: errors.New("boom"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	cause := errors.New("remote said no")
	err := WrapError(cause, CategoryPublish, "stylesheet rejected").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	assert.Equal(t, "publish failed: stylesheet rejected (use -v for details)", quiet.FormatError(err))

	verbose := NewCLIErrorAdapter(true, slog.Default())
	assert.Contains(t, verbose.FormatError(err), "remote said no")

	assert.Equal(t, "Error: plain", quiet.FormatError(errors.New("plain")))
	assert.Empty(t, quiet.FormatError(nil))
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	adapter := NewCLIErrorAdapter(false, logger)
	var out bytes.Buffer
	adapter.out = &out

	code := adapter.HandleError(NewError(CategoryCompile, "sass failed").WithContext("entry", "main.scss").Build())

	assert.Equal(t, 11, code)
	assert.Contains(t, out.String(), "sass failed")
	assert.Contains(t, logs.String(), "category=compile")
	assert.Contains(t, logs.String(), "entry=main.scss")

	adapter.out = io.Discard
	assert.Equal(t, 0, adapter.HandleError(nil))
}

package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComposer struct {
	sent []Message
	err  error
}

func (r *recordingComposer) ComposeMessage(_ context.Context, msg Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

func TestNotify_SendsSingleMessage(t *testing.T) {
	composer := &recordingComposer{}
	original := errors.New("BAD_CSS_NAME: invalid image name")

	err := NewFallback(composer).Notify(context.Background(), "example", "commit abc", original)
	require.NoError(t, err)

	require.Len(t, composer.sent, 1)
	msg := composer.sent[0]
	assert.Equal(t, "/r/example", msg.To)
	assert.Equal(t, "Failed to upload new stylesheet.", msg.Subject)
	assert.Contains(t, msg.Text, "/r/example:\n\nBAD_CSS_NAME: invalid image name")
	assert.Contains(t, msg.Text, "commit abc")
}

func TestNotify_DeliveryFailure(t *testing.T) {
	composer := &recordingComposer{err: errors.New("403 forbidden")}
	original := errors.New("rejected")

	err := NewFallback(composer).Notify(context.Background(), "example", "", original)
	var nerr *NotificationError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, original, nerr.Original)
	assert.ErrorIs(t, err, composer.err)
	assert.Len(t, composer.sent, 1, "no retry")
}

func TestBuildMessage_WithoutReason(t *testing.T) {
	msg := BuildMessage("example", "", errors.New("boom"))
	assert.Equal(t, "An error occurred uploading the stylesheet for /r/example:\n\nboom", msg.Text)
}

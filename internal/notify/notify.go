// Package notify tells a community's moderators that an automated stylesheet
// update was rejected.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/csspublisher/internal/logfields"
)

// Subject is the fixed subject line of the failure message.
const Subject = "Failed to upload new stylesheet."

// Message is a private message addressed to a user or a community's
// moderators (to "/r/<name>").
type Message struct {
	To      string
	Subject string
	Text    string
}

// Composer sends private messages.
type Composer interface {
	ComposeMessage(ctx context.Context, msg Message) error
}

// NotificationError reports that the failure message could not be delivered.
// Original is the publish error that prompted the notification.
type NotificationError struct {
	Original error
	Err      error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify moderators: %v (original error: %v)", e.Err, e.Original)
}

func (e *NotificationError) Unwrap() error { return e.Err }

// Fallback sends one moderator message per rejected publish.
type Fallback struct {
	composer Composer
}

// NewFallback returns a fallback delivering through composer.
func NewFallback(composer Composer) *Fallback {
	return &Fallback{composer: composer}
}

// Notify sends the failure message for destination. reason is the reason
// string of the rejected publish and is included for context.
func (f *Fallback) Notify(ctx context.Context, destination, reason string, originalErr error) error {
	msg := BuildMessage(destination, reason, originalErr)
	if err := f.composer.ComposeMessage(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to notify moderators",
			logfields.Destination(destination),
			logfields.Error(err))
		return &NotificationError{Original: originalErr, Err: err}
	}
	slog.InfoContext(ctx, "Moderators notified of rejected stylesheet", logfields.Destination(destination))
	return nil
}

// BuildMessage renders the moderator message for a rejected publish.
func BuildMessage(destination, reason string, originalErr error) Message {
	text := fmt.Sprintf("An error occurred uploading the stylesheet for /r/%s:\n\n%v", destination, originalErr)
	if reason != "" {
		text += fmt.Sprintf("\n\nUpdate reason: %s", reason)
	}
	return Message{
		To:      "/r/" + destination,
		Subject: Subject,
		Text:    text,
	}
}

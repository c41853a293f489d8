// Package email sends transactional and sequence mail through a
// pluggable provider.
package email

import (
	"context"
	"errors"
)

// ErrDisabled is returned when no provider is configured. Callers map
// this to a 503 so the admin UI can tell the operator to configure one.
var ErrDisabled = errors.New("email sending is not configured")

type Message struct {
	From     string
	FromName string
	To       string
	ToName   string
	Subject  string
	Text     string
	HTML     string
}

// Sender delivers one message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NoopSender rejects every send. Used in development when neither the
// HTTP provider nor SMTP is configured.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, _ Message) (string, error) {
	return "", ErrDisabled
}

// Package mail defines the outbound email contract. Delivery failures must
// never corrupt caller state; callers compensate explicitly (see the
// password-reset flow).
package mail

import (
	"context"

	"go.uber.org/zap"
)

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends messages through some delivery backend.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of delivering them. The
// default backend for development.
type LogMailer struct {
	lg *zap.Logger
}

// NewLogMailer creates a LogMailer logging through lg.
func NewLogMailer(lg *zap.Logger) *LogMailer {
	return &LogMailer{lg: lg}
}

// Send logs the message and reports success.
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.lg.Info("outbound mail",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.Body)),
	)
	return nil
}

/*
Package notify renders and sends the engine's outbound email.

PURPOSE:
  The engine's contract with email is narrow: hand a fully-rendered
  subject/plain-text/HTML triple to a Sender, fire-and-forget. Nothing in
  this package contains allocation logic; it consumes the engine's output.

SENDERS:
  - SESSender: production sender over Amazon SES (ses.go)
  - LogSender: dev/test sender that logs instead of sending

FAILURE MODEL:
  Send failures are logged by the Notifier wrapper and not retried; the
  engine's pass does not fail because an email did not go out.

SEE ALSO:
  - templates.go: the message builders
*/
package notify

import (
	"context"

	"go.uber.org/zap"
)

// Message is a fully-rendered notification.
type Message struct {
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers a rendered message to one recipient.
type Sender interface {
	Send(ctx context.Context, to string, msg Message) error
}

// LogSender records messages on the logger instead of delivering them.
// Used in dev and in tests.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, to string, msg Message) error {
	s.Logger.Info("email suppressed",
		zap.String("to", to),
		zap.String("subject", msg.Subject))
	return nil
}

// Notifier is the fire-and-forget wrapper the tasks use: delivery errors
// are logged, never propagated.
type Notifier struct {
	Sender Sender
	Logger *zap.Logger
}

func (n *Notifier) Notify(ctx context.Context, to string, msg Message) {
	if err := n.Sender.Send(ctx, to, msg); err != nil {
		n.Logger.Error("failed to send notification",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}

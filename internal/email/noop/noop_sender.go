package noop

import (
	"context"

	"go.uber.org/zap"

	"solarops/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a Notifier that only logs the message.
func NewNoopSender() port.Notifier {
	return noopSender{}
}

func (noopSender) Notify(_ context.Context, recipient, subject, body string) error {
	zap.L().Info("noop email",
		zap.String("recipient", recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}

package port

import (
	"context"

	"solarops/internal/domain"
)

// Notifier delivers a plain-text message to a recipient.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// StatusChangePublisher receives post-commit override events.
type StatusChangePublisher interface {
	Publish(evt domain.StatusChangeEvent)
}

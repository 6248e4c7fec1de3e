package port

import (
	"context"

	"solarops/internal/domain"
)

// FieldExtractor is the alternate, model-backed extraction strategy.
// Failures are reported as *domain.ExtractionError.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error)
}

// TextCompleter returns a free-text completion for a prompt.
type TextCompleter interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// TextSource acquires raw document text for a stored object.
type TextSource interface {
	ExtractText(ctx context.Context, key string) (string, error)
}

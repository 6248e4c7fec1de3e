package port

import (
	"context"
	"time"

	"solarops/internal/domain"
)

// RecordMutator mutates a record in place inside a locked read-modify-write.
// Returning an error aborts the update.
type RecordMutator func(rec *domain.Record) error

// RecordRepository persists processing records keyed by filename.
type RecordRepository interface {
	Create(ctx context.Context, rec *domain.Record) error
	GetByFilename(ctx context.Context, filename string) (*domain.Record, error)
	List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error)
	// UpdateReview loads the record, applies fn and writes the review columns
	// back. Concurrent calls for the same filename are serialised.
	UpdateReview(ctx context.Context, filename string, fn RecordMutator) (*domain.Record, error)
	ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

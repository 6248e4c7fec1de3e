package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"solarops/internal/domain"
	"solarops/internal/port"
)

// MockRecordRepo is a mock implementation of port.RecordRepository.
type MockRecordRepo struct {
	mock.Mock
}

func (m *MockRecordRepo) Create(ctx context.Context, rec *domain.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRecordRepo) GetByFilename(ctx context.Context, filename string) (*domain.Record, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *MockRecordRepo) List(ctx context.Context, filter domain.RecordFilter, offset, limit int) ([]domain.Record, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Record), args.Int(1), args.Error(2)
}

// UpdateReview applies fn to the record returned by the configured
// expectation, mirroring the locked read-modify-write of real stores.
// Configure it with .Return(*domain.Record, nil) for the stored state,
// or .Return(nil, err) to fail before fn runs.
func (m *MockRecordRepo) UpdateReview(ctx context.Context, filename string, fn port.RecordMutator) (*domain.Record, error) {
	args := m.Called(ctx, filename, fn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if err := args.Error(1); err != nil {
		return nil, err
	}
	rec := args.Get(0).(*domain.Record)
	if err := fn(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (m *MockRecordRepo) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRecordRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Stats), args.Error(1)
}

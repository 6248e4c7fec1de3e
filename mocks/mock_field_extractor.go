package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"solarops/internal/domain"
)

// MockFieldExtractor is a mock implementation of port.FieldExtractor.
type MockFieldExtractor struct {
	mock.Mock
}

func (m *MockFieldExtractor) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FieldSet), args.Error(1)
}

// MockTextCompleter is a mock implementation of port.TextCompleter.
type MockTextCompleter struct {
	mock.Mock
}

func (m *MockTextCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

// MockTextSource is a mock implementation of port.TextSource.
type MockTextSource struct {
	mock.Mock
}

func (m *MockTextSource) ExtractText(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

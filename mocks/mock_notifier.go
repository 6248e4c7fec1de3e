package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"solarops/internal/domain"
)

// MockNotifier is a mock implementation of port.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, recipient, subject, body string) error {
	args := m.Called(ctx, recipient, subject, body)
	return args.Error(0)
}

// MockPublisher is a mock implementation of port.StatusChangePublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(evt domain.StatusChangeEvent) {
	m.Called(evt)
}

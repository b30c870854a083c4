package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dukex/weatherflow/pkg/models"
)

// MockStatusStore is a mock implementation of status.Store interface.
type MockStatusStore struct {
	mock.Mock
}

func (m *MockStatusStore) Set(ctx context.Context, status models.NodeStatus) error {
	args := m.Called(ctx, status)

	return args.Error(0)
}

func (m *MockStatusStore) Get(ctx context.Context, nodeID string) (models.NodeStatus, error) {
	args := m.Called(ctx, nodeID)

	return args.Get(0).(models.NodeStatus), args.Error(1)
}

func (m *MockStatusStore) List(ctx context.Context) ([]models.NodeStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.NodeStatus), args.Error(1)
}

func (m *MockStatusStore) Close() error {
	args := m.Called()

	return args.Error(0)
}

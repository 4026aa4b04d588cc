package mocks

import (
	"context"

	"github.com/dukex/stepflow/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockViewCache is a mock implementation of cache.ViewCache interface.
type MockViewCache struct {
	mock.Mock
}

func (m *MockViewCache) Get(ctx context.Context, workflowID string) (*models.WorkflowView, bool, error) {
	args := m.Called(ctx, workflowID)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}

	return args.Get(0).(*models.WorkflowView), args.Bool(1), args.Error(2)
}

func (m *MockViewCache) Generation(ctx context.Context, workflowID string) (int64, error) {
	args := m.Called(ctx, workflowID)

	return args.Get(0).(int64), args.Error(1)
}

func (m *MockViewCache) Set(ctx context.Context, view *models.WorkflowView, generation int64) error {
	args := m.Called(ctx, view, generation)

	return args.Error(0)
}

func (m *MockViewCache) Invalidate(ctx context.Context, workflowID string) error {
	args := m.Called(ctx, workflowID)

	return args.Error(0)
}

func (m *MockViewCache) Close() error {
	args := m.Called()

	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
)

// MockBatchRepo is a mock implementation of port.BatchRepository.
type MockBatchRepo struct {
	mock.Mock
}

func (m *MockBatchRepo) Create(ctx context.Context, batch *domain.ExtractionBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockBatchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionBatch), args.Error(1)
}

func (m *MockBatchRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ExtractionBatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExtractionBatch), args.Error(1)
}

func (m *MockBatchRepo) Update(ctx context.Context, batch *domain.ExtractionBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

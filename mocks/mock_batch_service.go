package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
	"talentos/internal/service"
)

// MockBatchService is a mock implementation of service.BatchService.
type MockBatchService struct {
	mock.Mock
}

func (m *MockBatchService) Submit(ctx context.Context, input service.BatchSubmitInput) (*domain.ExtractionBatch, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionBatch), args.Error(1)
}

func (m *MockBatchService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionBatch), args.Error(1)
}

func (m *MockBatchService) ListFiles(ctx context.Context, batchID uuid.UUID) ([]service.BatchFileView, error) {
	args := m.Called(ctx, batchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.BatchFileView), args.Error(1)
}

func (m *MockBatchService) Run(ctx context.Context, batch *domain.ExtractionBatch) {
	m.Called(ctx, batch)
}

func (m *MockBatchService) RunByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionBatch), args.Error(1)
}

func (m *MockBatchService) Export(ctx context.Context, batchID uuid.UUID, w io.Writer) error {
	args := m.Called(ctx, batchID, w)
	return args.Error(0)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
)

// MockCandidateRepo is a mock implementation of port.CandidateRepository.
type MockCandidateRepo struct {
	mock.Mock
}

func (m *MockCandidateRepo) Insert(ctx context.Context, rec *domain.CandidateRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockCandidateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CandidateRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CandidateRecord), args.Error(1)
}

func (m *MockCandidateRepo) ListByBatch(ctx context.Context, batchID uuid.UUID, offset, limit int) ([]domain.CandidateRecord, int, error) {
	args := m.Called(ctx, batchID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.CandidateRecord), args.Int(1), args.Error(2)
}

func (m *MockCandidateRepo) List(ctx context.Context, offset, limit int) ([]domain.CandidateRecord, int, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.CandidateRecord), args.Int(1), args.Error(2)
}

package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
)

// MockMatchJobRepo is a mock implementation of port.MatchJobRepository.
type MockMatchJobRepo struct {
	mock.Mock
}

func (m *MockMatchJobRepo) Create(ctx context.Context, job *domain.MatchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockMatchJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchJob), args.Error(1)
}

func (m *MockMatchJobRepo) Update(ctx context.Context, job *domain.MatchJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockMatchJobRepo) ReplaceMatches(ctx context.Context, jobID uuid.UUID, matches []domain.CandidateMatch) error {
	args := m.Called(ctx, jobID, matches)
	return args.Error(0)
}

func (m *MockMatchJobRepo) ListMatches(ctx context.Context, jobID uuid.UUID) ([]domain.CandidateMatch, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateMatch), args.Error(1)
}

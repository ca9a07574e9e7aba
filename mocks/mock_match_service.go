package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"talentos/internal/domain"
	"talentos/internal/service"
)

// MockMatchService is a mock implementation of service.MatchService.
type MockMatchService struct {
	mock.Mock
}

func (m *MockMatchService) Submit(ctx context.Context, input service.MatchSubmitInput) (*domain.MatchJob, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MatchJob), args.Error(1)
}

func (m *MockMatchService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, []domain.CandidateMatch, error) {
	args := m.Called(ctx, id)
	var job *domain.MatchJob
	if args.Get(0) != nil {
		job = args.Get(0).(*domain.MatchJob)
	}
	var matches []domain.CandidateMatch
	if args.Get(1) != nil {
		matches = args.Get(1).([]domain.CandidateMatch)
	}
	return job, matches, args.Error(2)
}

func (m *MockMatchService) Cancel(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMatchService) Shutdown() {
	m.Called()
}

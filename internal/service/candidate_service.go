package service

import (
	"context"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/port"
)

// CandidateService defines read access to extracted candidates.
type CandidateService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CandidateRecord, error)
	List(ctx context.Context, offset, limit int) ([]domain.CandidateRecord, int, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID, offset, limit int) ([]domain.CandidateRecord, int, error)
}

type candidateService struct {
	repo port.CandidateRepository
}

// NewCandidateService creates a new CandidateService implementation.
func NewCandidateService(repo port.CandidateRepository) CandidateService {
	return &candidateService{repo: repo}
}

func (s *candidateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.CandidateRecord, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *candidateService) List(ctx context.Context, offset, limit int) ([]domain.CandidateRecord, int, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *candidateService) ListByBatch(ctx context.Context, batchID uuid.UUID, offset, limit int) ([]domain.CandidateRecord, int, error) {
	return s.repo.ListByBatch(ctx, batchID, offset, limit)
}

package port

import (
	"context"

	"github.com/google/uuid"

	"talentos/internal/domain"
)

// CandidateRepository persists extracted candidate records. Inserts are
// per-record; a failing insert must not affect sibling records.
type CandidateRepository interface {
	Insert(ctx context.Context, rec *domain.CandidateRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CandidateRecord, error)
	ListByBatch(ctx context.Context, batchID uuid.UUID, offset, limit int) ([]domain.CandidateRecord, int, error)
	List(ctx context.Context, offset, limit int) ([]domain.CandidateRecord, int, error)
}

// BatchRepository persists extraction batches.
type BatchRepository interface {
	Create(ctx context.Context, batch *domain.ExtractionBatch) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error)
	// ClaimQueued atomically marks up to limit queued batches as processing
	// and returns them.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ExtractionBatch, error)
	Update(ctx context.Context, batch *domain.ExtractionBatch) error
}

// FileMetaRepository persists uploaded file metadata.
type FileMetaRepository interface {
	Create(ctx context.Context, meta *domain.FileMeta) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.FileMeta, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus) error
}

// MatchJobRepository persists candidate-scoring jobs and their merged results.
type MatchJobRepository interface {
	Create(ctx context.Context, job *domain.MatchJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, error)
	Update(ctx context.Context, job *domain.MatchJob) error
	ReplaceMatches(ctx context.Context, jobID uuid.UUID, matches []domain.CandidateMatch) error
	ListMatches(ctx context.Context, jobID uuid.UUID) ([]domain.CandidateMatch, error)
}

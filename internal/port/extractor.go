package port

import (
	"context"

	"talentos/internal/domain"
)

// DocumentExtractor abstracts LLM-based resume extraction. One extractor is
// bound to one upstream credential; the pipeline builds one per pool slot.
type DocumentExtractor interface {
	// ExtractOne converts a single resume into a candidate record.
	ExtractOne(ctx context.Context, doc domain.Document) (*domain.CandidateRecord, error)

	// ExtractGroup converts a group of resumes in one call. The upstream
	// contract is one candidate per document, in input order; callers must
	// treat a shorter result as a partial failure, not truncate silently.
	ExtractGroup(ctx context.Context, docs []domain.Document) ([]domain.CandidateRecord, error)
}

// Embedder abstracts text-to-vector embedding for candidate records.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

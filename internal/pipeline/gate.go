package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/port"
)

const defaultTitle = "Not Specified"

// PersistenceGate is the single doorway between extraction output and the
// candidate store. It re-validates each record, fills display defaults at
// the boundary, and inserts records one at a time so a bad row never sinks
// its batch.
type PersistenceGate struct {
	repo port.CandidateRepository
}

func NewPersistenceGate(repo port.CandidateRepository) *PersistenceGate {
	return &PersistenceGate{repo: repo}
}

// Persist writes records for the given batch. Returns the number stored
// and the source-file names of records that were rejected or failed to
// insert.
func (g *PersistenceGate) Persist(ctx context.Context, batchID uuid.UUID, records []domain.CandidateRecord) (int, []string, error) {
	stored := 0
	var failedNames []string
	for i := range records {
		rec := records[i]
		if err := ValidateRecord(&rec); err != nil {
			log.Printf("PersistenceGate.Persist: rejecting record: %v", err)
			failedNames = append(failedNames, rec.SourceFile)
			continue
		}
		applyDefaults(&rec)
		rec.BatchID = batchID
		if err := g.repo.Insert(ctx, &rec); err != nil {
			log.Printf("PersistenceGate.Persist: insert failed for %q: %v", rec.SourceFile, err)
			failedNames = append(failedNames, rec.SourceFile)
			continue
		}
		stored++
	}
	if stored == 0 && len(records) > 0 {
		return 0, failedNames, fmt.Errorf("PersistenceGate.Persist: no records stored out of %d", len(records))
	}
	return stored, failedNames, nil
}

// applyDefaults fills display fallbacks. Defaults live only here so that
// pipeline stages always see the extractor's actual output.
func applyDefaults(rec *domain.CandidateRecord) {
	if rec.Title == nil || *rec.Title == "" {
		title := defaultTitle
		rec.Title = &title
	}
	if rec.Skills == nil {
		rec.Skills = []string{}
	}
}

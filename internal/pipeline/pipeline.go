package pipeline

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"talentos/internal/domain"
)

// Strategy selects how a batch is split across credential slots.
const (
	StrategyShard = "shard"
	StrategyGroup = "group"
)

// Pipeline runs a batch of resume documents through extraction,
// validation, embedding enrichment and persistence. In-flight upstream
// calls never exceed the credential slot count in any stage.
type Pipeline struct {
	pool      *CredentialPool
	retry     *RetryExecutor
	gate      *PersistenceGate
	strategy  string
	groupSize int
}

func New(pool *CredentialPool, retry *RetryExecutor, gate *PersistenceGate, strategy string, groupSize int) *Pipeline {
	if strategy != StrategyGroup {
		strategy = StrategyShard
	}
	if groupSize <= 0 {
		groupSize = 4
	}
	return &Pipeline{
		pool:      pool,
		retry:     retry,
		gate:      gate,
		strategy:  strategy,
		groupSize: groupSize,
	}
}

// Run processes the batch end to end and reports the outcome. An empty
// strategy falls back to the configured default. A batch with zero
// usable results returns an error naming the most specific failure
// observed; partial failures are folded into the outcome instead.
func (p *Pipeline) Run(ctx context.Context, batchID uuid.UUID, docs []domain.Document, strategy string) (*domain.BatchOutcome, error) {
	if len(docs) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if strategy == "" {
		strategy = p.strategy
	}

	var records []domain.CandidateRecord
	var failedNames []string
	var lastErr error

	switch strategy {
	case StrategyGroup:
		records, failedNames, lastErr = p.runGrouped(ctx, docs)
	default:
		records, failedNames, lastErr = p.runSharded(ctx, docs)
	}

	if len(records) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("pipeline.Run: batch produced no usable results: %w", lastErr)
		}
		return nil, fmt.Errorf("pipeline.Run: batch produced no usable results")
	}

	p.enrichEmbeddings(ctx, records)

	stored, gateFailed, err := p.gate.Persist(ctx, batchID, records)
	if err != nil {
		return nil, fmt.Errorf("pipeline.Run: %w", err)
	}
	failedNames = append(failedNames, gateFailed...)

	outcome := &domain.BatchOutcome{
		Processed:   len(records),
		Succeeded:   stored,
		Failed:      len(docs) - len(records) + len(gateFailed),
		FailedNames: failedNames,
		Records:     records,
	}
	log.Printf("pipeline.Run: batch %s done: %d processed, %d failed", batchID, outcome.Processed, outcome.Failed)
	return outcome, nil
}

// runSharded splits the batch into contiguous slices of ceil(n/K)
// documents. Slice i uses credential slot i; documents within a slice are
// extracted one at a time, slices run in parallel.
func (p *Pipeline) runSharded(ctx context.Context, docs []domain.Document) ([]domain.CandidateRecord, []string, error) {
	slices := ShardDocuments(docs, p.pool.Size())
	results := make(chan itemResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	offset := 0
	for i, slice := range slices {
		slot := p.pool.slots[i]
		base := offset
		slice := slice
		offset += len(slice)
		g.Go(func() error {
			for j, doc := range slice {
				idx := base + j
				rec, err := p.extractOne(gctx, slot, doc)
				if err != nil {
					log.Printf("pipeline.runSharded: slot %d: %q failed: %v", slot.Index, doc.Name, err)
					results <- itemResult{index: idx, name: doc.Name, err: err}
					continue
				}
				results <- itemResult{index: idx, name: doc.Name, record: rec}
			}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	records, failedNames := aggregate(results)
	if err != nil {
		return records, failedNames, err
	}
	return records, failedNames, firstFailure(len(failedNames))
}

// runGrouped splits the batch into fixed-size groups, each extracted in a
// single multi-document call. Groups rotate across credential slots; the
// errgroup limit caps in-flight calls at the slot count.
func (p *Pipeline) runGrouped(ctx context.Context, docs []domain.Document) ([]domain.CandidateRecord, []string, error) {
	groups := GroupDocuments(docs, p.groupSize)
	results := make(chan itemResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.pool.Size())
	offset := 0
	for gi, group := range groups {
		slot := p.pool.Assign(gi)
		base := offset
		group := group
		offset += len(group)
		g.Go(func() error {
			recs, err := p.extractGroup(gctx, slot, group)
			if err != nil {
				log.Printf("pipeline.runGrouped: slot %d: group of %d failed: %v", slot.Index, len(group), err)
				for j, doc := range group {
					results <- itemResult{index: base + j, name: doc.Name, err: err}
				}
				return nil
			}
			// The model answers in input order; documents past the end of
			// a short response are counted as failed.
			for j, doc := range group {
				if j < len(recs) {
					rec := recs[j]
					results <- itemResult{index: base + j, name: doc.Name, record: &rec}
					continue
				}
				results <- itemResult{index: base + j, name: doc.Name, err: fmt.Errorf("no candidate returned for %q", doc.Name)}
			}
			return nil
		})
	}

	err := g.Wait()
	close(results)
	records, failedNames := aggregate(results)
	if err != nil {
		return records, failedNames, err
	}
	return records, failedNames, firstFailure(len(failedNames))
}

func (p *Pipeline) extractOne(ctx context.Context, slot Slot, doc domain.Document) (*domain.CandidateRecord, error) {
	var rec *domain.CandidateRecord
	err := p.retry.Run(ctx, func(ctx context.Context) error {
		var err error
		rec, err = slot.Extractor.ExtractOne(ctx, doc)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ValidateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p *Pipeline) extractGroup(ctx context.Context, slot Slot, docs []domain.Document) ([]domain.CandidateRecord, error) {
	var recs []domain.CandidateRecord
	err := p.retry.Run(ctx, func(ctx context.Context) error {
		var err error
		recs, err = slot.Extractor.ExtractGroup(ctx, docs)
		return err
	})
	return recs, err
}

// enrichEmbeddings attaches an embedding vector to each record, rotating
// records across credential slots independently of the extraction split.
// Embedding failures degrade search quality, so they are logged and the
// record moves on without a vector.
func (p *Pipeline) enrichEmbeddings(ctx context.Context, records []domain.CandidateRecord) {
	k := p.pool.Size()
	g, gctx := errgroup.WithContext(ctx)
	for s := 0; s < k; s++ {
		slot := p.pool.slots[s]
		start := s
		g.Go(func() error {
			for j := start; j < len(records); j += k {
				rec := &records[j]
				text := embeddingText(rec)
				if text == "" {
					continue
				}
				var vec []float64
				err := p.retry.Run(gctx, func(ctx context.Context) error {
					var err error
					vec, err = slot.Embedder.Embed(ctx, text)
					return err
				})
				if err != nil {
					log.Printf("pipeline.enrichEmbeddings: slot %d: %q skipped: %v", slot.Index, rec.SourceFile, err)
					continue
				}
				rec.Embedding = vec
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("pipeline.enrichEmbeddings: %v", err)
	}
}

// embeddingText is the fixed projection embedded for similarity search:
// name, title, sector, skills, experience, education, absent fields
// skipped. Changing the order or field set invalidates stored vectors.
func embeddingText(rec *domain.CandidateRecord) string {
	text := rec.Name
	appendField := func(f *string) {
		if f != nil && *f != "" {
			text += "\n" + *f
		}
	}
	appendField(rec.Title)
	appendField(rec.Sector)
	for _, s := range rec.Skills {
		text += "\n" + s
	}
	appendField(rec.Experience)
	appendField(rec.Education)
	return text
}

func firstFailure(failed int) error {
	if failed > 0 {
		return fmt.Errorf("%d documents failed extraction", failed)
	}
	return nil
}

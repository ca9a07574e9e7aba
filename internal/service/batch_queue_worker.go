package service

import (
	"context"
	"log"
	"sync"
	"time"

	"talentos/internal/port"
)

// BatchQueueConfig holds settings for the batch queue worker.
type BatchQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
	BatchTimeout time.Duration
}

// BatchQueueWorker polls for queued extraction batches and dispatches
// them to the pipeline.
type BatchQueueWorker struct {
	batchRepo    port.BatchRepository
	batchService BatchService
	cfg          BatchQueueConfig
	wg           sync.WaitGroup
}

// NewBatchQueueWorker creates a new BatchQueueWorker.
func NewBatchQueueWorker(batchRepo port.BatchRepository, batchService BatchService, cfg BatchQueueConfig) *BatchQueueWorker {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 30 * time.Minute
	}
	return &BatchQueueWorker{
		batchRepo:    batchRepo,
		batchService: batchService,
		cfg:          cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight batches have finished.
func (w *BatchQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("batchQueueWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("batchQueueWorker: shutting down, waiting for in-flight batches...")
			w.wg.Wait()
			log.Printf("batchQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			batches, err := w.batchRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("batchQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range batches {
				batch := batches[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Fresh context so in-flight batches finish even when
					// the poll context is gone during shutdown.
					runCtx, cancel := context.WithTimeout(context.Background(), w.cfg.BatchTimeout)
					defer cancel()

					log.Printf("batchQueueWorker: dispatching batch %s (%d documents)", batch.ID, batch.DocumentCount)
					w.batchService.Run(runCtx, &batch)
				}()
			}
		}
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"talentos/internal/domain"
	"talentos/internal/matcher"
	"talentos/internal/port"
)

// MatchSubmitInput is the DTO for match job submissions. An empty
// CandidateIDs list means score every stored candidate.
type MatchSubmitInput struct {
	JobDescription string
	CandidateIDs   []string
}

// MatchService defines the candidate-scoring contract.
type MatchService interface {
	Submit(ctx context.Context, input MatchSubmitInput) (*domain.MatchJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, []domain.CandidateMatch, error)
	Cancel(ctx context.Context, id uuid.UUID) error
	// Shutdown stops accepting new jobs and waits for running jobs to
	// finish and persist. Each job runs under its own timeout, so the
	// wait is bounded.
	Shutdown()
}

type matchService struct {
	jobRepo       port.MatchJobRepository
	candidateRepo port.CandidateRepository
	opener        port.ScoreStreamOpener
	timeout       time.Duration

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewMatchService creates a new MatchService implementation.
func NewMatchService(
	jobRepo port.MatchJobRepository,
	candidateRepo port.CandidateRepository,
	opener port.ScoreStreamOpener,
	timeout time.Duration,
) MatchService {
	return &matchService{
		jobRepo:       jobRepo,
		candidateRepo: candidateRepo,
		opener:        opener,
		timeout:       timeout,
		running:       make(map[uuid.UUID]context.CancelFunc),
	}
}

func (s *matchService) Submit(ctx context.Context, input MatchSubmitInput) (*domain.MatchJob, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("matchService.Submit: service is shut down")
	}

	candidateIDs := input.CandidateIDs
	if len(candidateIDs) == 0 {
		ids, err := s.allCandidateIDs(ctx)
		if err != nil {
			return nil, err
		}
		candidateIDs = ids
	}
	if len(candidateIDs) == 0 {
		return nil, fmt.Errorf("matchService.Submit: no candidates to score")
	}

	job := &domain.MatchJob{
		ID:             uuid.New(),
		JobDescription: input.JobDescription,
		CandidateIDs:   candidateIDs,
		Status:         domain.MatchJobStatusPending,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating match job: %w", err)
	}

	// The job outlives the submit request; its context is detached and
	// kept in the registry so Cancel can reach it. Registration and the
	// closed check share one critical section so Shutdown's wg.Wait
	// cannot race a late Add.
	runCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("matchService.Submit: service is shut down")
	}
	s.running[job.ID] = cancel
	s.wg.Add(1)
	s.mu.Unlock()

	// The goroutine owns job from here; callers get a snapshot taken
	// before launch so the response never reads a struct the stream is
	// mutating.
	snapshot := *job

	go func() {
		defer s.wg.Done()
		defer cancel()
		defer func() {
			s.mu.Lock()
			delete(s.running, job.ID)
			s.mu.Unlock()
		}()
		s.runJob(runCtx, job, candidateIDs)
	}()
	return &snapshot, nil
}

func (s *matchService) allCandidateIDs(ctx context.Context) ([]string, error) {
	const pageSize = 500
	var ids []string
	for offset := 0; ; offset += pageSize {
		recs, total, err := s.candidateRepo.List(ctx, offset, pageSize)
		if err != nil {
			return nil, fmt.Errorf("listing candidates: %w", err)
		}
		for _, rec := range recs {
			ids = append(ids, rec.ID.String())
		}
		if offset+pageSize >= total || len(recs) == 0 {
			break
		}
	}
	return ids, nil
}

// runJob consumes one scoring stream and persists whatever it yields,
// including partial results on cancellation or degraded completion.
func (s *matchService) runJob(ctx context.Context, job *domain.MatchJob, candidateIDs []string) {
	job.Status = domain.MatchJobStatusStreaming
	if err := s.jobRepo.Update(ctx, job); err != nil {
		log.Printf("matchService.runJob: job %s: %v", job.ID, err)
	}

	stream, err := s.opener.Open(ctx, job.JobDescription, candidateIDs)
	if err != nil {
		s.finishFailed(job, err)
		return
	}
	defer stream.Close()

	// Close the stream as soon as the context goes so a blocked read
	// observes the cancellation promptly.
	go func() {
		<-ctx.Done()
		stream.Close()
	}()

	consumer := matcher.NewConsumer(len(candidateIDs), func(pct int) {
		job.Progress = pct
		if err := s.jobRepo.Update(context.Background(), job); err != nil {
			log.Printf("matchService.runJob: progress update for job %s: %v", job.ID, err)
		}
	})

	outcome, err := consumer.Consume(ctx, stream)
	if err != nil {
		s.finishFailed(job, err)
		return
	}
	s.finish(job, outcome)
}

func (s *matchService) finish(job *domain.MatchJob, outcome *matcher.Outcome) {
	// Persist with a fresh context: the run context may already be gone.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.jobRepo.ReplaceMatches(ctx, job.ID, outcome.Matches); err != nil {
		log.Printf("matchService.finish: storing matches for job %s: %v", job.ID, err)
	}

	now := time.Now().UTC()
	job.Progress = outcome.Progress
	job.Partial = outcome.Partial
	job.CompletedAt = &now
	switch outcome.State {
	case matcher.StateCancelled:
		job.Status = domain.MatchJobStatusCancelled
	default:
		job.Status = domain.MatchJobStatusCompleted
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		log.Printf("matchService.finish: updating job %s: %v", job.ID, err)
	}
	log.Printf("matchService.finish: job %s %s (%d matches, partial=%t)",
		job.ID, job.Status, len(outcome.Matches), job.Partial)
}

func (s *matchService) finishFailed(job *domain.MatchJob, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()
	job.Status = domain.MatchJobStatusFailed
	job.Error = cause.Error()
	job.CompletedAt = &now
	if err := s.jobRepo.Update(ctx, job); err != nil {
		log.Printf("matchService.finishFailed: updating job %s: %v", job.ID, err)
	}
	log.Printf("matchService.finishFailed: job %s: %v", job.ID, cause)
}

func (s *matchService) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, []domain.CandidateMatch, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	matches, err := s.jobRepo.ListMatches(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return job, matches, nil
}

// Cancel stops a running job. Accumulated partial results are kept.
func (s *matchService) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	if _, err := s.jobRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return err
	}
	// Terminal, or registered in another process; either way there is
	// nothing to signal from here.
	return domain.ErrJobNotCancellable
}

func (s *matchService) Shutdown() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talentos/internal/domain"
	"talentos/internal/port"
)

type matchJobRepo struct {
	db *sqlx.DB
}

// NewMatchJobRepo creates a new PostgreSQL-backed MatchJobRepository.
func NewMatchJobRepo(db *sqlx.DB) port.MatchJobRepository {
	return &matchJobRepo{db: db}
}

func (r *matchJobRepo) Create(ctx context.Context, job *domain.MatchJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `INSERT INTO match_jobs
		(id, job_description, status, partial, progress, error,
		 created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.JobDescription, job.Status, job.Partial, job.Progress,
		job.Error, job.CreatedAt, job.UpdatedAt, job.CompletedAt)
	if err != nil {
		return fmt.Errorf("matchJobRepo.Create: %w", err)
	}
	return nil
}

func (r *matchJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.MatchJob, error) {
	var job domain.MatchJob
	err := r.db.GetContext(ctx, &job, "SELECT * FROM match_jobs WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("matchJobRepo.GetByID: %w", err)
	}
	return &job, nil
}

func (r *matchJobRepo) Update(ctx context.Context, job *domain.MatchJob) error {
	job.UpdatedAt = time.Now().UTC()

	query := `UPDATE match_jobs SET
		status = $1, partial = $2, progress = $3, error = $4,
		updated_at = $5, completed_at = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		job.Status, job.Partial, job.Progress, job.Error,
		job.UpdatedAt, job.CompletedAt, job.ID)
	if err != nil {
		return fmt.Errorf("matchJobRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ReplaceMatches swaps the stored result set for a job in one
// transaction so readers never see a half-written set.
func (r *matchJobRepo) ReplaceMatches(ctx context.Context, jobID uuid.UUID, matches []domain.CandidateMatch) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("matchJobRepo.ReplaceMatches: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM match_results WHERE job_id = $1", jobID); err != nil {
		return fmt.Errorf("matchJobRepo.ReplaceMatches: delete: %w", err)
	}
	for i, m := range matches {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO match_results (job_id, rank, candidate_id, name, score, reason)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			jobID, i, m.CandidateID, m.Name, m.Score, m.Reason)
		if err != nil {
			return fmt.Errorf("matchJobRepo.ReplaceMatches: insert: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("matchJobRepo.ReplaceMatches: commit: %w", err)
	}
	return nil
}

func (r *matchJobRepo) ListMatches(ctx context.Context, jobID uuid.UUID) ([]domain.CandidateMatch, error) {
	var matches []domain.CandidateMatch
	err := r.db.SelectContext(ctx, &matches,
		`SELECT candidate_id, name, score, reason FROM match_results
		 WHERE job_id = $1 ORDER BY rank`, jobID)
	if err != nil {
		return nil, fmt.Errorf("matchJobRepo.ListMatches: %w", err)
	}
	return matches, nil
}

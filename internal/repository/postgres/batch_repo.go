package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talentos/internal/domain"
	"talentos/internal/port"
)

type batchRepo struct {
	db *sqlx.DB
}

// NewBatchRepo creates a new PostgreSQL-backed BatchRepository.
func NewBatchRepo(db *sqlx.DB) port.BatchRepository {
	return &batchRepo{db: db}
}

type batchRow struct {
	ID             uuid.UUID          `db:"id"`
	Status         domain.BatchStatus `db:"status"`
	Strategy       string             `db:"strategy"`
	DocumentCount  int                `db:"document_count"`
	SucceededCount int                `db:"succeeded_count"`
	FailedCount    int                `db:"failed_count"`
	FailedNames    []byte             `db:"failed_names"`
	Error          string             `db:"error"`
	NotifyEmail    string             `db:"notify_email"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
	CompletedAt    *time.Time         `db:"completed_at"`
}

func (row *batchRow) toDomain() (*domain.ExtractionBatch, error) {
	batch := &domain.ExtractionBatch{
		ID:             row.ID,
		Status:         row.Status,
		Strategy:       row.Strategy,
		DocumentCount:  row.DocumentCount,
		SucceededCount: row.SucceededCount,
		FailedCount:    row.FailedCount,
		Error:          row.Error,
		NotifyEmail:    row.NotifyEmail,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		CompletedAt:    row.CompletedAt,
	}
	if len(row.FailedNames) > 0 {
		if err := json.Unmarshal(row.FailedNames, &batch.FailedNames); err != nil {
			return nil, fmt.Errorf("decoding failed names: %w", err)
		}
	}
	return batch, nil
}

func (r *batchRepo) Create(ctx context.Context, batch *domain.ExtractionBatch) error {
	if batch.ID == uuid.Nil {
		batch.ID = uuid.New()
	}
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now

	names, err := json.Marshal(batch.FailedNames)
	if err != nil {
		return fmt.Errorf("batchRepo.Create: encoding failed names: %w", err)
	}

	query := `INSERT INTO extraction_batches
		(id, status, strategy, document_count, succeeded_count, failed_count,
		 failed_names, error, notify_email, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.db.ExecContext(ctx, query,
		batch.ID, batch.Status, batch.Strategy, batch.DocumentCount,
		batch.SucceededCount, batch.FailedCount, names, batch.Error,
		batch.NotifyEmail, batch.CreatedAt, batch.UpdatedAt, batch.CompletedAt)
	if err != nil {
		return fmt.Errorf("batchRepo.Create: %w", err)
	}
	return nil
}

func (r *batchRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	var row batchRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM extraction_batches WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("batchRepo.GetByID: %w", err)
	}
	batch, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("batchRepo.GetByID: %w", err)
	}
	return batch, nil
}

// ClaimQueued flips up to limit queued batches to processing in one
// statement so concurrent workers never claim the same batch twice.
func (r *batchRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ExtractionBatch, error) {
	query := `UPDATE extraction_batches SET status = $1, updated_at = $2
		WHERE id IN (
			SELECT id FROM extraction_batches WHERE status = $3
			ORDER BY created_at LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	var rows []batchRow
	err := r.db.SelectContext(ctx, &rows, query,
		domain.BatchStatusProcessing, time.Now().UTC(), domain.BatchStatusQueued, limit)
	if err != nil {
		return nil, fmt.Errorf("batchRepo.ClaimQueued: %w", err)
	}

	batches := make([]domain.ExtractionBatch, 0, len(rows))
	for i := range rows {
		batch, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("batchRepo.ClaimQueued: %w", err)
		}
		batches = append(batches, *batch)
	}
	return batches, nil
}

func (r *batchRepo) Update(ctx context.Context, batch *domain.ExtractionBatch) error {
	batch.UpdatedAt = time.Now().UTC()

	names, err := json.Marshal(batch.FailedNames)
	if err != nil {
		return fmt.Errorf("batchRepo.Update: encoding failed names: %w", err)
	}

	query := `UPDATE extraction_batches SET
		status = $1, succeeded_count = $2, failed_count = $3, failed_names = $4,
		error = $5, updated_at = $6, completed_at = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		batch.Status, batch.SucceededCount, batch.FailedCount, names,
		batch.Error, batch.UpdatedAt, batch.CompletedAt, batch.ID)
	if err != nil {
		return fmt.Errorf("batchRepo.Update: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

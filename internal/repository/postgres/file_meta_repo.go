package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"talentos/internal/domain"
	"talentos/internal/port"
)

type fileMetaRepo struct {
	db *sqlx.DB
}

// NewFileMetaRepo creates a new PostgreSQL-backed FileMetaRepository.
func NewFileMetaRepo(db *sqlx.DB) port.FileMetaRepository {
	return &fileMetaRepo{db: db}
}

func (r *fileMetaRepo) Create(ctx context.Context, meta *domain.FileMeta) error {
	if meta.ID == uuid.Nil {
		meta.ID = uuid.New()
	}
	now := time.Now().UTC()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	query := `INSERT INTO file_metadata
		(id, batch_id, file_name, original_name, file_type, file_size,
		 s3_bucket, s3_key, content_type, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		meta.ID, meta.BatchID, meta.FileName, meta.OriginalName, meta.FileType,
		meta.FileSize, meta.S3Bucket, meta.S3Key, meta.ContentType,
		meta.Status, meta.CreatedAt, meta.UpdatedAt)
	if err != nil {
		return fmt.Errorf("fileMetaRepo.Create: %w", err)
	}
	return nil
}

func (r *fileMetaRepo) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.FileMeta, error) {
	var files []domain.FileMeta
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM file_metadata WHERE batch_id = $1 ORDER BY created_at, id", batchID)
	if err != nil {
		return nil, fmt.Errorf("fileMetaRepo.ListByBatch: %w", err)
	}
	return files, nil
}

func (r *fileMetaRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.FileStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE file_metadata SET status = $1, updated_at = $2 WHERE id = $3",
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("fileMetaRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

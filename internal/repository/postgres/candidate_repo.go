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

type candidateRepo struct {
	db *sqlx.DB
}

// NewCandidateRepo creates a new PostgreSQL-backed CandidateRepository.
func NewCandidateRepo(db *sqlx.DB) port.CandidateRepository {
	return &candidateRepo{db: db}
}

// candidateRow mirrors the candidates table. Skills and embedding are
// stored as jsonb.
type candidateRow struct {
	ID         uuid.UUID `db:"id"`
	BatchID    uuid.UUID `db:"batch_id"`
	Name       string    `db:"name"`
	Email      *string   `db:"email"`
	Phone      *string   `db:"phone"`
	Title      *string   `db:"title"`
	Sector     *string   `db:"sector"`
	Experience *string   `db:"experience"`
	Education  *string   `db:"education"`
	Summary    *string   `db:"summary"`
	Skills     []byte    `db:"skills"`
	Embedding  []byte    `db:"embedding"`
	SourceFile string    `db:"source_file"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (row *candidateRow) toDomain() (*domain.CandidateRecord, error) {
	rec := &domain.CandidateRecord{
		ID:         row.ID,
		BatchID:    row.BatchID,
		Name:       row.Name,
		Email:      row.Email,
		Phone:      row.Phone,
		Title:      row.Title,
		Sector:     row.Sector,
		Experience: row.Experience,
		Education:  row.Education,
		Summary:    row.Summary,
		SourceFile: row.SourceFile,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if len(row.Skills) > 0 {
		if err := json.Unmarshal(row.Skills, &rec.Skills); err != nil {
			return nil, fmt.Errorf("decoding skills: %w", err)
		}
	}
	if len(row.Embedding) > 0 {
		if err := json.Unmarshal(row.Embedding, &rec.Embedding); err != nil {
			return nil, fmt.Errorf("decoding embedding: %w", err)
		}
	}
	return rec, nil
}

func (r *candidateRepo) Insert(ctx context.Context, rec *domain.CandidateRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	skills, err := json.Marshal(rec.Skills)
	if err != nil {
		return fmt.Errorf("candidateRepo.Insert: encoding skills: %w", err)
	}
	var embedding []byte
	if rec.Embedding != nil {
		embedding, err = json.Marshal(rec.Embedding)
		if err != nil {
			return fmt.Errorf("candidateRepo.Insert: encoding embedding: %w", err)
		}
	}

	query := `INSERT INTO candidates
		(id, batch_id, name, email, phone, title, sector, experience, education,
		 summary, skills, embedding, source_file, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.BatchID, rec.Name, rec.Email, rec.Phone, rec.Title, rec.Sector,
		rec.Experience, rec.Education, rec.Summary, skills, embedding,
		rec.SourceFile, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("candidateRepo.Insert: %w", err)
	}
	return nil
}

func (r *candidateRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.CandidateRecord, error) {
	var row candidateRow
	err := r.db.GetContext(ctx, &row, "SELECT * FROM candidates WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("candidateRepo.GetByID: %w", err)
	}
	rec, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("candidateRepo.GetByID: %w", err)
	}
	return rec, nil
}

func (r *candidateRepo) ListByBatch(ctx context.Context, batchID uuid.UUID, offset, limit int) ([]domain.CandidateRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM candidates WHERE batch_id = $1", batchID)
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.ListByBatch count: %w", err)
	}

	var rows []candidateRow
	err = r.db.SelectContext(ctx, &rows,
		`SELECT * FROM candidates WHERE batch_id = $1
		 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		batchID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.ListByBatch: %w", err)
	}
	recs, err := rowsToDomain(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.ListByBatch: %w", err)
	}
	return recs, total, nil
}

func (r *candidateRepo) List(ctx context.Context, offset, limit int) ([]domain.CandidateRecord, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM candidates")
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.List count: %w", err)
	}

	var rows []candidateRow
	err = r.db.SelectContext(ctx, &rows,
		"SELECT * FROM candidates ORDER BY created_at DESC, id LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.List: %w", err)
	}
	recs, err := rowsToDomain(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("candidateRepo.List: %w", err)
	}
	return recs, total, nil
}

func rowsToDomain(rows []candidateRow) ([]domain.CandidateRecord, error) {
	recs := make([]domain.CandidateRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, nil
}

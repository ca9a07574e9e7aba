package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is one resume payload submitted for extraction. Immutable once
// submitted.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileMeta stores metadata about an uploaded resume file.
type FileMeta struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	BatchID      uuid.UUID  `db:"batch_id" json:"batch_id"`
	FileName     string     `db:"file_name" json:"file_name"`
	OriginalName string     `db:"original_name" json:"original_name"`
	FileType     FileType   `db:"file_type" json:"file_type"`
	FileSize     int64      `db:"file_size" json:"file_size"`
	S3Bucket     string     `db:"s3_bucket" json:"s3_bucket"`
	S3Key        string     `db:"s3_key" json:"s3_key"`
	ContentType  string     `db:"content_type" json:"content_type"`
	Status       FileStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// CandidateRecord is a structured candidate extracted from one resume.
// Every field except Name may be absent; nil means the extractor could not
// find it. Embedding is populated by the enrichment stage when the embedding
// call succeeds.
type CandidateRecord struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BatchID    uuid.UUID `db:"batch_id" json:"batch_id"`
	Name       string    `db:"name" json:"name"`
	Email      *string   `db:"email" json:"email"`
	Phone      *string   `db:"phone" json:"phone"`
	Title      *string   `db:"title" json:"title"`
	Sector     *string   `db:"sector" json:"sector"`
	Experience *string   `db:"experience" json:"experience"`
	Education  *string   `db:"education" json:"education"`
	Summary    *string   `db:"summary" json:"summary"`
	Skills     []string  `db:"-" json:"skills"`
	Embedding  []float64 `db:"-" json:"-"`
	SourceFile string    `db:"source_file" json:"source_file"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ExtractionBatch tracks one submitted set of resumes through the pipeline.
type ExtractionBatch struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	Status         BatchStatus `db:"status" json:"status"`
	Strategy       string      `db:"strategy" json:"strategy"`
	DocumentCount  int         `db:"document_count" json:"document_count"`
	SucceededCount int         `db:"succeeded_count" json:"succeeded_count"`
	FailedCount    int         `db:"failed_count" json:"failed_count"`
	FailedNames    []string    `db:"-" json:"failed_names,omitempty"`
	Error          string      `db:"error" json:"error,omitempty"`
	NotifyEmail    string      `db:"notify_email" json:"notify_email,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
	CompletedAt    *time.Time  `db:"completed_at" json:"completed_at"`
}

// BatchOutcome is the aggregate result of running the extraction pipeline
// over one batch. It is the only object handed to the persistence gate or
// returned to the API layer.
type BatchOutcome struct {
	Processed   int               `json:"processed"`
	Succeeded   int               `json:"succeeded"`
	Failed      int               `json:"failed"`
	FailedNames []string          `json:"failed_names,omitempty"`
	Records     []CandidateRecord `json:"records"`
}

// CandidateMatch is one scored candidate from a matching job.
type CandidateMatch struct {
	CandidateID string  `db:"candidate_id" json:"candidate_id"`
	Name        string  `db:"name" json:"name"`
	Score       float64 `db:"score" json:"score"`
	Reason      string  `db:"reason" json:"reason,omitempty"`
}

// MatchJob tracks one candidate-scoring job against a job description.
type MatchJob struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	JobDescription string         `db:"job_description" json:"job_description"`
	CandidateIDs   []string       `db:"-" json:"candidate_ids"`
	Status         MatchJobStatus `db:"status" json:"status"`
	Partial        bool           `db:"partial" json:"partial"`
	Progress       int            `db:"progress" json:"progress"`
	Error          string         `db:"error" json:"error,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt    *time.Time     `db:"completed_at" json:"completed_at"`
}

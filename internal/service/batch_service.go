package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"talentos/internal/config"
	"talentos/internal/domain"
	"talentos/internal/export"
	"talentos/internal/pipeline"
	"talentos/internal/port"
)

// BatchSubmitInput is the DTO for batch submission requests.
type BatchSubmitInput struct {
	Files       []*multipart.FileHeader
	Strategy    string
	NotifyEmail string
}

// BatchPipeline runs one batch of documents through extraction and
// persistence. An empty strategy means the pipeline's configured
// default. Satisfied by pipeline.Pipeline.
type BatchPipeline interface {
	Run(ctx context.Context, batchID uuid.UUID, docs []domain.Document, strategy string) (*domain.BatchOutcome, error)
}

// BatchFileView is one file in a batch listing, carrying a short-lived
// download link for files that reached storage.
type BatchFileView struct {
	ID           uuid.UUID         `json:"id"`
	OriginalName string            `json:"original_name"`
	FileSize     int64             `json:"file_size"`
	Status       domain.FileStatus `json:"status"`
	DownloadURL  string            `json:"download_url,omitempty"`
}

// BatchService defines the extraction batch contract.
type BatchService interface {
	Submit(ctx context.Context, input BatchSubmitInput) (*domain.ExtractionBatch, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error)
	ListFiles(ctx context.Context, batchID uuid.UUID) ([]BatchFileView, error)
	Run(ctx context.Context, batch *domain.ExtractionBatch)
	RunByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error)
	Export(ctx context.Context, batchID uuid.UUID, w io.Writer) error
}

type batchService struct {
	batchRepo     port.BatchRepository
	fileRepo      port.FileMetaRepository
	candidateRepo port.CandidateRepository
	storage       port.ObjectStorage
	pipeline      BatchPipeline
	email         port.EmailSender
	s3cfg         *config.S3Config
}

// NewBatchService creates a new BatchService implementation.
func NewBatchService(
	batchRepo port.BatchRepository,
	fileRepo port.FileMetaRepository,
	candidateRepo port.CandidateRepository,
	storage port.ObjectStorage,
	pipeline BatchPipeline,
	email port.EmailSender,
	s3cfg *config.S3Config,
) BatchService {
	return &batchService{
		batchRepo:     batchRepo,
		fileRepo:      fileRepo,
		candidateRepo: candidateRepo,
		storage:       storage,
		pipeline:      pipeline,
		email:         email,
		s3cfg:         s3cfg,
	}
}

// Submit validates and uploads each resume, then enqueues the batch for
// the queue worker. Files that fail validation reject the whole request
// so the client can fix the upload instead of discovering gaps later.
func (s *batchService) Submit(ctx context.Context, input BatchSubmitInput) (*domain.ExtractionBatch, error) {
	if len(input.Files) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	switch input.Strategy {
	case "", pipeline.StrategyShard, pipeline.StrategyGroup:
	default:
		return nil, domain.ErrInvalidStrategy
	}

	batch := &domain.ExtractionBatch{
		ID:            uuid.New(),
		Status:        domain.BatchStatusQueued,
		Strategy:      input.Strategy,
		DocumentCount: len(input.Files),
		NotifyEmail:   input.NotifyEmail,
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, fmt.Errorf("creating batch: %w", err)
	}

	var uploaded []*domain.FileMeta
	for _, header := range input.Files {
		meta, err := s.uploadOne(ctx, batch.ID, header)
		if err != nil {
			s.discardUploaded(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, meta)
		log.Printf("batchService.Submit: stored %s as %s for batch %s",
			header.Filename, meta.S3Key, batch.ID)
	}
	return batch, nil
}

// discardUploaded removes objects already stored for a batch whose
// submission is being rejected, so a failed request leaves no orphans
// in the bucket.
func (s *batchService) discardUploaded(ctx context.Context, metas []*domain.FileMeta) {
	for _, meta := range metas {
		if err := s.storage.Delete(ctx, meta.S3Bucket, meta.S3Key); err != nil {
			log.Printf("batchService.discardUploaded: deleting %s: %v", meta.S3Key, err)
			continue
		}
		if err := s.fileRepo.UpdateStatus(ctx, meta.ID, domain.FileStatusDeleted); err != nil {
			log.Printf("batchService.discardUploaded: marking %s deleted: %v", meta.ID, err)
		}
	}
}

func (s *batchService) uploadOne(ctx context.Context, batchID uuid.UUID, header *multipart.FileHeader) (*domain.FileMeta, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	maxBytes := s.s3cfg.MaxFileSizeMB * 1024 * 1024
	if header.Size > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer file.Close()

	// Magic-byte sniff; the client-declared content type is not trusted.
	buf := make([]byte, 512)
	n, err := file.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("reading file header: %w", err)
	}
	detectedType := http.DetectContentType(buf[:n])
	if _, valid := domain.AllowedContentTypes[detectedType]; !valid {
		return nil, domain.ErrUnsupportedFileType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking file: %w", err)
	}

	fileID := uuid.New()
	s3Key := fmt.Sprintf("batches/%s/files/%s/%s", batchID, fileID, header.Filename)
	contentType := domain.AllowedFileTypes[fileType]

	meta := &domain.FileMeta{
		ID:           fileID,
		BatchID:      batchID,
		FileName:     fileID.String() + "." + ext,
		OriginalName: header.Filename,
		FileType:     fileType,
		FileSize:     header.Size,
		S3Bucket:     s.s3cfg.Bucket,
		S3Key:        s3Key,
		ContentType:  contentType,
		Status:       domain.FileStatusPending,
	}
	if err := s.fileRepo.Create(ctx, meta); err != nil {
		return nil, fmt.Errorf("creating file metadata: %w", err)
	}

	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3cfg.Bucket,
		Key:         s3Key,
		Body:        file,
		ContentType: contentType,
		Size:        header.Size,
	})
	if err != nil {
		log.Printf("batchService.uploadOne: S3 upload failed for %s: %v", meta.ID, err)
		_ = s.fileRepo.UpdateStatus(ctx, meta.ID, domain.FileStatusFailed)
		return nil, domain.ErrUploadFailed
	}
	if err := s.fileRepo.UpdateStatus(ctx, meta.ID, domain.FileStatusUploaded); err != nil {
		return nil, fmt.Errorf("updating file status: %w", err)
	}
	meta.Status = domain.FileStatusUploaded
	return meta, nil
}

func (s *batchService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	return s.batchRepo.GetByID(ctx, id)
}

// ListFiles lists a batch's files. Uploaded files get a presigned
// download URL so clients can fetch the original resume without going
// through the API.
func (s *batchService) ListFiles(ctx context.Context, batchID uuid.UUID) ([]BatchFileView, error) {
	if _, err := s.batchRepo.GetByID(ctx, batchID); err != nil {
		return nil, err
	}
	files, err := s.fileRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing batch files: %w", err)
	}

	views := make([]BatchFileView, 0, len(files))
	for _, f := range files {
		view := BatchFileView{
			ID:           f.ID,
			OriginalName: f.OriginalName,
			FileSize:     f.FileSize,
			Status:       f.Status,
		}
		if f.Status == domain.FileStatusUploaded {
			url, err := s.storage.GetPresignedURL(ctx, f.S3Bucket, f.S3Key, s.s3cfg.PresignExpiry)
			if err != nil {
				return nil, fmt.Errorf("presigning %s: %w", f.S3Key, err)
			}
			view.DownloadURL = url
		}
		views = append(views, view)
	}
	return views, nil
}

// RunByID runs a queued batch synchronously within the caller's request.
// The queue worker claims batches through ClaimQueued instead; a batch it
// has already picked up is no longer queued and is rejected here.
func (s *batchService) RunByID(ctx context.Context, id uuid.UUID) (*domain.ExtractionBatch, error) {
	batch, err := s.batchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != domain.BatchStatusQueued {
		return nil, domain.ErrBatchNotRunnable
	}

	batch.Status = domain.BatchStatusProcessing
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		return nil, fmt.Errorf("updating batch status: %w", err)
	}
	s.Run(ctx, batch)
	return batch, nil
}

// Run executes one claimed batch end to end and records the outcome on
// the batch row. Called by the queue worker; errors terminate the batch
// rather than propagate.
func (s *batchService) Run(ctx context.Context, batch *domain.ExtractionBatch) {
	docs, err := s.loadDocuments(ctx, batch.ID)
	if err != nil {
		s.fail(ctx, batch, err)
		return
	}

	outcome, err := s.pipeline.Run(ctx, batch.ID, docs, batch.Strategy)
	if err != nil {
		s.fail(ctx, batch, err)
		return
	}

	now := time.Now().UTC()
	batch.Status = domain.BatchStatusCompleted
	batch.SucceededCount = outcome.Succeeded
	batch.FailedCount = outcome.Failed
	batch.FailedNames = outcome.FailedNames
	batch.CompletedAt = &now
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		log.Printf("batchService.Run: updating batch %s: %v", batch.ID, err)
		return
	}

	log.Printf("batchService.Run: batch %s completed: %d processed, %d failed",
		batch.ID, outcome.Processed, outcome.Failed)
	s.notify(ctx, batch)
}

func (s *batchService) loadDocuments(ctx context.Context, batchID uuid.UUID) ([]domain.Document, error) {
	files, err := s.fileRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("listing batch files: %w", err)
	}

	docs := make([]domain.Document, 0, len(files))
	for _, f := range files {
		if f.Status != domain.FileStatusUploaded {
			continue
		}
		data, err := s.storage.Download(ctx, f.S3Bucket, f.S3Key)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", f.S3Key, err)
		}
		docs = append(docs, domain.Document{
			Name:        f.OriginalName,
			ContentType: f.ContentType,
			Data:        data,
		})
	}
	if len(docs) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	return docs, nil
}

func (s *batchService) fail(ctx context.Context, batch *domain.ExtractionBatch, cause error) {
	log.Printf("batchService.Run: batch %s failed: %v", batch.ID, cause)
	now := time.Now().UTC()
	batch.Status = domain.BatchStatusFailed
	batch.FailedCount = batch.DocumentCount
	batch.Error = cause.Error()
	batch.CompletedAt = &now
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		log.Printf("batchService.Run: updating failed batch %s: %v", batch.ID, err)
		return
	}
	s.notify(ctx, batch)
}

func (s *batchService) notify(ctx context.Context, batch *domain.ExtractionBatch) {
	if batch.NotifyEmail == "" || s.email == nil {
		return
	}
	if err := s.email.SendBatchCompleted(ctx, batch.NotifyEmail, batch); err != nil {
		log.Printf("batchService.notify: batch %s: %v", batch.ID, err)
	}
}

// Export streams the batch's candidates as an XLSX workbook.
func (s *batchService) Export(ctx context.Context, batchID uuid.UUID, w io.Writer) error {
	if _, err := s.batchRepo.GetByID(ctx, batchID); err != nil {
		return err
	}

	const pageSize = 500
	var all []domain.CandidateRecord
	for offset := 0; ; offset += pageSize {
		recs, total, err := s.candidateRepo.ListByBatch(ctx, batchID, offset, pageSize)
		if err != nil {
			return fmt.Errorf("listing candidates: %w", err)
		}
		all = append(all, recs...)
		if offset+pageSize >= total || len(recs) == 0 {
			break
		}
	}
	return export.WriteCandidatesXLSX(w, all)
}

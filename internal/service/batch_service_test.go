package service_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"talentos/internal/config"
	"talentos/internal/domain"
	"talentos/internal/pipeline"
	"talentos/internal/port"
	"talentos/internal/service"
	"talentos/mocks"
)

func testS3Config() config.S3Config {
	return config.S3Config{
		Region:        "us-east-1",
		Bucket:        "test-bucket",
		MaxFileSizeMB: 50,
		PresignExpiry: 900,
	}
}

// stubPipeline lets tests control the batch outcome without standing up
// extractor slots.
type stubPipeline struct {
	run func(ctx context.Context, batchID uuid.UUID, docs []domain.Document, strategy string) (*domain.BatchOutcome, error)
}

func (s *stubPipeline) Run(ctx context.Context, batchID uuid.UUID, docs []domain.Document, strategy string) (*domain.BatchOutcome, error) {
	return s.run(ctx, batchID, docs, strategy)
}

// createMultipartFile creates a fake multipart file header and content for testing.
func createMultipartFile(filename string, content []byte, contentType string) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="files"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)

	part, _ := writer.CreatePart(h)
	_, _ = part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content) + 1024))
	return form.File["files"][0]
}

// pdfContent returns minimal valid PDF bytes.
func pdfContent() []byte {
	return []byte("%PDF-1.4 test content that is at least a few bytes long for detection purposes")
}

func newBatchFixture(pipe service.BatchPipeline) (service.BatchService, *mocks.MockBatchRepo, *mocks.MockFileMetaRepo, *mocks.MockCandidateRepo, *mocks.MockObjectStorage, *mocks.MockEmailSender) {
	batchRepo := new(mocks.MockBatchRepo)
	fileRepo := new(mocks.MockFileMetaRepo)
	candidateRepo := new(mocks.MockCandidateRepo)
	storage := new(mocks.MockObjectStorage)
	email := new(mocks.MockEmailSender)
	cfg := testS3Config()
	svc := service.NewBatchService(batchRepo, fileRepo, candidateRepo, storage, pipe, email, &cfg)
	return svc, batchRepo, fileRepo, candidateRepo, storage, email
}

func TestBatchService_Submit_Success(t *testing.T) {
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(nil)

	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)
	fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(&port.UploadOutput{}, nil)
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusUploaded).Return(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("resume-1.pdf", pdfContent(), "application/pdf"),
			createMultipartFile("resume-2.pdf", pdfContent(), "application/pdf"),
		},
		Strategy: "shard",
	})

	require.NoError(t, err)
	require.NotNil(t, batch)
	assert.Equal(t, domain.BatchStatusQueued, batch.Status)
	assert.Equal(t, 2, batch.DocumentCount)
	assert.NotEqual(t, uuid.Nil, batch.ID)

	batchRepo.AssertExpectations(t)
	fileRepo.AssertExpectations(t)
	storage.AssertNumberOfCalls(t, "Upload", 2)
}

func TestBatchService_Submit_Empty(t *testing.T) {
	svc, batchRepo, _, _, _, _ := newBatchFixture(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	batchRepo.AssertNotCalled(t, "Create")
}

func TestBatchService_Submit_InvalidStrategy(t *testing.T) {
	svc, batchRepo, _, _, storage, _ := newBatchFixture(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("resume.pdf", pdfContent(), "application/pdf"),
		},
		Strategy: "zigzag",
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrInvalidStrategy)
	batchRepo.AssertNotCalled(t, "Create")
	storage.AssertNotCalled(t, "Upload")
}

func TestBatchService_Submit_UnsupportedExtension(t *testing.T) {
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(nil)
	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("malware.exe", []byte("MZ fake exe content"), "application/octet-stream"),
		},
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	fileRepo.AssertNotCalled(t, "Create")
	storage.AssertNotCalled(t, "Upload")
}

func TestBatchService_Submit_ContentMismatch(t *testing.T) {
	// Extension says pdf, magic bytes say otherwise.
	svc, batchRepo, fileRepo, _, _, _ := newBatchFixture(nil)
	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("disguised.pdf", []byte{0x4D, 0x5A, 0x90, 0x00, 0x03}, "application/pdf"),
		},
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	fileRepo.AssertNotCalled(t, "Create")
}

func TestBatchService_Submit_FileTooLarge(t *testing.T) {
	batchRepo := new(mocks.MockBatchRepo)
	fileRepo := new(mocks.MockFileMetaRepo)
	storage := new(mocks.MockObjectStorage)
	cfg := testS3Config()
	cfg.MaxFileSizeMB = 1
	svc := service.NewBatchService(batchRepo, fileRepo, new(mocks.MockCandidateRepo), storage, nil, nil, &cfg)

	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)
	header := createMultipartFile("large.pdf", pdfContent(), "application/pdf")
	header.Size = 2 * 1024 * 1024 // 2MB

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{header},
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	fileRepo.AssertNotCalled(t, "Create")
}

func TestBatchService_Submit_StorageFailure(t *testing.T) {
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(nil)

	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)
	fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, io.ErrUnexpectedEOF)
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusFailed).Return(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("resume.pdf", pdfContent(), "application/pdf"),
		},
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	fileRepo.AssertExpectations(t)
}

func TestBatchService_Submit_DiscardsUploadedOnFailure(t *testing.T) {
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(nil)

	batchRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)
	fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)

	var uploadedKey string
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Run(func(args mock.Arguments) { uploadedKey = args.Get(1).(port.UploadInput).Key }).
		Return(&port.UploadOutput{}, nil).Once()
	storage.On("Upload", mock.Anything, mock.AnythingOfType("port.UploadInput")).
		Return(nil, io.ErrUnexpectedEOF).Once()

	var deletedKey string
	storage.On("Delete", mock.Anything, "test-bucket", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { deletedKey = args.Get(2).(string) }).
		Return(nil)

	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusUploaded).Return(nil)
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusFailed).Return(nil)
	fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusDeleted).Return(nil)

	batch, err := svc.Submit(context.Background(), service.BatchSubmitInput{
		Files: []*multipart.FileHeader{
			createMultipartFile("resume-1.pdf", pdfContent(), "application/pdf"),
			createMultipartFile("resume-2.pdf", pdfContent(), "application/pdf"),
		},
	})

	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	storage.AssertNumberOfCalls(t, "Delete", 1)
	assert.Equal(t, uploadedKey, deletedKey)
	fileRepo.AssertCalled(t, "UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusDeleted)
}

func TestBatchService_ListFiles(t *testing.T) {
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(nil)
	batchID := uuid.New()

	batchRepo.On("GetByID", mock.Anything, batchID).
		Return(&domain.ExtractionBatch{ID: batchID, Status: domain.BatchStatusCompleted}, nil)
	uploadedID := uuid.New()
	fileRepo.On("ListByBatch", mock.Anything, batchID).Return([]domain.FileMeta{
		{
			ID:           uploadedID,
			BatchID:      batchID,
			OriginalName: "resume.pdf",
			FileSize:     1024,
			S3Bucket:     "test-bucket",
			S3Key:        "k",
			Status:       domain.FileStatusUploaded,
		},
		{
			ID:           uuid.New(),
			BatchID:      batchID,
			OriginalName: "broken.pdf",
			Status:       domain.FileStatusFailed,
		},
	}, nil)
	storage.On("GetPresignedURL", mock.Anything, "test-bucket", "k", int64(900)).
		Return("https://signed.example/k", nil)

	views, err := svc.ListFiles(context.Background(), batchID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, uploadedID, views[0].ID)
	assert.Equal(t, "https://signed.example/k", views[0].DownloadURL)
	assert.Empty(t, views[1].DownloadURL)
	storage.AssertNumberOfCalls(t, "GetPresignedURL", 1)
}

func TestBatchService_ListFiles_BatchNotFound(t *testing.T) {
	svc, batchRepo, fileRepo, _, _, _ := newBatchFixture(nil)
	batchID := uuid.New()
	batchRepo.On("GetByID", mock.Anything, batchID).Return(nil, domain.ErrNotFound)

	views, err := svc.ListFiles(context.Background(), batchID)
	assert.Nil(t, views)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	fileRepo.AssertNotCalled(t, "ListByBatch")
}

func TestBatchService_Run_Completed(t *testing.T) {
	batchID := uuid.New()
	pipe := &stubPipeline{
		run: func(_ context.Context, id uuid.UUID, docs []domain.Document, strategy string) (*domain.BatchOutcome, error) {
			assert.Equal(t, batchID, id)
			assert.Len(t, docs, 1)
			assert.Equal(t, pipeline.StrategyGroup, strategy)
			return &domain.BatchOutcome{
				Processed:   1,
				Succeeded:   1,
				Failed:      0,
				FailedNames: nil,
			}, nil
		},
	}
	svc, batchRepo, fileRepo, _, storage, email := newBatchFixture(pipe)

	fileRepo.On("ListByBatch", mock.Anything, batchID).Return([]domain.FileMeta{
		{
			ID:           uuid.New(),
			BatchID:      batchID,
			OriginalName: "resume.pdf",
			S3Bucket:     "test-bucket",
			S3Key:        "batches/x/files/y/resume.pdf",
			ContentType:  "application/pdf",
			Status:       domain.FileStatusUploaded,
		},
		{
			// Never made it to S3; excluded from the run.
			ID:           uuid.New(),
			BatchID:      batchID,
			OriginalName: "broken.pdf",
			Status:       domain.FileStatusFailed,
		},
	}, nil)
	storage.On("Download", mock.Anything, "test-bucket", "batches/x/files/y/resume.pdf").
		Return(pdfContent(), nil)

	var updated *domain.ExtractionBatch
	batchRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*domain.ExtractionBatch) }).
		Return(nil)
	email.On("SendBatchCompleted", mock.Anything, "hiring@example.com", mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)

	svc.Run(context.Background(), &domain.ExtractionBatch{
		ID:            batchID,
		Status:        domain.BatchStatusProcessing,
		Strategy:      pipeline.StrategyGroup,
		DocumentCount: 1,
		NotifyEmail:   "hiring@example.com",
	})

	require.NotNil(t, updated)
	assert.Equal(t, domain.BatchStatusCompleted, updated.Status)
	assert.Equal(t, 1, updated.SucceededCount)
	assert.Equal(t, 0, updated.FailedCount)
	require.NotNil(t, updated.CompletedAt)
	email.AssertExpectations(t)
}

func TestBatchService_Run_PipelineFailure(t *testing.T) {
	batchID := uuid.New()
	pipe := &stubPipeline{
		run: func(context.Context, uuid.UUID, []domain.Document, string) (*domain.BatchOutcome, error) {
			return nil, errors.New("batch produced no usable results")
		},
	}
	svc, batchRepo, fileRepo, _, storage, email := newBatchFixture(pipe)

	fileRepo.On("ListByBatch", mock.Anything, batchID).Return([]domain.FileMeta{
		{
			ID:           uuid.New(),
			BatchID:      batchID,
			OriginalName: "resume.pdf",
			S3Bucket:     "test-bucket",
			S3Key:        "k",
			ContentType:  "application/pdf",
			Status:       domain.FileStatusUploaded,
		},
	}, nil)
	storage.On("Download", mock.Anything, "test-bucket", "k").Return(pdfContent(), nil)

	var updated *domain.ExtractionBatch
	batchRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*domain.ExtractionBatch) }).
		Return(nil)

	svc.Run(context.Background(), &domain.ExtractionBatch{
		ID:            batchID,
		Status:        domain.BatchStatusProcessing,
		DocumentCount: 1,
	})

	require.NotNil(t, updated)
	assert.Equal(t, domain.BatchStatusFailed, updated.Status)
	assert.Equal(t, 1, updated.FailedCount)
	assert.Contains(t, updated.Error, "no usable results")
	email.AssertNotCalled(t, "SendBatchCompleted")
}

func TestBatchService_Run_NoUploadedFiles(t *testing.T) {
	batchID := uuid.New()
	pipe := &stubPipeline{
		run: func(context.Context, uuid.UUID, []domain.Document, string) (*domain.BatchOutcome, error) {
			t.Fatal("pipeline must not run without documents")
			return nil, nil
		},
	}
	svc, batchRepo, fileRepo, _, _, _ := newBatchFixture(pipe)

	fileRepo.On("ListByBatch", mock.Anything, batchID).Return([]domain.FileMeta{}, nil)

	var updated *domain.ExtractionBatch
	batchRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*domain.ExtractionBatch) }).
		Return(nil)

	svc.Run(context.Background(), &domain.ExtractionBatch{ID: batchID, DocumentCount: 0})

	require.NotNil(t, updated)
	assert.Equal(t, domain.BatchStatusFailed, updated.Status)
}

func TestBatchService_RunByID_QueuedBatch(t *testing.T) {
	batchID := uuid.New()
	pipe := &stubPipeline{
		run: func(context.Context, uuid.UUID, []domain.Document, string) (*domain.BatchOutcome, error) {
			return &domain.BatchOutcome{Processed: 1, Succeeded: 1}, nil
		},
	}
	svc, batchRepo, fileRepo, _, storage, _ := newBatchFixture(pipe)

	batchRepo.On("GetByID", mock.Anything, batchID).
		Return(&domain.ExtractionBatch{ID: batchID, Status: domain.BatchStatusQueued, DocumentCount: 1}, nil)
	batchRepo.On("Update", mock.Anything, mock.AnythingOfType("*domain.ExtractionBatch")).Return(nil)
	fileRepo.On("ListByBatch", mock.Anything, batchID).Return([]domain.FileMeta{
		{
			ID:           uuid.New(),
			BatchID:      batchID,
			OriginalName: "resume.pdf",
			S3Bucket:     "test-bucket",
			S3Key:        "k",
			ContentType:  "application/pdf",
			Status:       domain.FileStatusUploaded,
		},
	}, nil)
	storage.On("Download", mock.Anything, "test-bucket", "k").Return(pdfContent(), nil)

	batch, err := svc.RunByID(context.Background(), batchID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchStatusCompleted, batch.Status)
	assert.Equal(t, 1, batch.SucceededCount)
}

func TestBatchService_RunByID_NotRunnable(t *testing.T) {
	svc, batchRepo, _, _, _, _ := newBatchFixture(nil)
	batchID := uuid.New()

	batchRepo.On("GetByID", mock.Anything, batchID).
		Return(&domain.ExtractionBatch{ID: batchID, Status: domain.BatchStatusCompleted}, nil)

	batch, err := svc.RunByID(context.Background(), batchID)
	assert.Nil(t, batch)
	assert.ErrorIs(t, err, domain.ErrBatchNotRunnable)
	batchRepo.AssertNotCalled(t, "Update")
}

func TestBatchService_GetByID(t *testing.T) {
	svc, batchRepo, _, _, _, _ := newBatchFixture(nil)
	id := uuid.New()
	batchRepo.On("GetByID", mock.Anything, id).
		Return(&domain.ExtractionBatch{ID: id, Status: domain.BatchStatusCompleted}, nil)

	batch, err := svc.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, batch.ID)
}

func TestBatchService_Export(t *testing.T) {
	svc, batchRepo, _, candidateRepo, _, _ := newBatchFixture(nil)
	batchID := uuid.New()

	batchRepo.On("GetByID", mock.Anything, batchID).
		Return(&domain.ExtractionBatch{ID: batchID, Status: domain.BatchStatusCompleted}, nil)
	candidateRepo.On("ListByBatch", mock.Anything, batchID, 0, 500).
		Return([]domain.CandidateRecord{
			{Name: "Priya Sharma", SourceFile: "priya.pdf"},
			{Name: "Arun Patel", SourceFile: "arun.pdf"},
		}, 2, nil)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), batchID, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Candidates")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Priya Sharma", rows[1][0])
}

func TestBatchService_Export_BatchNotFound(t *testing.T) {
	svc, batchRepo, _, candidateRepo, _, _ := newBatchFixture(nil)
	batchID := uuid.New()
	batchRepo.On("GetByID", mock.Anything, batchID).Return(nil, domain.ErrNotFound)

	var buf bytes.Buffer
	err := svc.Export(context.Background(), batchID, &buf)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	candidateRepo.AssertNotCalled(t, "ListByBatch")
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"talentos/internal/domain"
	"talentos/internal/handler"
	"talentos/internal/service"
	"talentos/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 test content"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.WriteField("strategy", "shard"))
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestBatchHandler_Submit_Success(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	batch := &domain.ExtractionBatch{
		ID:            uuid.New(),
		Status:        domain.BatchStatusQueued,
		DocumentCount: 1,
	}
	mockBatch.On("Submit", mock.Anything, mock.AnythingOfType("service.BatchSubmitInput")).
		Return(batch, nil)

	body, contentType := multipartBody(t, "resume.pdf")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Submit(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockBatch.AssertExpectations(t)
}

func TestBatchHandler_Submit_NoFiles(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("strategy", "shard"))
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches", body)
	c.Request.Header.Set("Content-Type", writer.FormDataContentType())

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "MISSING_FILES", resp.Error.Code)
	mockBatch.AssertNotCalled(t, "Submit")
}

func TestBatchHandler_Submit_UnsupportedType(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	mockBatch.On("Submit", mock.Anything, mock.AnythingOfType("service.BatchSubmitInput")).
		Return(nil, domain.ErrUnsupportedFileType)

	body, contentType := multipartBody(t, "malware.exe")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHandler_Get_Success(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("GetByID", mock.Anything, id).
		Return(&domain.ExtractionBatch{ID: id, Status: domain.BatchStatusCompleted}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/batches/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBatchHandler_Get_NotFound(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/batches/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBatchHandler_Get_InvalidID(t *testing.T) {
	h := handler.NewBatchHandler(new(mocks.MockBatchService))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/batches/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatchHandler_Files_Success(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("ListFiles", mock.Anything, id).
		Return([]service.BatchFileView{
			{ID: uuid.New(), OriginalName: "resume.pdf", Status: domain.FileStatusUploaded, DownloadURL: "https://signed.example/k"},
		}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/batches/"+id.String()+"/files", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Files(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, w.Body.String(), "https://signed.example/k")
}

func TestBatchHandler_Submit_InvalidStrategy(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	mockBatch.On("Submit", mock.Anything, mock.AnythingOfType("service.BatchSubmitInput")).
		Return(nil, domain.ErrInvalidStrategy)

	body, contentType := multipartBody(t, "resume.pdf")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches", body)
	c.Request.Header.Set("Content-Type", contentType)

	h.Submit(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_STRATEGY", resp.Error.Code)
}

func TestBatchHandler_Run_NotRunnable(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("RunByID", mock.Anything, id).Return(nil, domain.ErrBatchNotRunnable)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches/"+id.String()+"/run", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Run(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBatchHandler_Run_Success(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("RunByID", mock.Anything, id).
		Return(&domain.ExtractionBatch{ID: id, Status: domain.BatchStatusCompleted, SucceededCount: 3}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/batches/"+id.String()+"/run", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Run(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestBatchHandler_Export_SetsHeaders(t *testing.T) {
	mockBatch := new(mocks.MockBatchService)
	h := handler.NewBatchHandler(mockBatch)

	id := uuid.New()
	mockBatch.On("Export", mock.Anything, id, mock.Anything).Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/batches/"+id.String()+"/export", nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "candidates-"+id.String()+".xlsx")
	mockBatch.AssertExpectations(t)
}

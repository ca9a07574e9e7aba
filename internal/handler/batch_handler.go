package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talentos/internal/service"
)

// BatchHandler handles extraction batch endpoints.
type BatchHandler struct {
	batchService service.BatchService
}

// NewBatchHandler creates a new BatchHandler.
func NewBatchHandler(batchService service.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// Submit handles POST /api/v1/batches. Accepts a multipart form with one
// or more "files" parts plus optional "strategy" and "notify_email"
// fields, uploads the resumes and enqueues the batch.
func (h *BatchHandler) Submit(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FORM", "multipart form is required")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		RespondError(c, http.StatusBadRequest, "MISSING_FILES", "at least one file is required")
		return
	}

	input := service.BatchSubmitInput{
		Files:       files,
		Strategy:    c.PostForm("strategy"),
		NotifyEmail: c.PostForm("notify_email"),
	}
	batch, err := h.batchService.Submit(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, batch)
}

// Get handles GET /api/v1/batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
		return
	}

	batch, err := h.batchService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, batch)
}

// Files handles GET /api/v1/batches/:id/files and lists the batch's
// files with presigned download links.
func (h *BatchHandler) Files(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
		return
	}

	files, err := h.batchService.ListFiles(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, files)
}

// Run handles POST /api/v1/batches/:id/run and executes a queued batch
// synchronously. Most batches are picked up by the queue worker; this is
// the escape hatch for running one inline.
func (h *BatchHandler) Run(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
		return
	}

	batch, err := h.batchService.RunByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, batch)
}

// Export handles GET /api/v1/batches/:id/export and streams the batch's
// candidates as an XLSX workbook.
func (h *BatchHandler) Export(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
		return
	}

	filename := fmt.Sprintf("candidates-%s.xlsx", id)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.batchService.Export(c.Request.Context(), id, c.Writer); err != nil {
		HandleError(c, err)
		return
	}
}

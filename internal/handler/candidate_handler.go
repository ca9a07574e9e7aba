package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talentos/internal/service"
)

// CandidateHandler handles extracted candidate endpoints.
type CandidateHandler struct {
	candidateService service.CandidateService
}

// NewCandidateHandler creates a new CandidateHandler.
func NewCandidateHandler(candidateService service.CandidateService) *CandidateHandler {
	return &CandidateHandler{candidateService: candidateService}
}

// List handles GET /api/v1/candidates. An optional batch_id query param
// narrows the listing to one batch.
func (h *CandidateHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	if batchIDStr := c.Query("batch_id"); batchIDStr != "" {
		batchID, err := uuid.Parse(batchIDStr)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid batch id")
			return
		}
		recs, total, err := h.candidateService.ListByBatch(c.Request.Context(), batchID, offset, limit)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
		return
	}

	recs, total, err := h.candidateService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, recs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Get handles GET /api/v1/candidates/:id
func (h *CandidateHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid candidate id")
		return
	}

	rec, err := h.candidateService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, rec)
}

func pagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

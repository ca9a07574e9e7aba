package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"talentos/internal/service"
)

// MatchHandler handles candidate-scoring job endpoints.
type MatchHandler struct {
	matchService service.MatchService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matchService service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

type matchSubmitRequest struct {
	JobDescription string   `json:"job_description" binding:"required"`
	CandidateIDs   []string `json:"candidate_ids"`
}

// Submit handles POST /api/v1/match. The job runs asynchronously; poll
// GET /api/v1/match/:id for progress and results.
func (h *MatchHandler) Submit(c *gin.Context) {
	var req matchSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "job_description is required")
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "job_description must not be blank")
		return
	}

	job, err := h.matchService.Submit(c.Request.Context(), service.MatchSubmitInput{
		JobDescription: req.JobDescription,
		CandidateIDs:   req.CandidateIDs,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, job)
}

// Get handles GET /api/v1/match/:id
func (h *MatchHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid match job id")
		return
	}

	job, matches, err := h.matchService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"job": job, "matches": matches})
}

// Cancel handles DELETE /api/v1/match/:id. Partial results accumulated
// before cancellation remain available.
func (h *MatchHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid match job id")
		return
	}

	if err := h.matchService.Cancel(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, gin.H{"id": id, "status": "cancelling"})
}

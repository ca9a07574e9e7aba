package router

import (
	"github.com/gin-gonic/gin"

	"talentos/internal/handler"
	"talentos/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	batchH *handler.BatchHandler,
	candidateH *handler.CandidateHandler,
	matchH *handler.MatchHandler,
	healthH *handler.HealthHandler,
	allowedOrigins []string,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Extraction batches
	batches := v1.Group("/batches")
	batches.POST("", batchH.Submit)
	batches.POST("/:id/run", batchH.Run)
	batches.GET("/:id", batchH.Get)
	batches.GET("/:id/files", batchH.Files)
	batches.GET("/:id/export", batchH.Export)

	// Extracted candidates
	candidates := v1.Group("/candidates")
	candidates.GET("", candidateH.List)
	candidates.GET("/:id", candidateH.Get)

	// Candidate-scoring jobs
	match := v1.Group("/match")
	match.POST("", matchH.Submit)
	match.GET("/:id", matchH.Get)
	match.DELETE("/:id", matchH.Cancel)

	return r
}

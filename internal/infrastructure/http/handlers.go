package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/ports/inbound"
	apperrors "github.com/kruger4712/mealprep/pkg/errors"
)

// SuggestionHandler serves the single orchestration endpoint.
type SuggestionHandler struct {
	service inbound.SuggestionService
	logger  *zap.Logger
}

// NewSuggestionHandler creates the handler.
func NewSuggestionHandler(service inbound.SuggestionService, logger *zap.Logger) *SuggestionHandler {
	return &SuggestionHandler{service: service, logger: logger.Named("handler.suggestions")}
}

// generateRequest is the wire shape of an incoming suggestion request.
type generateRequest struct {
	RequesterID string                    `json:"requester_id" binding:"required,uuid"`
	Type        string                    `json:"type" binding:"required"`
	Prompt      string                    `json:"prompt" binding:"required"`
	Constraints suggestion.Constraints    `json:"constraints"`
	Family      suggestion.FamilyProfile  `json:"family"`
	Quality     string                    `json:"quality"`
	Tier        string                    `json:"tier"`
}

// Generate handles POST /api/v1/suggestions.
func (h *SuggestionHandler) Generate(c *gin.Context) {
	var body generateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	requesterID, err := uuid.Parse(body.RequesterID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid requester_id"})
		return
	}

	req := suggestion.NewRequest(requesterID, suggestion.RequestType(body.Type), body.Prompt, body.Constraints, body.Family)
	if body.Quality != "" {
		req.Quality = suggestion.QualityDemand(body.Quality)
	}

	result, err := h.service.GenerateSuggestions(c.Request.Context(), req, body.Tier)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request_id":  req.ID,
		"served_from": result.ServedFrom.String(),
		"candidates":  result.Candidates,
		"quality":     result.Quality,
		"validation":  result.Validation,
		"decisions":   result.Decisions,
		"warn_budget": result.WarnBudget,
	})
}

// writeError maps typed errors to HTTP statuses. Raw provider or internal
// error text never reaches the response body.
func (h *SuggestionHandler) writeError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		h.logger.Warn("request failed",
			zap.String("code", string(appErr.Code)),
			zap.Error(err))
		c.JSON(appErr.StatusCode(), gin.H{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}
	h.logger.Error("unexpected error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// HealthReporter is what the health endpoint needs from the tracker.
type HealthReporter interface {
	Status(provider string) suggestion.HealthStatus
}

// HealthHandler serves the liveness endpoint with provider health attached.
type HealthHandler struct {
	health HealthReporter
}

// NewHealthHandler creates the handler.
func NewHealthHandler(health HealthReporter) *HealthHandler {
	return &HealthHandler{health: health}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"providers": []suggestion.HealthStatus{h.health.Status("primary"), h.health.Status("secondary")},
	})
}

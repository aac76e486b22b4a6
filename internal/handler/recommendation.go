package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/internal/service"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/api"
	"github.com/vcscsvcscs/telehealth-portal/apps/booking/pkg/model"
	"go.uber.org/zap"
)

// RecommendationHandler serves doctor recommendations for a diagnostic report
type RecommendationHandler struct {
	service *service.RecommendationService
	logger  *zap.Logger
}

// NewRecommendationHandler creates a new RecommendationHandler
func NewRecommendationHandler(service *service.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: service,
		logger:  logger,
	}
}

// PostApiV1Recommendations ranks catalog doctors for the report.
// Catalog outages produce an empty list with status 200.
func (h *RecommendationHandler) PostApiV1Recommendations(c *gin.Context) {
	var req api.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.logger, err)
		return
	}

	var filters model.RecommendationFilters
	if req.Filters != nil {
		filters = *req.Filters
	}

	results := h.service.Recommend(c.Request.Context(), req.Report, req.Patient, filters)

	c.JSON(http.StatusOK, api.RecommendationResponse{
		Specialties:     service.MapDiagnosisToSpecialties(req.Report),
		Recommendations: results,
	})
}

package cron

import (
	"net/http"

	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/gin-gonic/gin"
)

// EstimateHandler handles estimate related cron jobs
type EstimateHandler struct {
	estimateService service.EstimateService
	logger          *logger.Logger
}

// NewEstimateHandler creates a new estimate cron handler
func NewEstimateHandler(estimateService service.EstimateService, logger *logger.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// ExpireStaleEstimates flips sent and viewed estimates past their valid-until
// date to expired
func (h *EstimateHandler) ExpireStaleEstimates(c *gin.Context) {
	h.logger.Infow("starting estimate expiry cron job")

	expired, err := h.estimateService.ExpireStale(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to expire stale estimates", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed estimate expiry cron job", "expired", expired)
	c.JSON(http.StatusOK, gin.H{"expired": expired})
}

package v1

import (
	"net/http"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/billflow/billflow/internal/types"
	"github.com/gin-gonic/gin"
)

// WebhookHandler receives payment processor events. Delivery is at-least-once
// and may be out of order; the reconciliation service handles both.
type WebhookHandler struct {
	reconciliationService service.SubscriptionReconciliationService
	logger                *logger.Logger
}

func NewWebhookHandler(
	reconciliationService service.SubscriptionReconciliationService,
	logger *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		reconciliationService: reconciliationService,
		logger:                logger,
	}
}

// HandleProcessorEvent godoc
// @Summary Receive a payment processor event
// @Description Apply a subscription lifecycle event to the local account state
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param event body types.ProcessorEvent true "Processor event"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /webhooks/processor [post]
func (h *WebhookHandler) HandleProcessorEvent(c *gin.Context) {
	var event types.ProcessorEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		h.logger.Errorw("failed to bind processor event", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid event payload").Mark(ierr.ErrValidation))
		return
	}

	if err := h.reconciliationService.ProcessEvent(c.Request.Context(), &event); err != nil {
		h.logger.Errorw("failed to process event",
			"event_id", event.ID,
			"event_type", event.Type,
			"error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

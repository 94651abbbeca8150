package cron

import (
	"net/http"

	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice related cron jobs
type InvoiceHandler struct {
	recurringService service.RecurringInvoiceService
	reminderService  service.ReminderService
	logger           *logger.Logger
}

// NewInvoiceHandler creates a new invoice cron handler
func NewInvoiceHandler(
	recurringService service.RecurringInvoiceService,
	reminderService service.ReminderService,
	logger *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		recurringService: recurringService,
		reminderService:  reminderService,
		logger:           logger,
	}
}

// GenerateRecurringInvoices generates invoices for every due active template.
// Failures are isolated per template and reported in the response counts.
func (h *InvoiceHandler) GenerateRecurringInvoices(c *gin.Context) {
	h.logger.Infow("starting recurring invoice generation cron job")

	response, err := h.recurringService.GenerateAllDue(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to generate recurring invoices", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed recurring invoice generation cron job",
		"total", response.Total,
		"success", response.Success,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}

// SendDueSoonReminders reminds sent and viewed invoices whose due date falls
// within the configured upcoming window
func (h *InvoiceHandler) SendDueSoonReminders(c *gin.Context) {
	h.logger.Infow("starting due-soon reminder cron job")

	response, err := h.reminderService.DueSoonSweep(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to run due-soon reminder sweep", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed due-soon reminder cron job",
		"considered", response.Considered,
		"dispatched", response.Dispatched,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}

// SendOverdueReminders flips past-due unpaid invoices to overdue and reminds them
func (h *InvoiceHandler) SendOverdueReminders(c *gin.Context) {
	h.logger.Infow("starting overdue reminder cron job")

	response, err := h.reminderService.OverdueSweep(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to run overdue reminder sweep", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed overdue reminder cron job",
		"considered", response.Considered,
		"dispatched", response.Dispatched,
		"failed", response.Failed)
	c.JSON(http.StatusOK, response)
}

package v1

import (
	"net/http"

	"github.com/billflow/billflow/internal/api/dto"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/billflow/billflow/internal/types"
	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService  service.InvoiceService
	reminderService service.ReminderService
	logger          *logger.Logger
}

func NewInvoiceHandler(
	invoiceService service.InvoiceService,
	reminderService service.ReminderService,
	logger *logger.Logger,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		reminderService: reminderService,
		logger:          logger,
	}
}

// CreateInvoice godoc
// @Summary Create a new invoice
// @Description Create a new draft invoice with the provided details
// @Tags Invoices
// @Accept json
// @Produce json
// @Param invoice body dto.CreateInvoiceRequest true "Invoice details"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create invoice", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetInvoice godoc
// @Summary Get an invoice by ID
// @Description Get detailed information about an invoice
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid invoice id").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListInvoices godoc
// @Summary List invoices
// @Description List invoices with optional filtering
// @Tags Invoices
// @Produce json
// @Param filter query types.InvoiceFilter false "Filter"
// @Success 200 {array} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	var filter types.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Errorw("failed to bind query parameters", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid query parameters").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.ListInvoices(c.Request.Context(), &filter)
	if err != nil {
		h.logger.Errorw("failed to list invoices", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendInvoice godoc
// @Summary Send an invoice
// @Description Transition a draft invoice to sent and enqueue delivery
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) SendInvoice(c *gin.Context) {
	resp, err := h.invoiceService.MarkSent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ViewInvoice godoc
// @Summary Record an invoice view
// @Description Transition a sent invoice to viewed. A no-op once viewed or later.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/view [post]
func (h *InvoiceHandler) ViewInvoice(c *gin.Context) {
	resp, err := h.invoiceService.MarkViewed(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// PayInvoice godoc
// @Summary Record a payment against an invoice
// @Description Mark a payable invoice as paid with the given payment details
// @Tags Invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param payment body dto.MarkPaidRequest true "Payment details"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/pay [post]
func (h *InvoiceHandler) PayInvoice(c *gin.Context) {
	var req dto.MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.invoiceService.MarkPaid(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CancelInvoice godoc
// @Summary Cancel an invoice
// @Description Cancel any non-terminal invoice. The document number is never reused.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) CancelInvoice(c *gin.Context) {
	resp, err := h.invoiceService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RemindInvoice godoc
// @Summary Send a payment reminder
// @Description Dispatch one payment reminder for the invoice. force bypasses the cooldown and lifetime cap but never the status rules.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Param force query bool false "Bypass cadence limits"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} ierr.ErrorResponse
// @Router /invoices/{id}/remind [post]
func (h *InvoiceHandler) RemindInvoice(c *gin.Context) {
	force := c.Query("force") == "true"

	sent, err := h.reminderService.SendReminder(c.Request.Context(), c.Param("id"), force)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

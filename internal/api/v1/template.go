package v1

import (
	"net/http"

	"github.com/billflow/billflow/internal/api/dto"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	recurringService service.RecurringInvoiceService
	logger           *logger.Logger
}

func NewTemplateHandler(recurringService service.RecurringInvoiceService, logger *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		recurringService: recurringService,
		logger:           logger,
	}
}

// CreateTemplate godoc
// @Summary Create a recurring invoice template
// @Description Create an active recurring template. The occurrence cursor starts at the start date.
// @Tags Templates
// @Accept json
// @Produce json
// @Param template body dto.CreateTemplateRequest true "Template details"
// @Success 201 {object} dto.TemplateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.recurringService.CreateTemplate(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create template", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetTemplate godoc
// @Summary Get a recurring template by ID
// @Description Get detailed information about a recurring template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} dto.TemplateResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid template id").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.recurringService.GetTemplate(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GenerateInvoice godoc
// @Summary Generate an invoice from a template
// @Description Spawn one invoice occurrence from a due template
// @Tags Templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /templates/{id}/generate [post]
func (h *TemplateHandler) GenerateInvoice(c *gin.Context) {
	resp, err := h.recurringService.GenerateInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

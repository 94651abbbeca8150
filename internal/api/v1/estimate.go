package v1

import (
	"net/http"

	"github.com/billflow/billflow/internal/api/dto"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/service"
	"github.com/gin-gonic/gin"
)

type EstimateHandler struct {
	estimateService service.EstimateService
	logger          *logger.Logger
}

func NewEstimateHandler(estimateService service.EstimateService, logger *logger.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// CreateEstimate godoc
// @Summary Create a new estimate
// @Description Create a new draft estimate with the provided details
// @Tags Estimates
// @Accept json
// @Produce json
// @Param estimate body dto.CreateEstimateRequest true "Estimate details"
// @Success 201 {object} dto.EstimateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /estimates [post]
func (h *EstimateHandler) CreateEstimate(c *gin.Context) {
	var req dto.CreateEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorw("failed to bind request", "error", err)
		c.Error(ierr.WithError(err).WithHint("invalid request").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.estimateService.CreateEstimate(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to create estimate", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetEstimate godoc
// @Summary Get an estimate by ID
// @Description Get detailed information about an estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} dto.EstimateResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetEstimate(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("invalid estimate id").Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.estimateService.GetEstimate(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SendEstimate godoc
// @Summary Send an estimate
// @Description Transition a draft estimate to sent and enqueue delivery
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} dto.EstimateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id}/send [post]
func (h *EstimateHandler) SendEstimate(c *gin.Context) {
	resp, err := h.estimateService.MarkSent(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ViewEstimate godoc
// @Summary Record an estimate view
// @Description Transition a sent estimate to viewed. A no-op once viewed or later.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} dto.EstimateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id}/view [post]
func (h *EstimateHandler) ViewEstimate(c *gin.Context) {
	resp, err := h.estimateService.MarkViewed(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// AcceptEstimate godoc
// @Summary Accept an estimate
// @Description Record client acceptance of a sent or viewed estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} dto.EstimateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id}/accept [post]
func (h *EstimateHandler) AcceptEstimate(c *gin.Context) {
	resp, err := h.estimateService.Accept(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DeclineEstimate godoc
// @Summary Decline an estimate
// @Description Record client decline of a sent or viewed estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} dto.EstimateResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id}/decline [post]
func (h *EstimateHandler) DeclineEstimate(c *gin.Context) {
	resp, err := h.estimateService.Decline(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ConvertEstimate godoc
// @Summary Convert an estimate to an invoice
// @Description Turn an accepted, unconverted estimate into a new draft invoice
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /estimates/{id}/convert [post]
func (h *EstimateHandler) ConvertEstimate(c *gin.Context) {
	resp, err := h.estimateService.ConvertToInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

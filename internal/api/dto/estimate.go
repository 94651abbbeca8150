package dto

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/domain/estimate"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// CreateEstimateRequest creates a draft estimate
type CreateEstimateRequest struct {
	CustomerID     string                  `json:"customer_id" binding:"required"`
	ProjectID      *string                 `json:"project_id,omitempty"`
	IssueDate      *time.Time              `json:"issue_date,omitempty"`
	ValidUntil     *time.Time              `json:"valid_until,omitempty"`
	TaxRate        decimal.Decimal         `json:"tax_rate"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
	Notes          string                  `json:"notes,omitempty"`
	LineItems      []CreateLineItemRequest `json:"line_items,omitempty"`
	ManualTotals   *types.BillingTotals    `json:"manual_totals,omitempty"`
}

func (r *CreateEstimateRequest) Validate() error {
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Customer is required").
			Mark(ierr.ErrValidation)
	}
	if r.TaxRate.IsNegative() {
		return ierr.NewError("tax_rate must be non negative").
			WithHint("Tax rate must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.DiscountAmount.IsNegative() {
		return ierr.NewError("discount_amount must be non negative").
			WithHint("Discount must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToEstimate converts the request to a draft domain estimate
func (r *CreateEstimateRequest) ToEstimate(ctx context.Context) *estimate.Estimate {
	issueDate := types.Today()
	if r.IssueDate != nil {
		issueDate = types.DateOnly(*r.IssueDate)
	}

	est := &estimate.Estimate{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ESTIMATE),
		CustomerID:     r.CustomerID,
		ProjectID:      r.ProjectID,
		EstimateStatus: types.EstimateStatusDraft,
		IssueDate:      issueDate,
		TaxRate:        r.TaxRate,
		DiscountAmount: r.DiscountAmount,
		Notes:          r.Notes,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	if r.ValidUntil != nil {
		est.ValidUntil = types.DateOnly(*r.ValidUntil)
	}

	for idx, item := range r.LineItems {
		position := item.Position
		if position == 0 {
			position = idx + 1
		}
		est.LineItems = append(est.LineItems, &estimate.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ESTIMATE_LINE_ITEM),
			EstimateID:  est.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    position,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}

	return est
}

// EstimateResponse is the wire shape of an estimate
type EstimateResponse struct {
	*estimate.Estimate
}

// NewEstimateResponse wraps a domain estimate for the wire
func NewEstimateResponse(est *estimate.Estimate) *EstimateResponse {
	return &EstimateResponse{Estimate: est}
}

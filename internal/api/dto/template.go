package dto

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/domain/template"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// CreateTemplateRequest creates an active recurring invoice template
type CreateTemplateRequest struct {
	CustomerID       string                   `json:"customer_id" binding:"required"`
	Name             string                   `json:"name" binding:"required"`
	Frequency        types.RecurringFrequency `json:"frequency" binding:"required"`
	StartDate        time.Time                `json:"start_date" binding:"required"`
	EndDate          *time.Time               `json:"end_date,omitempty"`
	OccurrencesLimit *int                     `json:"occurrences_limit,omitempty"`
	PaymentTerms     int                      `json:"payment_terms"`
	AutoSend         bool                     `json:"auto_send"`
	TaxRate          decimal.Decimal          `json:"tax_rate"`
	DiscountAmount   decimal.Decimal          `json:"discount_amount"`
	Notes            string                   `json:"notes,omitempty"`
	LineItems        []CreateLineItemRequest  `json:"line_items,omitempty"`
}

func (r *CreateTemplateRequest) Validate() error {
	if r.CustomerID == "" {
		return ierr.NewError("customer_id is required").
			WithHint("Customer is required").
			Mark(ierr.ErrValidation)
	}
	if err := r.Frequency.Validate(); err != nil {
		return err
	}
	if r.StartDate.IsZero() {
		return ierr.NewError("start_date is required").
			WithHint("Start date is required").
			Mark(ierr.ErrValidation)
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ierr.NewError("end_date must not precede start_date").
			WithHint("End date must be on or after the start date").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToTemplate converts the request to a domain template. The occurrence cursor
// starts at the start date.
func (r *CreateTemplateRequest) ToTemplate(ctx context.Context) *template.Template {
	start := types.DateOnly(r.StartDate)
	next := start

	tpl := &template.Template{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEMPLATE),
		CustomerID:         r.CustomerID,
		Name:               r.Name,
		Frequency:          r.Frequency,
		TemplateStatus:     types.TemplateStatusActive,
		StartDate:          start,
		NextOccurrenceDate: &next,
		OccurrencesLimit:   r.OccurrencesLimit,
		PaymentTerms:       r.PaymentTerms,
		AutoSend:           r.AutoSend,
		TaxRate:            r.TaxRate,
		DiscountAmount:     r.DiscountAmount,
		Notes:              r.Notes,
		BaseModel:          types.GetDefaultBaseModel(ctx),
	}

	if r.EndDate != nil {
		end := types.DateOnly(*r.EndDate)
		tpl.EndDate = &end
	}

	for idx, item := range r.LineItems {
		position := item.Position
		if position == 0 {
			position = idx + 1
		}
		tpl.LineItems = append(tpl.LineItems, &template.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEMPLATE_LINE_ITEM),
			TemplateID:  tpl.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    position,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}

	return tpl
}

// TemplateResponse is the wire shape of a recurring template
type TemplateResponse struct {
	*template.Template
}

// NewTemplateResponse wraps a domain template for the wire
func NewTemplateResponse(tpl *template.Template) *TemplateResponse {
	return &TemplateResponse{Template: tpl}
}

package dto

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// CreateInvoiceRequest creates a draft invoice. Totals are computed from line
// items; ManualTotals is only honored when no line items are provided
// (manually priced documents with no itemization).
type CreateInvoiceRequest struct {
	CustomerID     string                  `json:"customer_id" binding:"required"`
	ProjectID      *string                 `json:"project_id,omitempty"`
	IssueDate      *time.Time              `json:"issue_date,omitempty"`
	DueDate        *time.Time              `json:"due_date,omitempty"`
	TaxRate        decimal.Decimal         `json:"tax_rate"`
	DiscountAmount decimal.Decimal         `json:"discount_amount"`
	Notes          string                  `json:"notes,omitempty"`
	LineItems      []CreateLineItemRequest `json:"line_items,omitempty"`
	ManualTotals   *types.BillingTotals    `json:"manual_totals,omitempty"`
}

func (r *CreateInvoiceRequest) Validate() error {
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

// ToInvoice converts the request to a draft domain invoice
func (r *CreateInvoiceRequest) ToInvoice(ctx context.Context) *invoice.Invoice {
	issueDate := types.Today()
	if r.IssueDate != nil {
		issueDate = types.DateOnly(*r.IssueDate)
	}

	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:     r.CustomerID,
		ProjectID:      r.ProjectID,
		InvoiceStatus:  types.InvoiceStatusDraft,
		IssueDate:      issueDate,
		TaxRate:        r.TaxRate,
		DiscountAmount: r.DiscountAmount,
		Notes:          r.Notes,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	if r.DueDate != nil {
		inv.DueDate = types.DateOnly(*r.DueDate)
	}

	for idx, item := range r.LineItems {
		position := item.Position
		if position == 0 {
			position = idx + 1
		}
		inv.LineItems = append(inv.LineItems, &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			InvoiceID:   inv.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    position,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}

	return inv
}

// MarkPaidRequest records a payment against a payable invoice
type MarkPaidRequest struct {
	PaymentMethod    types.PaymentMethod `json:"payment_method" binding:"required"`
	PaymentReference string              `json:"payment_reference,omitempty"`
}

func (r *MarkPaidRequest) Validate() error {
	return r.PaymentMethod.Validate()
}

// InvoiceResponse is the wire shape of an invoice
type InvoiceResponse struct {
	*invoice.Invoice
}

// NewInvoiceResponse wraps a domain invoice for the wire
func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	return &InvoiceResponse{Invoice: inv}
}

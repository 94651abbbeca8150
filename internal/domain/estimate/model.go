package estimate

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// Estimate represents the estimate domain model. It shares the billable
// document shape with Invoice but has its own acceptance lifecycle.
type Estimate struct {
	ID             string               `db:"id" json:"id"`
	CustomerID     string               `db:"customer_id" json:"customer_id"`
	ProjectID      *string              `db:"project_id" json:"project_id,omitempty"`
	Number         *string              `db:"number" json:"number"`
	EstimateStatus types.EstimateStatus `db:"estimate_status" json:"estimate_status"`
	IssueDate      time.Time            `db:"issue_date" json:"issue_date"`
	ValidUntil     time.Time            `db:"valid_until" json:"valid_until"`
	TaxRate        decimal.Decimal      `db:"tax_rate" json:"tax_rate"`
	DiscountAmount decimal.Decimal      `db:"discount_amount" json:"discount_amount"`
	Subtotal       decimal.Decimal      `db:"subtotal" json:"subtotal"`
	TaxAmount      decimal.Decimal      `db:"tax_amount" json:"tax_amount"`
	TotalAmount    decimal.Decimal      `db:"total_amount" json:"total_amount"`
	Notes          string               `db:"notes" json:"notes,omitempty"`

	SentAt     *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ViewedAt   *time.Time `db:"viewed_at" json:"viewed_at,omitempty"`
	AcceptedAt *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	DeclinedAt *time.Time `db:"declined_at" json:"declined_at,omitempty"`
	ExpiredAt  *time.Time `db:"expired_at" json:"expired_at,omitempty"`

	// ConvertedAt and ConvertedInvoiceID are stamped together when the
	// accepted estimate produces an invoice
	ConvertedAt        *time.Time `db:"converted_at" json:"converted_at,omitempty"`
	ConvertedInvoiceID *string    `db:"converted_invoice_id" json:"converted_invoice_id,omitempty"`

	LineItems []*LineItem `json:"line_items,omitempty"`
	types.BaseModel
}

// BillingLineItems projects the owned line items into the calculator's shape
func (e *Estimate) BillingLineItems() []types.BillingLineItem {
	items := make([]types.BillingLineItem, len(e.LineItems))
	for idx, item := range e.LineItems {
		items[idx] = types.BillingLineItem{
			Description:      item.Description,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			MarkedForRemoval: item.MarkedForRemoval,
		}
	}
	return items
}

// ApplyTotals writes computed totals back onto the estimate
func (e *Estimate) ApplyTotals(totals types.BillingTotals) {
	e.Subtotal = totals.Subtotal
	e.TaxAmount = totals.TaxAmount
	e.TotalAmount = totals.TotalAmount
}

// IsConvertible reports whether the estimate may produce an invoice
func (e *Estimate) IsConvertible() bool {
	return e.EstimateStatus == types.EstimateStatusAccepted && e.ConvertedInvoiceID == nil
}

func (e *Estimate) Validate() error {
	if e.CustomerID == "" {
		return ierr.NewError("estimate customer_id is required").
			WithHint("Customer is required").
			Mark(ierr.ErrValidation)
	}

	if err := e.EstimateStatus.Validate(); err != nil {
		return err
	}

	if e.TaxRate.IsNegative() {
		return ierr.NewError("estimate tax_rate must be non negative").
			WithHint("Tax rate must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	if e.DiscountAmount.IsNegative() {
		return ierr.NewError("estimate discount_amount must be non negative").
			WithHint("Discount must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	for _, item := range e.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

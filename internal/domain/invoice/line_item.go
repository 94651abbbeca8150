package invoice

import (
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single line item owned by an invoice
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Position    int             `db:"position" json:"position"`

	// MarkedForRemoval excludes the item from totals before it is deleted on
	// the next persist. Not stored.
	MarkedForRemoval bool `db:"-" json:"-"`

	types.BaseModel
}

// Amount is quantity × unit price, computed, never the stored source of truth
func (i *LineItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Validate rejects numeric invariant violations before any calculation or
// persistence. Violations are never silently clamped.
func (i *LineItem) Validate() error {
	if !i.Quantity.IsPositive() {
		return ierr.NewError("line item quantity must be positive").
			WithHint("Quantity must be greater than zero").
			WithReportableDetails(map[string]any{
				"description": i.Description,
				"quantity":    i.Quantity,
			}).
			Mark(ierr.ErrValidation)
	}

	if i.UnitPrice.IsNegative() {
		return ierr.NewError("line item unit price must be non negative").
			WithHint("Unit price must be zero or positive").
			WithReportableDetails(map[string]any{
				"description": i.Description,
				"unit_price":  i.UnitPrice,
			}).
			Mark(ierr.ErrValidation)
	}

	return nil
}

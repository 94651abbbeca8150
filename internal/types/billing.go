package types

import (
	"github.com/shopspring/decimal"
)

// BillingLineItem is the calculator's view of a line item. All three document
// kinds (invoice, estimate, recurring template) project their owned line items
// into this shape before totals are computed.
type BillingLineItem struct {
	Description      string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	MarkedForRemoval bool
}

// Amount is quantity × unit price, unrounded. Rounding happens once, at the
// tax step of the totals computation.
func (i BillingLineItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// BillingTotals is the computed monetary summary of a billable document
type BillingTotals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

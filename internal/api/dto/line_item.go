package dto

import (
	"github.com/shopspring/decimal"
)

// CreateLineItemRequest is the wire shape for a line item on any billable
// document. Quantity and unit price are validated by the domain before any
// calculation.
type CreateLineItemRequest struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Position    int             `json:"position"`
}

// LineItemResponse is the wire shape of a persisted line item
type LineItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Position    int             `json:"position"`
}

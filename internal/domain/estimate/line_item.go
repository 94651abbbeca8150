package estimate

import (
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// LineItem represents a single line item owned by an estimate
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	EstimateID  string          `db:"estimate_id" json:"estimate_id"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	Position    int             `db:"position" json:"position"`

	MarkedForRemoval bool `db:"-" json:"-"`

	types.BaseModel
}

// Amount is quantity × unit price
func (i *LineItem) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

func (i *LineItem) Validate() error {
	if !i.Quantity.IsPositive() {
		return ierr.NewError("line item quantity must be positive").
			WithHint("Quantity must be greater than zero").
			Mark(ierr.ErrValidation)
	}

	if i.UnitPrice.IsNegative() {
		return ierr.NewError("line item unit price must be non negative").
			WithHint("Unit price must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	return nil
}

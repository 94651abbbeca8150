package service

import (
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// BillingService computes document totals. It is a pure calculator: callers
// invoke it explicitly before persistence, there is no save-hook recalculation.
type BillingService interface {
	// Calculate returns (subtotal, tax, total) for the given line items.
	// Items marked for removal are excluded. When no items remain, the
	// previously persisted totals are returned unchanged: manually priced
	// documents carry no itemization. Callers creating new documents must
	// supply explicit values instead of relying on that fallback.
	Calculate(items []types.BillingLineItem, taxRate, discountAmount decimal.Decimal, previous types.BillingTotals) (types.BillingTotals, error)
}

type billingService struct{}

// NewBillingService creates the totals calculator
func NewBillingService() BillingService {
	return &billingService{}
}

var oneHundred = decimal.NewFromInt(100)

func (s *billingService) Calculate(items []types.BillingLineItem, taxRate, discountAmount decimal.Decimal, previous types.BillingTotals) (types.BillingTotals, error) {
	if taxRate.IsNegative() {
		return types.BillingTotals{}, ierr.NewError("tax rate must be non negative").
			WithHint("Tax rate must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if discountAmount.IsNegative() {
		return types.BillingTotals{}, ierr.NewError("discount amount must be non negative").
			WithHint("Discount must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	active := make([]types.BillingLineItem, 0, len(items))
	for _, item := range items {
		if item.MarkedForRemoval {
			continue
		}
		if !item.Quantity.IsPositive() {
			return types.BillingTotals{}, ierr.NewError("line item quantity must be positive").
				WithHint("Quantity must be greater than zero").
				WithReportableDetails(map[string]any{
					"description": item.Description,
					"quantity":    item.Quantity,
				}).
				Mark(ierr.ErrValidation)
		}
		if item.UnitPrice.IsNegative() {
			return types.BillingTotals{}, ierr.NewError("line item unit price must be non negative").
				WithHint("Unit price must be zero or positive").
				WithReportableDetails(map[string]any{
					"description": item.Description,
					"unit_price":  item.UnitPrice,
				}).
				Mark(ierr.ErrValidation)
		}
		active = append(active, item)
	}

	// A document with no itemization keeps whatever totals were last
	// persisted. This masks data-entry mistakes for fresh documents, so
	// callers must pass explicit values when creating without items.
	if len(active) == 0 {
		return previous, nil
	}

	subtotal := decimal.Zero
	for _, item := range active {
		subtotal = subtotal.Add(item.Amount())
	}

	// The tax step is the single point of intermediate rounding (half-up)
	taxAmount := subtotal.Mul(taxRate).Div(oneHundred).Round(2)
	totalAmount := subtotal.Add(taxAmount).Sub(discountAmount)

	return types.BillingTotals{
		Subtotal:    subtotal,
		TaxAmount:   taxAmount,
		TotalAmount: totalAmount,
	}, nil
}

package service

import (
	"testing"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	suite.Suite
	service BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.service = NewBillingService()
}

func (s *BillingServiceSuite) TestCalculateTotals() {
	items := []types.BillingLineItem{
		{Description: "Development", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(150)},
		{Description: "Design", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100)},
	}

	totals, err := s.service.Calculate(items, decimal.NewFromInt(10), decimal.Zero, types.BillingTotals{})
	s.NoError(err)
	s.True(totals.Subtotal.Equal(decimal.NewFromInt(2000)), "subtotal = %s", totals.Subtotal)
	s.True(totals.TaxAmount.Equal(decimal.NewFromInt(200)), "tax = %s", totals.TaxAmount)
	s.True(totals.TotalAmount.Equal(decimal.NewFromInt(2200)), "total = %s", totals.TotalAmount)
}

func (s *BillingServiceSuite) TestCalculateWithDiscount() {
	items := []types.BillingLineItem{
		{Description: "Consulting", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(250)},
	}

	totals, err := s.service.Calculate(items, decimal.NewFromInt(20), decimal.NewFromInt(100), types.BillingTotals{})
	s.NoError(err)
	s.True(totals.Subtotal.Equal(decimal.NewFromInt(1000)))
	s.True(totals.TaxAmount.Equal(decimal.NewFromInt(200)))
	s.True(totals.TotalAmount.Equal(decimal.NewFromInt(1100)))
}

func (s *BillingServiceSuite) TestCalculateRoundsTaxHalfUp() {
	// 3 × 33.33 = 99.99, 7.5% tax = 7.49925 → 7.50 at the single rounding point
	items := []types.BillingLineItem{
		{Description: "Hosting", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("33.33")},
	}

	totals, err := s.service.Calculate(items, decimal.RequireFromString("7.5"), decimal.Zero, types.BillingTotals{})
	s.NoError(err)
	s.True(totals.Subtotal.Equal(decimal.RequireFromString("99.99")))
	s.True(totals.TaxAmount.Equal(decimal.RequireFromString("7.50")), "tax = %s", totals.TaxAmount)
	s.True(totals.TotalAmount.Equal(decimal.RequireFromString("107.49")))
}

func (s *BillingServiceSuite) TestCalculateFractionalQuantity() {
	items := []types.BillingLineItem{
		{Description: "Support hours", Quantity: decimal.RequireFromString("2.5"), UnitPrice: decimal.NewFromInt(80)},
	}

	totals, err := s.service.Calculate(items, decimal.Zero, decimal.Zero, types.BillingTotals{})
	s.NoError(err)
	s.True(totals.Subtotal.Equal(decimal.NewFromInt(200)))
	s.True(totals.TaxAmount.IsZero())
	s.True(totals.TotalAmount.Equal(decimal.NewFromInt(200)))
}

func (s *BillingServiceSuite) TestCalculateSkipsItemsMarkedForRemoval() {
	items := []types.BillingLineItem{
		{Description: "Kept", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
		{Description: "Removed", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(999), MarkedForRemoval: true},
	}

	totals, err := s.service.Calculate(items, decimal.Zero, decimal.Zero, types.BillingTotals{})
	s.NoError(err)
	s.True(totals.Subtotal.Equal(decimal.NewFromInt(100)))
}

func (s *BillingServiceSuite) TestCalculateEmptyItemsKeepsPreviousTotals() {
	previous := types.BillingTotals{
		Subtotal:    decimal.NewFromInt(500),
		TaxAmount:   decimal.NewFromInt(50),
		TotalAmount: decimal.NewFromInt(550),
	}

	totals, err := s.service.Calculate(nil, decimal.NewFromInt(10), decimal.Zero, previous)
	s.NoError(err)
	s.True(totals.Subtotal.Equal(previous.Subtotal))
	s.True(totals.TaxAmount.Equal(previous.TaxAmount))
	s.True(totals.TotalAmount.Equal(previous.TotalAmount))
}

func (s *BillingServiceSuite) TestCalculateAllItemsRemovedKeepsPreviousTotals() {
	items := []types.BillingLineItem{
		{Description: "Removed", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100), MarkedForRemoval: true},
	}
	previous := types.BillingTotals{
		Subtotal:    decimal.NewFromInt(100),
		TaxAmount:   decimal.NewFromInt(10),
		TotalAmount: decimal.NewFromInt(110),
	}

	totals, err := s.service.Calculate(items, decimal.NewFromInt(10), decimal.Zero, previous)
	s.NoError(err)
	s.True(totals.TotalAmount.Equal(previous.TotalAmount))
}

func (s *BillingServiceSuite) TestCalculateRejectsInvalidInputs() {
	valid := []types.BillingLineItem{
		{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100)},
	}

	testCases := []struct {
		name     string
		items    []types.BillingLineItem
		taxRate  decimal.Decimal
		discount decimal.Decimal
	}{
		{
			name:     "negative_tax_rate",
			items:    valid,
			taxRate:  decimal.NewFromInt(-1),
			discount: decimal.Zero,
		},
		{
			name:     "negative_discount",
			items:    valid,
			taxRate:  decimal.Zero,
			discount: decimal.NewFromInt(-1),
		},
		{
			name: "zero_quantity",
			items: []types.BillingLineItem{
				{Description: "Bad", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(100)},
			},
			taxRate:  decimal.Zero,
			discount: decimal.Zero,
		},
		{
			name: "negative_quantity",
			items: []types.BillingLineItem{
				{Description: "Bad", Quantity: decimal.NewFromInt(-2), UnitPrice: decimal.NewFromInt(100)},
			},
			taxRate:  decimal.Zero,
			discount: decimal.Zero,
		},
		{
			name: "negative_unit_price",
			items: []types.BillingLineItem{
				{Description: "Bad", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(-100)},
			},
			taxRate:  decimal.Zero,
			discount: decimal.Zero,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.Calculate(tc.items, tc.taxRate, tc.discount, types.BillingTotals{})
			s.Error(err)
			s.True(ierr.IsValidation(err))
		})
	}
}

package invoice

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice represents the invoice domain model. Totals are always recomputed
// from the owned line items before persistence, never trusted from callers.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	CustomerID     string              `db:"customer_id" json:"customer_id"`
	ProjectID      *string             `db:"project_id" json:"project_id,omitempty"`
	Number         *string             `db:"number" json:"number"`
	InvoiceStatus  types.InvoiceStatus `db:"invoice_status" json:"invoice_status"`
	IssueDate      time.Time           `db:"issue_date" json:"issue_date"`
	DueDate        time.Time           `db:"due_date" json:"due_date"`
	TaxRate        decimal.Decimal     `db:"tax_rate" json:"tax_rate"`
	DiscountAmount decimal.Decimal     `db:"discount_amount" json:"discount_amount"`
	Subtotal       decimal.Decimal     `db:"subtotal" json:"subtotal"`
	TaxAmount      decimal.Decimal     `db:"tax_amount" json:"tax_amount"`
	TotalAmount    decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Notes          string              `db:"notes" json:"notes,omitempty"`

	// Lifecycle timestamps, stamped once per transition
	SentAt      *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	ViewedAt    *time.Time `db:"viewed_at" json:"viewed_at,omitempty"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`

	PaymentMethod    *types.PaymentMethod `db:"payment_method" json:"payment_method,omitempty"`
	PaymentReference *string              `db:"payment_reference" json:"payment_reference,omitempty"`

	// Back references for invoices produced by conversion or recurrence
	EstimateID *string `db:"estimate_id" json:"estimate_id,omitempty"`
	TemplateID *string `db:"template_id" json:"template_id,omitempty"`

	// Reminder state, mutated only by the reminder cadence controller
	ReminderSentAt *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	ReminderCount  int        `db:"reminder_count" json:"reminder_count"`

	LineItems []*LineItem `json:"line_items,omitempty"`
	types.BaseModel
}

// BillingLineItems projects the owned line items into the calculator's shape
func (i *Invoice) BillingLineItems() []types.BillingLineItem {
	items := make([]types.BillingLineItem, len(i.LineItems))
	for idx, item := range i.LineItems {
		items[idx] = types.BillingLineItem{
			Description:      item.Description,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			MarkedForRemoval: item.MarkedForRemoval,
		}
	}
	return items
}

// ApplyTotals writes computed totals back onto the invoice
func (i *Invoice) ApplyTotals(totals types.BillingTotals) {
	i.Subtotal = totals.Subtotal
	i.TaxAmount = totals.TaxAmount
	i.TotalAmount = totals.TotalAmount
}

// IsPastDue reports whether the invoice's due date has passed as of the given day
func (i *Invoice) IsPastDue(today time.Time) bool {
	return types.DateOnly(i.DueDate).Before(types.DateOnly(today))
}

func (i *Invoice) Validate() error {
	if i.CustomerID == "" {
		return ierr.NewError("invoice customer_id is required").
			WithHint("Customer is required").
			Mark(ierr.ErrValidation)
	}

	if err := i.InvoiceStatus.Validate(); err != nil {
		return err
	}

	if i.TaxRate.IsNegative() {
		return ierr.NewError("invoice tax_rate must be non negative").
			WithHint("Tax rate must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	if i.DiscountAmount.IsNegative() {
		return ierr.NewError("invoice discount_amount must be non negative").
			WithHint("Discount must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	if i.ReminderCount < 0 {
		return ierr.NewError("invoice reminder_count must be non negative").
			Mark(ierr.ErrValidation)
	}

	for _, item := range i.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

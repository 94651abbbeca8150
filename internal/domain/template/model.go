package template

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
)

// Template represents a recurring invoice template. Its line items are copied,
// not referenced, into each spawned invoice. The occurrence cursor only ever
// advances forward.
type Template struct {
	ID             string                   `db:"id" json:"id"`
	CustomerID     string                   `db:"customer_id" json:"customer_id"`
	Name           string                   `db:"name" json:"name"`
	Frequency      types.RecurringFrequency `db:"frequency" json:"frequency"`
	TemplateStatus types.TemplateStatus     `db:"template_status" json:"template_status"`

	StartDate          time.Time  `db:"start_date" json:"start_date"`
	EndDate            *time.Time `db:"end_date" json:"end_date,omitempty"`
	NextOccurrenceDate *time.Time `db:"next_occurrence_date" json:"next_occurrence_date,omitempty"`
	OccurrencesCount   int        `db:"occurrences_count" json:"occurrences_count"`
	OccurrencesLimit   *int       `db:"occurrences_limit" json:"occurrences_limit,omitempty"`
	LastGeneratedAt    *time.Time `db:"last_generated_at" json:"last_generated_at,omitempty"`

	PaymentTerms   int             `db:"payment_terms" json:"payment_terms"`
	AutoSend       bool            `db:"auto_send" json:"auto_send"`
	TaxRate        decimal.Decimal `db:"tax_rate" json:"tax_rate"`
	DiscountAmount decimal.Decimal `db:"discount_amount" json:"discount_amount"`
	Notes          string          `db:"notes" json:"notes,omitempty"`

	LineItems []*LineItem `json:"line_items,omitempty"`
	types.BaseModel
}

// Advance moves the occurrence cursor one frequency interval forward and marks
// the template completed when the limit is reached or the next occurrence
// would exceed the end date. The cursor never resets.
func (t *Template) Advance(today time.Time) {
	if t.NextOccurrenceDate == nil {
		return
	}

	next := t.Frequency.Next(*t.NextOccurrenceDate)
	t.NextOccurrenceDate = &next
	t.OccurrencesCount++
	generatedAt := types.DateOnly(today)
	t.LastGeneratedAt = &generatedAt

	if t.shouldComplete() {
		t.TemplateStatus = types.TemplateStatusCompleted
		t.NextOccurrenceDate = nil
	}
}

func (t *Template) shouldComplete() bool {
	if t.OccurrencesLimit != nil && t.OccurrencesCount >= *t.OccurrencesLimit {
		return true
	}
	if t.EndDate != nil && t.NextOccurrenceDate != nil &&
		t.NextOccurrenceDate.After(types.DateOnly(*t.EndDate)) {
		return true
	}
	return false
}

func (t *Template) Validate() error {
	if t.CustomerID == "" {
		return ierr.NewError("template customer_id is required").
			WithHint("Customer is required").
			Mark(ierr.ErrValidation)
	}

	if err := t.Frequency.Validate(); err != nil {
		return err
	}

	if err := t.TemplateStatus.Validate(); err != nil {
		return err
	}

	if t.PaymentTerms < 0 {
		return ierr.NewError("template payment_terms must be non negative").
			WithHint("Payment terms must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	if t.OccurrencesLimit != nil && *t.OccurrencesLimit <= 0 {
		return ierr.NewError("template occurrences_limit must be positive").
			WithHint("Occurrence limit must be greater than zero").
			Mark(ierr.ErrValidation)
	}

	if t.TaxRate.IsNegative() {
		return ierr.NewError("template tax_rate must be non negative").
			WithHint("Tax rate must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	if t.DiscountAmount.IsNegative() {
		return ierr.NewError("template discount_amount must be non negative").
			WithHint("Discount must be zero or positive").
			Mark(ierr.ErrValidation)
	}

	for _, item := range t.LineItems {
		if err := item.Validate(); err != nil {
			return err
		}
	}

	return nil
}

package types

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/samber/lo"
)

// RecurringFrequency is the cadence at which a recurring template spawns invoices
type RecurringFrequency string

const (
	RecurringFrequencyWeekly    RecurringFrequency = "weekly"
	RecurringFrequencyBiweekly  RecurringFrequency = "biweekly"
	RecurringFrequencyMonthly   RecurringFrequency = "monthly"
	RecurringFrequencyQuarterly RecurringFrequency = "quarterly"
	RecurringFrequencyAnnually  RecurringFrequency = "annually"
)

func (f RecurringFrequency) String() string {
	return string(f)
}

func (f RecurringFrequency) Validate() error {
	allowed := []RecurringFrequency{
		RecurringFrequencyWeekly,
		RecurringFrequencyBiweekly,
		RecurringFrequencyMonthly,
		RecurringFrequencyQuarterly,
		RecurringFrequencyAnnually,
	}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid recurring frequency").
			WithHint("Please provide a valid recurring frequency").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Next returns the occurrence date one frequency interval after the given date.
// Weekly and biweekly use fixed day counts; monthly, quarterly and annually add
// calendar months with the day of month clamped to the target month's length,
// so Jan 31 + one month lands on Feb 29 (leap) or Feb 28, never Mar 2.
func (f RecurringFrequency) Next(from time.Time) time.Time {
	switch f {
	case RecurringFrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case RecurringFrequencyBiweekly:
		return from.AddDate(0, 0, 14)
	case RecurringFrequencyMonthly:
		return addMonthsClamped(from, 1)
	case RecurringFrequencyQuarterly:
		return addMonthsClamped(from, 3)
	case RecurringFrequencyAnnually:
		return addMonthsClamped(from, 12)
	}
	return from
}

// addMonthsClamped adds n calendar months preserving day-of-month semantics.
// time.AddDate normalizes overflow (Jan 31 + 1 month = Mar 2/3), which is not
// what billing cadences want.
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	m := int(month) + n
	year += (m - 1) / 12
	m = (m-1)%12 + 1

	if max := daysInMonth(year, time.Month(m)); day > max {
		day = max
	}

	return time.Date(year, time.Month(m), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// TemplateStatus represents the current state of a recurring template
type TemplateStatus string

const (
	TemplateStatusActive    TemplateStatus = "active"
	TemplateStatusPaused    TemplateStatus = "paused"
	TemplateStatusCancelled TemplateStatus = "cancelled"
	TemplateStatusCompleted TemplateStatus = "completed"
)

func (s TemplateStatus) String() string {
	return string(s)
}

func (s TemplateStatus) Validate() error {
	allowed := []TemplateStatus{
		TemplateStatusActive,
		TemplateStatusPaused,
		TemplateStatusCancelled,
		TemplateStatusCompleted,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid template status").
			WithHint("Please provide a valid template status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

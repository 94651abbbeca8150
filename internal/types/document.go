package types

import (
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/samber/lo"
)

// DocumentType distinguishes the two billable document kinds that share the
// numbering scheme and the line-item shape.
type DocumentType string

const (
	DocumentTypeInvoice  DocumentType = "invoice"
	DocumentTypeEstimate DocumentType = "estimate"
)

func (t DocumentType) String() string {
	return string(t)
}

func (t DocumentType) Validate() error {
	allowed := []DocumentType{
		DocumentTypeInvoice,
		DocumentTypeEstimate,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid document type").
			WithHint("Please provide a valid document type").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// InvoiceStatus represents the current state of an invoice in its lifecycle
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusViewed    InvoiceStatus = "viewed"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusDraft,
		InvoiceStatusSent,
		InvoiceStatusViewed,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCancelled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true once no further lifecycle transition is possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// IsPayable returns true when a payment may be recorded against the invoice
func (s InvoiceStatus) IsPayable() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed || s == InvoiceStatusOverdue
}

// IsUnpaid returns true for invoices that have left draft but are not yet
// paid or cancelled
func (s InvoiceStatus) IsUnpaid() bool {
	return s == InvoiceStatusSent || s == InvoiceStatusViewed || s == InvoiceStatusOverdue
}

// EstimateStatus represents the current state of an estimate in its lifecycle
type EstimateStatus string

const (
	EstimateStatusDraft     EstimateStatus = "draft"
	EstimateStatusSent      EstimateStatus = "sent"
	EstimateStatusViewed    EstimateStatus = "viewed"
	EstimateStatusAccepted  EstimateStatus = "accepted"
	EstimateStatusDeclined  EstimateStatus = "declined"
	EstimateStatusExpired   EstimateStatus = "expired"
	EstimateStatusConverted EstimateStatus = "converted"
)

func (s EstimateStatus) String() string {
	return string(s)
}

func (s EstimateStatus) Validate() error {
	allowed := []EstimateStatus{
		EstimateStatusDraft,
		EstimateStatusSent,
		EstimateStatusViewed,
		EstimateStatusAccepted,
		EstimateStatusDeclined,
		EstimateStatusExpired,
		EstimateStatusConverted,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid estimate status").
			WithHint("Please provide a valid estimate status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal returns true once no further lifecycle transition is possible.
// Accepted is not terminal because it may still be converted.
func (s EstimateStatus) IsTerminal() bool {
	return s == EstimateStatusDeclined || s == EstimateStatusExpired || s == EstimateStatusConverted
}

// PaymentMethod is the method recorded when an invoice is marked paid
type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodOther        PaymentMethod = "other"
)

func (m PaymentMethod) String() string {
	return string(m)
}

func (m PaymentMethod) Validate() error {
	allowed := []PaymentMethod{
		PaymentMethodBankTransfer,
		PaymentMethodCard,
		PaymentMethodCash,
		PaymentMethodCheck,
		PaymentMethodOther,
	}
	if !lo.Contains(allowed, m) {
		return ierr.NewError("invalid payment method").
			WithHint("Please provide a valid payment method").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

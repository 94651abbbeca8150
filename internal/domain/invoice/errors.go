package invoice

import "errors"

var (
	// ErrInvoiceNotFound is returned when an invoice is not found
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvalidInvoiceStatus is returned when a status transition is invalid
	ErrInvalidInvoiceStatus = errors.New("invalid invoice status")

	// ErrInvoiceAlreadyPaid indicates that the invoice has already been paid
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")

	// ErrInvoiceCancelled indicates that the invoice has been cancelled
	ErrInvoiceCancelled = errors.New("invoice cancelled")
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrInvoiceNotFound)
}

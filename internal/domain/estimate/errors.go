package estimate

import "errors"

var (
	// ErrEstimateNotFound is returned when an estimate is not found
	ErrEstimateNotFound = errors.New("estimate not found")

	// ErrInvalidEstimateStatus is returned when a status transition is invalid
	ErrInvalidEstimateStatus = errors.New("invalid estimate status")

	// ErrEstimateAlreadyConverted indicates the estimate already produced an invoice
	ErrEstimateAlreadyConverted = errors.New("estimate already converted")
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrEstimateNotFound)
}

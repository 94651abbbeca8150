package plan

import "errors"

var (
	// ErrPlanNotFound is returned when a plan is not found
	ErrPlanNotFound = errors.New("plan not found")
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrPlanNotFound)
}

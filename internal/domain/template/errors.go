package template

import "errors"

var (
	// ErrTemplateNotFound is returned when a template is not found
	ErrTemplateNotFound = errors.New("recurring template not found")

	// Generation precondition failures, each naming the specific unmet condition

	ErrTemplatePaused        = errors.New("template is paused")
	ErrTemplateCancelled     = errors.New("template is cancelled")
	ErrTemplateCompleted     = errors.New("template is completed")
	ErrTemplateLimitReached  = errors.New("template occurrence limit reached")
	ErrTemplateNotDue        = errors.New("template is not due")
	ErrTemplateEndDatePassed = errors.New("template end date has passed")
)

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrTemplateNotFound)
}

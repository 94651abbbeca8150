package types

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the local account subscription state, mutated only by
// reconciliation of processor events.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusPaused   SubscriptionStatus = "paused"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	allowed := []SubscriptionStatus{
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusPaused,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Please provide a valid subscription status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// processorStatusMap normalizes external processor subscription statuses into
// the local enum. "unpaid" collapses into canceled.
var processorStatusMap = map[string]SubscriptionStatus{
	"trialing":          SubscriptionStatusTrialing,
	"active":            SubscriptionStatusActive,
	"past_due":          SubscriptionStatusPastDue,
	"canceled":          SubscriptionStatusCanceled,
	"cancelled":         SubscriptionStatusCanceled,
	"unpaid":            SubscriptionStatusCanceled,
	"paused":            SubscriptionStatusPaused,
	"incomplete":        SubscriptionStatusActive,
	"incomplete_expire": SubscriptionStatusCanceled,
}

// MapProcessorStatus maps an external status string to a local status.
// Unrecognized statuses default to active rather than failing closed: a paying
// customer must not be locked out over an unmapped status string.
func MapProcessorStatus(external string) SubscriptionStatus {
	if status, ok := processorStatusMap[external]; ok {
		return status
	}
	return SubscriptionStatusActive
}

// ProcessorEventType is the closed set of payment-processor event kinds the
// reconciler recognizes. Anything else is explicitly ignored.
type ProcessorEventType string

const (
	ProcessorEventSubscriptionCreated ProcessorEventType = "customer.subscription.created"
	ProcessorEventSubscriptionUpdated ProcessorEventType = "customer.subscription.updated"
	ProcessorEventSubscriptionDeleted ProcessorEventType = "customer.subscription.deleted"
	ProcessorEventTrialWillEnd        ProcessorEventType = "customer.subscription.trial_will_end"
)

func (t ProcessorEventType) String() string {
	return string(t)
}

// IsRecognized reports whether the reconciler has a handler for this kind
func (t ProcessorEventType) IsRecognized() bool {
	allowed := []ProcessorEventType{
		ProcessorEventSubscriptionCreated,
		ProcessorEventSubscriptionUpdated,
		ProcessorEventSubscriptionDeleted,
		ProcessorEventTrialWillEnd,
	}
	return lo.Contains(allowed, t)
}

// ProcessorEvent is the strictly typed envelope for inbound payment-processor
// events. Delivery is at-least-once and may be out of order; OccurredAt carries
// the event-time ordering used to reject stale updates.
type ProcessorEvent struct {
	ID          string             `json:"id"`
	Type        ProcessorEventType `json:"type"`
	CustomerRef string             `json:"customer_ref"`
	PriceRef    string             `json:"price_ref,omitempty"`
	Status      string             `json:"status,omitempty"`
	TrialEnd    *time.Time         `json:"trial_end,omitempty"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func (e *ProcessorEvent) Validate() error {
	if e.Type == "" {
		return ierr.NewError("processor event type is required").
			WithHint("Event type must be set").
			Mark(ierr.ErrValidation)
	}
	if e.CustomerRef == "" {
		return ierr.NewError("processor event customer_ref is required").
			WithHint("Event customer reference must be set").
			Mark(ierr.ErrValidation)
	}
	if e.OccurredAt.IsZero() {
		return ierr.NewError("processor event occurred_at is required").
			WithHint("Event timestamp must be set").
			Mark(ierr.ErrValidation)
	}
	return nil
}

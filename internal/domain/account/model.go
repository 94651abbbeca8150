package account

import (
	"time"

	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// Account is the billing account of a tenant. Its subscription fields are
// mutated only by reconciliation of processor events; user actions merely
// initiate external checkout flows.
type Account struct {
	ID                  string                   `db:"id" json:"id"`
	Name                string                   `db:"name" json:"name"`
	PlanID              *string                  `db:"plan_id" json:"plan_id,omitempty"`
	SubscriptionStatus  types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	TrialEndsAt         *time.Time               `db:"trial_ends_at" json:"trial_ends_at,omitempty"`
	ExternalCustomerRef *string                  `db:"external_customer_ref" json:"external_customer_ref,omitempty"`

	// SubscriptionSyncedAt is the event time of the last applied processor
	// event. Events older than this are stale and skipped, so out-of-order
	// delivery cannot revert newer state.
	SubscriptionSyncedAt *time.Time `db:"subscription_synced_at" json:"subscription_synced_at,omitempty"`

	types.BaseModel
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return ierr.NewError("account name is required").
			WithHint("Account name is required").
			Mark(ierr.ErrValidation)
	}
	if a.SubscriptionStatus != "" {
		if err := a.SubscriptionStatus.Validate(); err != nil {
			return err
		}
	}
	return nil
}

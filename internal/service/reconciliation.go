package service

import (
	"context"

	"github.com/billflow/billflow/internal/domain/account"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// SubscriptionReconciliationService applies payment-processor subscription
// events to local account state. Processing is idempotent: delivery is
// at-least-once and may be out of order, so replays and stale events are
// absorbed, never compounded.
type SubscriptionReconciliationService interface {
	ProcessEvent(ctx context.Context, event *types.ProcessorEvent) error
}

type subscriptionReconciliationService struct {
	ServiceParams
}

// NewSubscriptionReconciliationService creates a new reconciliation service
func NewSubscriptionReconciliationService(params ServiceParams) SubscriptionReconciliationService {
	return &subscriptionReconciliationService{ServiceParams: params}
}

func (s *subscriptionReconciliationService) ProcessEvent(ctx context.Context, event *types.ProcessorEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	if !event.Type.IsRecognized() {
		s.Logger.Infow("ignoring unrecognized processor event type",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}

	// Processor events carry no tenant; the customer reference is the only key
	acct, err := s.AccountRepo.GetByExternalCustomerRef(ctx, event.CustomerRef)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("processor event for unknown customer",
				"event_id", event.ID,
				"event_type", event.Type,
				"customer_ref", event.CustomerRef)
			return nil
		}
		return err
	}

	ctx = types.SetTenantID(ctx, acct.TenantID)

	// Event-time ordering: anything older than the last applied event is stale
	if acct.SubscriptionSyncedAt != nil && event.OccurredAt.Before(*acct.SubscriptionSyncedAt) {
		s.Logger.Infow("skipping stale processor event",
			"event_id", event.ID,
			"event_type", event.Type,
			"account_id", acct.ID,
			"occurred_at", event.OccurredAt,
			"synced_at", acct.SubscriptionSyncedAt)
		return nil
	}

	switch event.Type {
	case types.ProcessorEventSubscriptionCreated, types.ProcessorEventSubscriptionUpdated:
		s.applySubscriptionState(ctx, acct, event)
	case types.ProcessorEventSubscriptionDeleted:
		s.applySubscriptionDeleted(ctx, acct, event)
	case types.ProcessorEventTrialWillEnd:
		// Informational: a trial-expiry notice, no local state change
		s.Logger.Infow("subscription trial ending soon",
			"account_id", acct.ID,
			"trial_end", event.TrialEnd)
		return nil
	}

	occurredAt := event.OccurredAt
	acct.SubscriptionSyncedAt = &occurredAt

	if err := s.AccountRepo.Update(ctx, acct); err != nil {
		return err
	}

	s.Logger.Infow("reconciled processor event",
		"event_id", event.ID,
		"event_type", event.Type,
		"account_id", acct.ID,
		"subscription_status", acct.SubscriptionStatus)

	return nil
}

// applySubscriptionState mutates the account in place from a created/updated
// event. Plan resolution failure keeps the current plan rather than nulling it.
func (s *subscriptionReconciliationService) applySubscriptionState(ctx context.Context, acct *account.Account, event *types.ProcessorEvent) {
	acct.SubscriptionStatus = types.MapProcessorStatus(event.Status)

	// An event without a trial end says nothing about the trial; only an
	// explicit value replaces the stored one
	if event.TrialEnd != nil {
		acct.TrialEndsAt = event.TrialEnd
	}

	if event.PriceRef == "" {
		return
	}

	p, err := s.PlanRepo.GetByPriceRef(ctx, event.PriceRef)
	if err != nil {
		s.Logger.Warnw("processor event references unknown price, keeping current plan",
			"event_id", event.ID,
			"account_id", acct.ID,
			"price_ref", event.PriceRef,
			"error", err)
		return
	}
	acct.PlanID = &p.ID
}

// applySubscriptionDeleted cancels the subscription and drops the account to
// the free plan. The account always keeps a plan assignment.
func (s *subscriptionReconciliationService) applySubscriptionDeleted(ctx context.Context, acct *account.Account, event *types.ProcessorEvent) {
	acct.SubscriptionStatus = types.SubscriptionStatusCanceled
	acct.TrialEndsAt = nil

	free, err := s.PlanRepo.GetFree(ctx)
	if err != nil {
		s.Logger.Errorw("no free plan configured, keeping current plan on cancellation",
			"event_id", event.ID,
			"account_id", acct.ID,
			"error", err)
		return
	}
	acct.PlanID = &free.ID
}

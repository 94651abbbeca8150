package service

import (
	"testing"
	"time"

	"github.com/billflow/billflow/internal/domain/account"
	"github.com/billflow/billflow/internal/domain/plan"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/testutil"
	"github.com/billflow/billflow/internal/types"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  SubscriptionReconciliationService
	account  *account.Account
	paidPlan *plan.Plan
	freePlan *plan.Plan
}

func TestSubscriptionReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewSubscriptionReconciliationService(ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		InvoiceRepo:       s.GetStores().InvoiceRepo,
		EstimateRepo:      s.GetStores().EstimateRepo,
		TemplateRepo:      s.GetStores().TemplateRepo,
		AccountRepo:       s.GetStores().AccountRepo,
		PlanRepo:          s.GetStores().PlanRepo,
		DeliveryPublisher: s.GetDeliveryPublisher(),
	})
	s.setupTestData()
}

func (s *ReconciliationServiceSuite) setupTestData() {
	s.freePlan = &plan.Plan{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:      "Free",
		Free:      true,
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.freePlan))

	s.paidPlan = &plan.Plan{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PLAN),
		Name:      "Pro",
		PriceRef:  "price_pro_monthly",
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().PlanRepo.Create(s.GetContext(), s.paidPlan))

	ref := "cus_abc123"
	s.account = &account.Account{
		ID:                  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ACCOUNT),
		Name:                "Acme Corp",
		PlanID:              &s.freePlan.ID,
		SubscriptionStatus:  types.SubscriptionStatusActive,
		ExternalCustomerRef: &ref,
		BaseModel:           types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().AccountRepo.Create(s.GetContext(), s.account))
}

func (s *ReconciliationServiceSuite) getAccount() *account.Account {
	acct, err := s.GetStores().AccountRepo.Get(s.GetContext(), s.account.ID)
	s.Require().NoError(err)
	return acct
}

func (s *ReconciliationServiceSuite) event(eventType types.ProcessorEventType, occurredAt time.Time) *types.ProcessorEvent {
	return &types.ProcessorEvent{
		ID:          types.GenerateUUIDWithPrefix("evt"),
		Type:        eventType,
		CustomerRef: "cus_abc123",
		PriceRef:    "price_pro_monthly",
		Status:      "active",
		OccurredAt:  occurredAt,
	}
}

func (s *ReconciliationServiceSuite) TestProcessSubscriptionCreated() {
	evt := s.event(types.ProcessorEventSubscriptionCreated, time.Now().UTC())

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusActive, acct.SubscriptionStatus)
	s.Require().NotNil(acct.PlanID)
	s.Equal(s.paidPlan.ID, *acct.PlanID)
	s.Require().NotNil(acct.SubscriptionSyncedAt)
	s.Equal(evt.OccurredAt, *acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventIsIdempotent() {
	evt := s.event(types.ProcessorEventSubscriptionCreated, time.Now().UTC())

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))
	first := s.getAccount()

	// Replaying the same event converges on the same state
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))
	second := s.getAccount()

	s.Equal(first.SubscriptionStatus, second.SubscriptionStatus)
	s.Equal(*first.PlanID, *second.PlanID)
	s.Equal(*first.SubscriptionSyncedAt, *second.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventSkipsStale() {
	now := time.Now().UTC()

	newer := s.event(types.ProcessorEventSubscriptionUpdated, now)
	newer.Status = "past_due"
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), newer))

	// An older update arriving late must not revert the newer state
	older := s.event(types.ProcessorEventSubscriptionUpdated, now.Add(-time.Hour))
	older.Status = "active"
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), older))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusPastDue, acct.SubscriptionStatus)
	s.Equal(now, *acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventUnknownCustomerIsNoOp() {
	evt := s.event(types.ProcessorEventSubscriptionCreated, time.Now().UTC())
	evt.CustomerRef = "cus_unknown"

	s.NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Nil(acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventUnrecognizedTypeIsNoOp() {
	evt := s.event("invoice.payment_succeeded", time.Now().UTC())

	s.NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Nil(acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventRejectsMissingFields() {
	err := s.service.ProcessEvent(s.GetContext(), &types.ProcessorEvent{
		Type: types.ProcessorEventSubscriptionCreated,
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	err = s.service.ProcessEvent(s.GetContext(), &types.ProcessorEvent{
		CustomerRef: "cus_abc123",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// A payload without occurred_at would otherwise sync the watermark to the
	// zero time and shadow every later event as stale
	err = s.service.ProcessEvent(s.GetContext(), &types.ProcessorEvent{
		Type:        types.ProcessorEventSubscriptionCreated,
		CustomerRef: "cus_abc123",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	acct := s.getAccount()
	s.Nil(acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventMapsUnpaidToCanceled() {
	evt := s.event(types.ProcessorEventSubscriptionUpdated, time.Now().UTC())
	evt.Status = "unpaid"

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusCanceled, acct.SubscriptionStatus)
}

func (s *ReconciliationServiceSuite) TestProcessEventUnmappedStatusDefaultsToActive() {
	evt := s.event(types.ProcessorEventSubscriptionUpdated, time.Now().UTC())
	evt.Status = "some_future_status"

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusActive, acct.SubscriptionStatus)
}

func (s *ReconciliationServiceSuite) TestProcessEventUnknownPriceKeepsCurrentPlan() {
	evt := s.event(types.ProcessorEventSubscriptionUpdated, time.Now().UTC())
	evt.PriceRef = "price_unknown"
	evt.Status = "past_due"

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusPastDue, acct.SubscriptionStatus)
	s.Require().NotNil(acct.PlanID)
	s.Equal(s.freePlan.ID, *acct.PlanID)
}

func (s *ReconciliationServiceSuite) TestProcessSubscriptionDeleted() {
	// Upgrade first so the deletion downgrade is observable
	created := s.event(types.ProcessorEventSubscriptionCreated, time.Now().UTC().Add(-time.Minute))
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), created))

	deleted := s.event(types.ProcessorEventSubscriptionDeleted, time.Now().UTC())
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), deleted))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusCanceled, acct.SubscriptionStatus)
	s.Nil(acct.TrialEndsAt)
	s.Require().NotNil(acct.PlanID)
	s.Equal(s.freePlan.ID, *acct.PlanID)
}

func (s *ReconciliationServiceSuite) TestProcessTrialWillEndIsInformational() {
	trialEnd := time.Now().UTC().AddDate(0, 0, 3)
	evt := s.event(types.ProcessorEventTrialWillEnd, time.Now().UTC())
	evt.TrialEnd = &trialEnd

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	// No local state change, not even the sync watermark
	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusActive, acct.SubscriptionStatus)
	s.Nil(acct.SubscriptionSyncedAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventOmittedTrialEndKeepsStored() {
	trialEnd := time.Now().UTC().AddDate(0, 0, 10)
	s.account.TrialEndsAt = &trialEnd
	s.account.SubscriptionStatus = types.SubscriptionStatusTrialing
	s.Require().NoError(s.GetStores().AccountRepo.Update(s.GetContext(), s.account))

	// An update without trial_end says nothing about the trial
	evt := s.event(types.ProcessorEventSubscriptionUpdated, time.Now().UTC())
	evt.Status = "trialing"
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Require().NotNil(acct.TrialEndsAt)
	s.Equal(trialEnd, *acct.TrialEndsAt)

	// An explicit trial_end still replaces the stored one
	extended := time.Now().UTC().AddDate(0, 0, 24)
	evt = s.event(types.ProcessorEventSubscriptionUpdated, time.Now().UTC())
	evt.Status = "trialing"
	evt.TrialEnd = &extended
	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct = s.getAccount()
	s.Require().NotNil(acct.TrialEndsAt)
	s.Equal(extended, *acct.TrialEndsAt)
}

func (s *ReconciliationServiceSuite) TestProcessEventTrialing() {
	trialEnd := time.Now().UTC().AddDate(0, 0, 14)
	evt := s.event(types.ProcessorEventSubscriptionCreated, time.Now().UTC())
	evt.Status = "trialing"
	evt.TrialEnd = &trialEnd

	s.Require().NoError(s.service.ProcessEvent(s.GetContext(), evt))

	acct := s.getAccount()
	s.Equal(types.SubscriptionStatusTrialing, acct.SubscriptionStatus)
	s.Require().NotNil(acct.TrialEndsAt)
	s.Equal(trialEnd, *acct.TrialEndsAt)
}

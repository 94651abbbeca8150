package service

import (
	"testing"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/testutil"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type EstimateServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EstimateService
}

func TestEstimateService(t *testing.T) {
	suite.Run(t, new(EstimateServiceSuite))
}

func (s *EstimateServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewEstimateService(ServiceParams{
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
}

func (s *EstimateServiceSuite) createDraft() *dto.EstimateResponse {
	resp, err := s.service.CreateEstimate(s.GetContext(), dto.CreateEstimateRequest{
		CustomerID: "cust-1",
		TaxRate:    decimal.NewFromInt(10),
		Notes:      "Phase one",
		LineItems: []dto.CreateLineItemRequest{
			{Description: "Development", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(150)},
			{Description: "Design", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *EstimateServiceSuite) accept(id string) {
	_, err := s.service.MarkSent(s.GetContext(), id)
	s.Require().NoError(err)
	_, err = s.service.Accept(s.GetContext(), id)
	s.Require().NoError(err)
}

func (s *EstimateServiceSuite) TestCreateEstimate() {
	resp := s.createDraft()

	s.Equal(types.EstimateStatusDraft, resp.EstimateStatus)
	s.Require().NotNil(resp.Number)
	s.Equal("EST-00001", *resp.Number)
	s.True(resp.Subtotal.Equal(decimal.NewFromInt(2000)))
	s.True(resp.TaxAmount.Equal(decimal.NewFromInt(200)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.False(resp.ValidUntil.IsZero())
}

func (s *EstimateServiceSuite) TestMarkSentEnqueuesDelivery() {
	draft := s.createDraft()

	resp, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusSent, resp.EstimateStatus)
	s.NotNil(resp.SentAt)

	jobs := s.GetDeliveryPublisher().JobsOfKind(delivery.JobKindEstimateSend)
	s.Require().Len(jobs, 1)
	s.Equal(draft.ID, jobs[0].DocumentID)
}

func (s *EstimateServiceSuite) TestAcceptFromSent() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	resp, err := s.service.Accept(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusAccepted, resp.EstimateStatus)
	s.NotNil(resp.AcceptedAt)
}

func (s *EstimateServiceSuite) TestDeclineFromViewed() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	_, err = s.service.MarkViewed(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	resp, err := s.service.Decline(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusDeclined, resp.EstimateStatus)
	s.NotNil(resp.DeclinedAt)
}

func (s *EstimateServiceSuite) TestAcceptRejectsDraft() {
	draft := s.createDraft()

	_, err := s.service.Accept(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EstimateServiceSuite) TestDeclineRejectsDeclined() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	_, err = s.service.Decline(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	_, err = s.service.Decline(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EstimateServiceSuite) TestConvertToInvoice() {
	draft := s.createDraft()
	s.accept(draft.ID)

	resp, err := s.service.ConvertToInvoice(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	// The invoice copies commercial terms and line items, not the lifecycle
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Equal(draft.CustomerID, resp.CustomerID)
	s.True(resp.TaxRate.Equal(draft.TaxRate))
	s.Equal(draft.Notes, resp.Notes)
	s.Require().NotNil(resp.EstimateID)
	s.Equal(draft.ID, *resp.EstimateID)
	s.Require().Len(resp.LineItems, 2)
	s.Equal("Development", resp.LineItems[0].Description)
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.Require().NotNil(resp.Number)
	s.Equal("INV-00001", *resp.Number)

	// The estimate is stamped converted with a back reference
	est, err := s.service.GetEstimate(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusConverted, est.EstimateStatus)
	s.NotNil(est.ConvertedAt)
	s.Require().NotNil(est.ConvertedInvoiceID)
	s.Equal(resp.ID, *est.ConvertedInvoiceID)
}

func (s *EstimateServiceSuite) TestConvertToInvoiceRejectsSecondConversion() {
	draft := s.createDraft()
	s.accept(draft.ID)

	_, err := s.service.ConvertToInvoice(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	_, err = s.service.ConvertToInvoice(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// Exactly one invoice exists
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{})
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *EstimateServiceSuite) TestConvertToInvoiceRejectsUnaccepted() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	_, err = s.service.ConvertToInvoice(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EstimateServiceSuite) TestExpireStale() {
	past := types.Today().AddDate(0, 0, -1)
	future := types.Today().AddDate(0, 0, 30)

	stale := s.createDraft()
	fresh := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), stale.ID)
	s.Require().NoError(err)
	_, err = s.service.MarkSent(s.GetContext(), fresh.ID)
	s.Require().NoError(err)

	s.setValidUntil(stale.ID, past)
	s.setValidUntil(fresh.ID, future)

	expired, err := s.service.ExpireStale(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, expired)

	est, err := s.service.GetEstimate(s.GetContext(), stale.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusExpired, est.EstimateStatus)
	s.NotNil(est.ExpiredAt)

	kept, err := s.service.GetEstimate(s.GetContext(), fresh.ID)
	s.Require().NoError(err)
	s.Equal(types.EstimateStatusSent, kept.EstimateStatus)
}

func (s *EstimateServiceSuite) setValidUntil(id string, validUntil time.Time) {
	est, err := s.GetStores().EstimateRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	est.ValidUntil = validUntil
	s.Require().NoError(s.GetStores().EstimateRepo.Update(s.GetContext(), est))
}

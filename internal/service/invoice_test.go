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

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoiceService(s.params())
}

func (s *InvoiceServiceSuite) params() ServiceParams {
	return ServiceParams{
		Logger:            s.GetLogger(),
		Config:            s.GetConfig(),
		DB:                s.GetDB(),
		InvoiceRepo:       s.GetStores().InvoiceRepo,
		EstimateRepo:      s.GetStores().EstimateRepo,
		TemplateRepo:      s.GetStores().TemplateRepo,
		AccountRepo:       s.GetStores().AccountRepo,
		PlanRepo:          s.GetStores().PlanRepo,
		DeliveryPublisher: s.GetDeliveryPublisher(),
	}
}

func (s *InvoiceServiceSuite) createDraft() *dto.InvoiceResponse {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust-1",
		TaxRate:    decimal.NewFromInt(10),
		LineItems: []dto.CreateLineItemRequest{
			{Description: "Development", Quantity: decimal.NewFromInt(10), UnitPrice: decimal.NewFromInt(150)},
			{Description: "Design", Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(100)},
		},
	})
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *InvoiceServiceSuite) TestCreateInvoice() {
	resp := s.createDraft()

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Require().NotNil(resp.Number)
	s.Equal("INV-00001", *resp.Number)
	s.True(resp.Subtotal.Equal(decimal.NewFromInt(2000)))
	s.True(resp.TaxAmount.Equal(decimal.NewFromInt(200)))
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.Len(resp.LineItems, 2)

	// Default due date is issue date plus the configured payment terms
	expectedDue := resp.IssueDate.AddDate(0, 0, s.GetConfig().Billing.DefaultPaymentTerms)
	s.Equal(expectedDue, resp.DueDate)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceNumbersAreSequential() {
	first := s.createDraft()
	second := s.createDraft()

	s.Equal("INV-00001", *first.Number)
	s.Equal("INV-00002", *second.Number)
}

func (s *InvoiceServiceSuite) TestCreateInvoiceRejectsMissingCustomer() {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{})
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceRejectsInvalidLineItem() {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust-1",
		LineItems: []dto.CreateLineItemRequest{
			{Description: "Bad", Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(10)},
		},
	})
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestCreateInvoiceWithManualTotals() {
	resp, err := s.service.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust-1",
		ManualTotals: &types.BillingTotals{
			Subtotal:    decimal.NewFromInt(750),
			TaxAmount:   decimal.NewFromInt(75),
			TotalAmount: decimal.NewFromInt(825),
		},
	})
	s.Require().NoError(err)
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(825)))
	s.Empty(resp.LineItems)
}

func (s *InvoiceServiceSuite) TestMarkSent() {
	draft := s.createDraft()

	resp, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, resp.InvoiceStatus)
	s.NotNil(resp.SentAt)

	jobs := s.GetDeliveryPublisher().JobsOfKind(delivery.JobKindInvoiceSend)
	s.Require().Len(jobs, 1)
	s.Equal(draft.ID, jobs[0].DocumentID)
}

func (s *InvoiceServiceSuite) TestMarkSentRejectsNonDraft() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	_, err = s.service.MarkSent(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkViewed() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	resp, err := s.service.MarkViewed(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusViewed, resp.InvoiceStatus)
	s.NotNil(resp.ViewedAt)

	// Repeat views are a no-op, the first viewed timestamp is preserved
	firstViewedAt := *resp.ViewedAt
	again, err := s.service.MarkViewed(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusViewed, again.InvoiceStatus)
	s.Equal(firstViewedAt, *again.ViewedAt)
}

func (s *InvoiceServiceSuite) TestMarkViewedRejectsDraft() {
	draft := s.createDraft()

	_, err := s.service.MarkViewed(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkPaid() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)

	resp, err := s.service.MarkPaid(s.GetContext(), draft.ID, dto.MarkPaidRequest{
		PaymentMethod:    types.PaymentMethodBankTransfer,
		PaymentReference: "wire-123",
	})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
	s.NotNil(resp.PaidAt)
	s.Equal(types.PaymentMethodBankTransfer, *resp.PaymentMethod)
	s.Equal("wire-123", *resp.PaymentReference)
}

func (s *InvoiceServiceSuite) TestMarkPaidFromOverdue() {
	inv := s.seedInvoice(types.InvoiceStatusOverdue, types.Today().AddDate(0, 0, -10))

	resp, err := s.service.MarkPaid(s.GetContext(), inv, dto.MarkPaidRequest{
		PaymentMethod: types.PaymentMethodCard,
	})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, resp.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestMarkPaidRejectsDraft() {
	draft := s.createDraft()

	_, err := s.service.MarkPaid(s.GetContext(), draft.ID, dto.MarkPaidRequest{
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkPaidRejectsAlreadyPaid() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	_, err = s.service.MarkPaid(s.GetContext(), draft.ID, dto.MarkPaidRequest{
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Require().NoError(err)

	_, err = s.service.MarkPaid(s.GetContext(), draft.ID, dto.MarkPaidRequest{
		PaymentMethod: types.PaymentMethodCash,
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkOverdue() {
	inv := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, -1))

	resp, err := s.service.MarkOverdue(s.GetContext(), inv)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, resp.InvoiceStatus)

	// Idempotent once overdue
	again, err := s.service.MarkOverdue(s.GetContext(), inv)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, again.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestMarkOverdueRejectsNotPastDue() {
	inv := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 5))

	_, err := s.service.MarkOverdue(s.GetContext(), inv)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestMarkOverdueRejectsDraft() {
	inv := s.seedInvoice(types.InvoiceStatusDraft, types.Today().AddDate(0, 0, -1))

	_, err := s.service.MarkOverdue(s.GetContext(), inv)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestCancel() {
	draft := s.createDraft()

	resp, err := s.service.Cancel(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)
	s.NotNil(resp.CancelledAt)
}

func (s *InvoiceServiceSuite) TestCancelRejectsPaid() {
	draft := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	_, err = s.service.MarkPaid(s.GetContext(), draft.ID, dto.MarkPaidRequest{
		PaymentMethod: types.PaymentMethodCheck,
	})
	s.Require().NoError(err)

	_, err = s.service.Cancel(s.GetContext(), draft.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestGetInvoiceNotFound() {
	_, err := s.service.GetInvoice(s.GetContext(), "inv_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListInvoicesFiltersByStatus() {
	s.createDraft()
	sent := s.createDraft()
	_, err := s.service.MarkSent(s.GetContext(), sent.ID)
	s.Require().NoError(err)

	results, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusSent},
	})
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(sent.ID, results[0].ID)
}

// seedInvoice plants an invoice directly in the store with the given status and
// due date, bypassing the lifecycle
func (s *InvoiceServiceSuite) seedInvoice(status types.InvoiceStatus, dueDate time.Time) string {
	draft := s.createDraft()

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), draft.ID)
	s.Require().NoError(err)
	inv.InvoiceStatus = status
	inv.DueDate = dueDate
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	return inv.ID
}

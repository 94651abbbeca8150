package service

import (
	"testing"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/template"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/testutil"
	"github.com/billflow/billflow/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RecurringInvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service RecurringInvoiceService
}

func TestRecurringInvoiceService(t *testing.T) {
	suite.Run(t, new(RecurringInvoiceServiceSuite))
}

func (s *RecurringInvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewRecurringInvoiceService(ServiceParams{
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

func (s *RecurringInvoiceServiceSuite) createTemplate(mutate func(*dto.CreateTemplateRequest)) *dto.TemplateResponse {
	req := dto.CreateTemplateRequest{
		CustomerID: "cust-1",
		Name:       "Monthly retainer",
		Frequency:  types.RecurringFrequencyMonthly,
		StartDate:  types.Today(),
		TaxRate:    decimal.NewFromInt(10),
		LineItems: []dto.CreateLineItemRequest{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(2000)},
		},
	}
	if mutate != nil {
		mutate(&req)
	}

	resp, err := s.service.CreateTemplate(s.GetContext(), req)
	s.Require().NoError(err)
	s.Require().NotNil(resp)
	return resp
}

func (s *RecurringInvoiceServiceSuite) getTemplate(id string) *template.Template {
	tpl, err := s.GetStores().TemplateRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	return tpl
}

func (s *RecurringInvoiceServiceSuite) TestCreateTemplate() {
	resp := s.createTemplate(nil)

	s.Equal(types.TemplateStatusActive, resp.TemplateStatus)
	s.Require().NotNil(resp.NextOccurrenceDate)
	s.Equal(types.Today(), *resp.NextOccurrenceDate)
	s.Equal(0, resp.OccurrencesCount)
	s.Equal(s.GetConfig().Billing.DefaultPaymentTerms, resp.PaymentTerms)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoice() {
	tpl := s.createTemplate(nil)

	resp, err := s.service.GenerateInvoice(s.GetContext(), tpl.ID)
	s.Require().NoError(err)

	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Equal(tpl.CustomerID, resp.CustomerID)
	s.Equal(types.Today(), resp.IssueDate)
	s.Equal(types.Today().AddDate(0, 0, tpl.PaymentTerms), resp.DueDate)
	s.Require().NotNil(resp.TemplateID)
	s.Equal(tpl.ID, *resp.TemplateID)
	s.True(resp.TotalAmount.Equal(decimal.NewFromInt(2200)))
	s.Require().Len(resp.LineItems, 1)
	s.Equal("Retainer", resp.LineItems[0].Description)

	// The cursor advanced one month and the count incremented
	stored := s.getTemplate(tpl.ID)
	s.Equal(1, stored.OccurrencesCount)
	s.Require().NotNil(stored.NextOccurrenceDate)
	s.Equal(types.RecurringFrequencyMonthly.Next(types.Today()), *stored.NextOccurrenceDate)
	s.NotNil(stored.LastGeneratedAt)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceAutoSend() {
	tpl := s.createTemplate(func(req *dto.CreateTemplateRequest) {
		req.AutoSend = true
	})

	resp, err := s.service.GenerateInvoice(s.GetContext(), tpl.ID)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusSent, resp.InvoiceStatus)
	s.NotNil(resp.SentAt)

	jobs := s.GetDeliveryPublisher().JobsOfKind(delivery.JobKindInvoiceSend)
	s.Require().Len(jobs, 1)
	s.Equal(resp.ID, jobs[0].DocumentID)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceRejectsPausedWithoutSideEffects() {
	tpl := s.createTemplate(nil)

	stored := s.getTemplate(tpl.ID)
	stored.TemplateStatus = types.TemplateStatusPaused
	s.Require().NoError(s.GetStores().TemplateRepo.Update(s.GetContext(), stored))

	_, err := s.service.GenerateInvoice(s.GetContext(), tpl.ID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// No invoice was persisted and the cursor did not move
	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{})
	s.Require().NoError(err)
	s.Equal(0, count)
	after := s.getTemplate(tpl.ID)
	s.Equal(0, after.OccurrencesCount)
	s.Equal(*stored.NextOccurrenceDate, *after.NextOccurrenceDate)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceRejectsNotDue() {
	tpl := s.createTemplate(func(req *dto.CreateTemplateRequest) {
		req.StartDate = types.Today().AddDate(0, 0, 10)
	})

	err := s.service.CanGenerate(s.getTemplate(tpl.ID), types.Today())
	s.ErrorIs(err, template.ErrTemplateNotDue)

	_, genErr := s.service.GenerateInvoice(s.GetContext(), tpl.ID)
	s.Error(genErr)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateInvoiceCompletesAtLimit() {
	tpl := s.createTemplate(func(req *dto.CreateTemplateRequest) {
		limit := 1
		req.OccurrencesLimit = &limit
	})

	_, err := s.service.GenerateInvoice(s.GetContext(), tpl.ID)
	s.Require().NoError(err)

	stored := s.getTemplate(tpl.ID)
	s.Equal(types.TemplateStatusCompleted, stored.TemplateStatus)
	s.Nil(stored.NextOccurrenceDate)

	s.ErrorIs(s.service.CanGenerate(stored, types.Today()), template.ErrTemplateCompleted)
}

func (s *RecurringInvoiceServiceSuite) TestCanGeneratePreconditionOrder() {
	limit := 1
	end := types.Today().AddDate(0, 0, -1)
	due := types.Today()

	testCases := []struct {
		name     string
		tpl      *template.Template
		expected error
	}{
		{
			name: "paused_before_limit",
			tpl: &template.Template{
				TemplateStatus:     types.TemplateStatusPaused,
				OccurrencesCount:   1,
				OccurrencesLimit:   &limit,
				NextOccurrenceDate: &due,
			},
			expected: template.ErrTemplatePaused,
		},
		{
			name: "cancelled",
			tpl: &template.Template{
				TemplateStatus:     types.TemplateStatusCancelled,
				NextOccurrenceDate: &due,
			},
			expected: template.ErrTemplateCancelled,
		},
		{
			name: "limit_before_end_date",
			tpl: &template.Template{
				TemplateStatus:     types.TemplateStatusActive,
				OccurrencesCount:   1,
				OccurrencesLimit:   &limit,
				EndDate:            &end,
				NextOccurrenceDate: &due,
			},
			expected: template.ErrTemplateLimitReached,
		},
		{
			name: "end_date_before_not_due",
			tpl: &template.Template{
				TemplateStatus: types.TemplateStatusActive,
				EndDate:        &end,
			},
			expected: template.ErrTemplateEndDatePassed,
		},
		{
			name: "nil_cursor_is_not_due",
			tpl: &template.Template{
				TemplateStatus: types.TemplateStatusActive,
			},
			expected: template.ErrTemplateNotDue,
		},
		{
			name: "due_today_passes",
			tpl: &template.Template{
				TemplateStatus:     types.TemplateStatusActive,
				NextOccurrenceDate: &due,
			},
			expected: nil,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := s.service.CanGenerate(tc.tpl, types.Today())
			if tc.expected == nil {
				s.NoError(err)
			} else {
				s.ErrorIs(err, tc.expected)
			}
		})
	}
}

func (s *RecurringInvoiceServiceSuite) TestMonthlyCadenceClampsMonthEnd() {
	// Jan 31 + one month lands on the last day of February, never March
	jan31 := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	s.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		types.RecurringFrequencyMonthly.Next(jan31))

	jan31 = time.Date(2023, time.January, 31, 0, 0, 0, 0, time.UTC)
	s.Equal(time.Date(2023, time.February, 28, 0, 0, 0, 0, time.UTC),
		types.RecurringFrequencyMonthly.Next(jan31))

	// Quarterly from Nov 30 crosses the year boundary
	nov30 := time.Date(2023, time.November, 30, 0, 0, 0, 0, time.UTC)
	s.Equal(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		types.RecurringFrequencyQuarterly.Next(nov30))

	// Weekly is a plain seven day hop
	s.Equal(time.Date(2024, time.February, 7, 0, 0, 0, 0, time.UTC),
		types.RecurringFrequencyWeekly.Next(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)))
}

func (s *RecurringInvoiceServiceSuite) TestGenerateAllDueIsolatesFailures() {
	due := s.createTemplate(nil)

	// Seed a due template whose generation fails on line item validation
	today := types.Today()
	broken := &template.Template{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEMPLATE),
		CustomerID:         "cust-2",
		Name:               "Broken retainer",
		Frequency:          types.RecurringFrequencyMonthly,
		TemplateStatus:     types.TemplateStatusActive,
		StartDate:          today,
		NextOccurrenceDate: &today,
		PaymentTerms:       30,
		LineItems: []*template.LineItem{
			{
				ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_TEMPLATE_LINE_ITEM),
				Description: "Zero quantity",
				Quantity:    decimal.Zero,
				UnitPrice:   decimal.NewFromInt(100),
				BaseModel:   types.GetDefaultBaseModel(s.GetContext()),
			},
		},
		BaseModel: types.GetDefaultBaseModel(s.GetContext()),
	}
	s.Require().NoError(s.GetStores().TemplateRepo.CreateWithLineItems(s.GetContext(), broken))

	resp, err := s.service.GenerateAllDue(s.GetContext())
	s.Require().NoError(err)
	s.Equal(2, resp.Total)
	s.Equal(1, resp.Success)
	s.Equal(1, resp.Failed)

	invoices, err := s.GetStores().InvoiceRepo.List(s.GetContext(), &types.InvoiceFilter{TemplateID: due.ID})
	s.Require().NoError(err)
	s.Len(invoices, 1)

	// The failed template's cursor did not move
	after := s.getTemplate(broken.ID)
	s.Equal(0, after.OccurrencesCount)
}

func (s *RecurringInvoiceServiceSuite) TestGenerateAllDueGeneratesOnlyDueTemplates() {
	s.createTemplate(nil)
	s.createTemplate(nil)
	s.createTemplate(func(req *dto.CreateTemplateRequest) {
		req.StartDate = types.Today().AddDate(0, 0, 10)
	})

	resp, err := s.service.GenerateAllDue(s.GetContext())
	s.Require().NoError(err)
	s.Equal(2, resp.Total)
	s.Equal(2, resp.Success)
	s.Equal(0, resp.Failed)

	count, err := s.GetStores().InvoiceRepo.Count(s.GetContext(), &types.InvoiceFilter{})
	s.Require().NoError(err)
	s.Equal(2, count)
}

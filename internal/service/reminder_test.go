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

type ReminderServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ReminderService
	invoices InvoiceService
}

func TestReminderService(t *testing.T) {
	suite.Run(t, new(ReminderServiceSuite))
}

func (s *ReminderServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := ServiceParams{
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
	s.service = NewReminderService(params)
	s.invoices = NewInvoiceService(params)
}

// seedInvoice creates an invoice and forces it into the given status and due date
func (s *ReminderServiceSuite) seedInvoice(status types.InvoiceStatus, dueDate time.Time) string {
	resp, err := s.invoices.CreateInvoice(s.GetContext(), dto.CreateInvoiceRequest{
		CustomerID: "cust-1",
		LineItems: []dto.CreateLineItemRequest{
			{Description: "Work", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(500)},
		},
	})
	s.Require().NoError(err)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), resp.ID)
	s.Require().NoError(err)
	inv.InvoiceStatus = status
	inv.DueDate = dueDate
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))
	return inv.ID
}

func (s *ReminderServiceSuite) reminderJobs() []*delivery.Job {
	return s.GetDeliveryPublisher().JobsOfKind(delivery.JobKindInvoiceReminder)
}

func (s *ReminderServiceSuite) TestSendReminder() {
	id := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 5))

	dispatched, err := s.service.SendReminder(s.GetContext(), id, false)
	s.Require().NoError(err)
	s.True(dispatched)

	jobs := s.reminderJobs()
	s.Require().Len(jobs, 1)
	s.Equal(id, jobs[0].DocumentID)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	s.Equal(1, inv.ReminderCount)
	s.NotNil(inv.ReminderSentAt)
}

func (s *ReminderServiceSuite) TestSendReminderMissingInvoiceIsNoOp() {
	dispatched, err := s.service.SendReminder(s.GetContext(), "inv_missing", false)
	s.NoError(err)
	s.False(dispatched)
	s.Empty(s.reminderJobs())
}

func (s *ReminderServiceSuite) TestSendReminderCooldown() {
	id := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 5))

	dispatched, err := s.service.SendReminder(s.GetContext(), id, false)
	s.Require().NoError(err)
	s.True(dispatched)

	// Second attempt on the same day hits the cooldown
	dispatched, err = s.service.SendReminder(s.GetContext(), id, false)
	s.Error(err)
	s.False(dispatched)
	s.True(ierr.IsInvalidOperation(err))

	s.Len(s.reminderJobs(), 1)
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	s.Equal(1, inv.ReminderCount)
}

func (s *ReminderServiceSuite) TestSendReminderForceBypassesCooldown() {
	id := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 5))

	dispatched, err := s.service.SendReminder(s.GetContext(), id, false)
	s.Require().NoError(err)
	s.True(dispatched)

	dispatched, err = s.service.SendReminder(s.GetContext(), id, true)
	s.Require().NoError(err)
	s.True(dispatched)

	s.Len(s.reminderJobs(), 2)
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	s.Equal(2, inv.ReminderCount)
}

func (s *ReminderServiceSuite) TestSendReminderMaxReached() {
	id := s.seedInvoice(types.InvoiceStatusOverdue, types.Today().AddDate(0, 0, -5))

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	past := time.Now().UTC().AddDate(0, 0, -s.GetConfig().Reminder.CooldownDays-1)
	inv.ReminderSentAt = &past
	inv.ReminderCount = s.GetConfig().Reminder.MaxReminders
	s.Require().NoError(s.GetStores().InvoiceRepo.Update(s.GetContext(), inv))

	dispatched, err := s.service.SendReminder(s.GetContext(), id, false)
	s.Error(err)
	s.False(dispatched)
	s.True(ierr.IsInvalidOperation(err))
	s.Equal("Maximum number of reminders reached", ierr.Hint(err))

	// force bypasses the cap
	dispatched, err = s.service.SendReminder(s.GetContext(), id, true)
	s.Require().NoError(err)
	s.True(dispatched)
}

func (s *ReminderServiceSuite) TestSendReminderRefusesTerminalStatuses() {
	testCases := []struct {
		name   string
		status types.InvoiceStatus
	}{
		{name: "draft", status: types.InvoiceStatusDraft},
		{name: "paid", status: types.InvoiceStatusPaid},
		{name: "cancelled", status: types.InvoiceStatusCancelled},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			id := s.seedInvoice(tc.status, types.Today().AddDate(0, 0, -5))

			// Refused even when forced
			dispatched, err := s.service.SendReminder(s.GetContext(), id, true)
			s.Error(err)
			s.False(dispatched)
			s.True(ierr.IsInvalidOperation(err))
		})
	}
}

func (s *ReminderServiceSuite) TestDueSoonSweep() {
	window := s.GetConfig().Reminder.DueSoonWindowDays

	inWindow := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 2))
	s.seedInvoice(types.InvoiceStatusViewed, types.Today().AddDate(0, 0, window))
	s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, window+1)) // outside window
	s.seedInvoice(types.InvoiceStatusDraft, types.Today().AddDate(0, 0, 2))       // not sent

	resp, err := s.service.DueSoonSweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(2, resp.Considered)
	s.Equal(2, resp.Dispatched)
	s.Equal(0, resp.Failed)

	jobs := s.reminderJobs()
	s.Len(jobs, 2)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), inWindow)
	s.Require().NoError(err)
	s.Equal(1, inv.ReminderCount)
}

func (s *ReminderServiceSuite) TestDueSoonSweepHonorsCooldown() {
	id := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 2))

	first, err := s.service.DueSoonSweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, first.Dispatched)

	// Same-day rerun considers the invoice but dispatches nothing
	second, err := s.service.DueSoonSweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(1, second.Considered)
	s.Equal(0, second.Dispatched)
	s.Equal(0, second.Failed)

	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), id)
	s.Require().NoError(err)
	s.Equal(1, inv.ReminderCount)
}

func (s *ReminderServiceSuite) TestOverdueSweep() {
	lapsed := s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, -3))
	alreadyOverdue := s.seedInvoice(types.InvoiceStatusOverdue, types.Today().AddDate(0, 0, -10))
	s.seedInvoice(types.InvoiceStatusSent, types.Today().AddDate(0, 0, 5)) // not due yet

	resp, err := s.service.OverdueSweep(s.GetContext())
	s.Require().NoError(err)
	s.Equal(2, resp.Considered)
	s.Equal(2, resp.Dispatched)

	// The lapsed invoice was flipped to overdue before the reminder
	inv, err := s.GetStores().InvoiceRepo.Get(s.GetContext(), lapsed)
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusOverdue, inv.InvoiceStatus)
	s.Equal(1, inv.ReminderCount)

	inv, err = s.GetStores().InvoiceRepo.Get(s.GetContext(), alreadyOverdue)
	s.Require().NoError(err)
	s.Equal(1, inv.ReminderCount)
}

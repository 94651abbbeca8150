package service

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// ReminderService dispatches payment reminders for unpaid invoices, rate
// limited by a per-invoice cooldown and a lifetime cap. Cadence state lives on
// the invoice itself.
type ReminderService interface {
	// SendReminder dispatches one reminder for the invoice. A missing invoice
	// is a logged no-op so sweeps keep moving. force bypasses the cooldown and
	// the lifetime cap but never the status rules.
	SendReminder(ctx context.Context, invoiceID string, force bool) (bool, error)
	// DueSoonSweep reminds sent/viewed invoices whose due date falls within
	// the configured upcoming window.
	DueSoonSweep(ctx context.Context) (*dto.ReminderSweepResponse, error)
	// OverdueSweep flips past-due unpaid invoices to overdue, then reminds them
	OverdueSweep(ctx context.Context) (*dto.ReminderSweepResponse, error)
}

type reminderService struct {
	ServiceParams
	invoices InvoiceService
}

// NewReminderService creates a new reminder service
func NewReminderService(params ServiceParams) ReminderService {
	return &reminderService{
		ServiceParams: params,
		invoices:      NewInvoiceService(params),
	}
}

func (s *reminderService) SendReminder(ctx context.Context, invoiceID string, force bool) (bool, error) {
	inv, err := s.InvoiceRepo.Get(ctx, invoiceID)
	if err != nil {
		if ierr.IsNotFound(err) {
			s.Logger.Warnw("reminder requested for missing invoice", "invoice_id", invoiceID)
			return false, nil
		}
		return false, err
	}

	if err := s.eligible(inv, force); err != nil {
		return false, err
	}

	job := delivery.NewJob(types.GetTenantID(ctx), delivery.JobKindInvoiceReminder, inv.ID, inv.CustomerID)
	if err := s.DeliveryPublisher.Enqueue(ctx, job); err != nil {
		return false, ierr.WithError(err).
			WithHint("Failed to enqueue reminder delivery").
			Mark(ierr.ErrSystem)
	}

	// Cadence state advances only after the job is enqueued. A crash between
	// the two produces an extra reminder, never a silently skipped one.
	now := time.Now().UTC()
	inv.ReminderSentAt = &now
	inv.ReminderCount++

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return false, err
	}

	s.Logger.Infow("dispatched payment reminder",
		"invoice_id", inv.ID,
		"customer_id", inv.CustomerID,
		"reminder_count", inv.ReminderCount,
		"forced", force)

	return true, nil
}

// eligible enforces the status rules always and the cadence rules unless forced
func (s *reminderService) eligible(inv *invoice.Invoice, force bool) error {
	switch inv.InvoiceStatus {
	case types.InvoiceStatusDraft:
		return ierr.NewError("invoice has not been sent").
			WithHint("Draft invoices cannot be reminded").
			Mark(ierr.ErrInvalidOperation)
	case types.InvoiceStatusPaid:
		return ierr.NewError("invoice is already paid").
			WithHint("Paid invoices cannot be reminded").
			Mark(ierr.ErrInvalidOperation)
	case types.InvoiceStatusCancelled:
		return ierr.NewError("invoice is cancelled").
			WithHint("Cancelled invoices cannot be reminded").
			Mark(ierr.ErrInvalidOperation)
	}

	if force {
		return nil
	}

	if s.Config.Reminder.MaxReminders > 0 && inv.ReminderCount >= s.Config.Reminder.MaxReminders {
		return ierr.NewError("invoice reminder limit reached").
			WithHint("Maximum number of reminders reached").
			Mark(ierr.ErrInvalidOperation)
	}

	if inv.ReminderSentAt != nil {
		cooldownEnds := inv.ReminderSentAt.AddDate(0, 0, s.Config.Reminder.CooldownDays)
		if time.Now().UTC().Before(cooldownEnds) {
			return ierr.NewError("invoice reminder is in cooldown").
				WithHintf("Next reminder allowed after %s", cooldownEnds.Format(time.DateOnly)).
				Mark(ierr.ErrInvalidOperation)
		}
	}

	return nil
}

func (s *reminderService) DueSoonSweep(ctx context.Context) (*dto.ReminderSweepResponse, error) {
	today := types.Today()
	windowEnd := today.AddDate(0, 0, s.Config.Reminder.DueSoonWindowDays)

	candidates, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusSent, types.InvoiceStatusViewed},
		DueDateFrom:   &today,
		DueDateTo:     &windowEnd,
	})
	if err != nil {
		return nil, err
	}

	return s.remindAll(ctx, candidates), nil
}

func (s *reminderService) OverdueSweep(ctx context.Context) (*dto.ReminderSweepResponse, error) {
	yesterday := types.Today().AddDate(0, 0, -1)

	// Status maintenance first: sent/viewed invoices past due become overdue
	lapsed, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusSent, types.InvoiceStatusViewed},
		DueDateTo:     &yesterday,
	})
	if err != nil {
		return nil, err
	}
	for _, inv := range lapsed {
		if _, err := s.invoices.MarkOverdue(ctx, inv.ID); err != nil {
			s.Logger.Errorw("failed to mark invoice overdue",
				"error", err,
				"invoice_id", inv.ID)
		}
	}

	overdue, err := s.InvoiceRepo.List(ctx, &types.InvoiceFilter{
		InvoiceStatus: []types.InvoiceStatus{types.InvoiceStatusOverdue},
	})
	if err != nil {
		return nil, err
	}

	return s.remindAll(ctx, overdue), nil
}

// remindAll attempts a non-forced reminder per invoice, isolating failures.
// Cooldown and cap rejections are expected and count as neither dispatched nor
// failed.
func (s *reminderService) remindAll(ctx context.Context, invoices []*invoice.Invoice) *dto.ReminderSweepResponse {
	resp := &dto.ReminderSweepResponse{Considered: len(invoices)}
	for _, inv := range invoices {
		dispatched, err := s.SendReminder(ctx, inv.ID, false)
		if err != nil {
			if ierr.IsInvalidOperation(err) {
				continue
			}
			s.Logger.Errorw("failed to send reminder",
				"error", err,
				"invoice_id", inv.ID,
				"customer_id", inv.CustomerID)
			resp.Failed++
			continue
		}
		if dispatched {
			resp.Dispatched++
		}
	}
	return resp
}

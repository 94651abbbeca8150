package service

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
	"github.com/samber/lo"
)

// InvoiceService owns the invoice lifecycle state machine
type InvoiceService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) ([]*dto.InvoiceResponse, error)
	// MarkSent transitions draft → sent and enqueues delivery
	MarkSent(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// MarkViewed transitions sent → viewed; a no-op once viewed or later
	MarkViewed(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// MarkPaid records a payment against a payable invoice
	MarkPaid(ctx context.Context, id string, req dto.MarkPaidRequest) (*dto.InvoiceResponse, error)
	// MarkOverdue is system-triggered status maintenance for unpaid invoices
	// whose due date has passed. Never user-initiated.
	MarkOverdue(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// Cancel soft-cancels any non-terminal invoice. Rows are never removed
	// and the document number is never reused.
	Cancel(ctx context.Context, id string) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
	billing BillingService
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		ServiceParams: params,
		billing:       NewBillingService(),
	}
}

func (s *invoiceService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv := req.ToInvoice(ctx)
	if inv.DueDate.IsZero() {
		inv.DueDate = inv.IssueDate.AddDate(0, 0, s.Config.Billing.DefaultPaymentTerms)
	}

	// Explicit values for manually priced documents; zero otherwise
	previous := types.BillingTotals{}
	if req.ManualTotals != nil {
		previous = *req.ManualTotals
	}

	totals, err := s.billing.Calculate(inv.BillingLineItems(), inv.TaxRate, inv.DiscountAmount, previous)
	if err != nil {
		return nil, err
	}
	inv.ApplyTotals(totals)

	if err := inv.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		// The number is generated once, at first persist
		number, err := s.InvoiceRepo.NextInvoiceNumber(ctx, s.Config.Billing.InvoiceNumberPrefix)
		if err != nil {
			return err
		}
		inv.Number = &number

		return s.InvoiceRepo.CreateWithLineItems(ctx, inv)
	})
	if err != nil {
		s.Logger.Errorw("failed to create invoice",
			"error", err,
			"customer_id", req.CustomerID)
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) ([]*dto.InvoiceResponse, error) {
	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	}), nil
}

func (s *invoiceService) MarkSent(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus != types.InvoiceStatusDraft {
		return nil, ierr.NewError("invoice is not in draft status").
			WithHintf("Only draft invoices can be sent, current status is %s", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.InvoiceStatus = types.InvoiceStatusSent
	inv.SentAt = &now

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	s.enqueueSend(ctx, inv)

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) MarkViewed(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch inv.InvoiceStatus {
	case types.InvoiceStatusSent:
		now := time.Now().UTC()
		inv.InvoiceStatus = types.InvoiceStatusViewed
		inv.ViewedAt = &now
		if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
			return nil, err
		}
	case types.InvoiceStatusViewed, types.InvoiceStatusPaid, types.InvoiceStatusOverdue:
		// already viewed or beyond, idempotent no-op
	default:
		return nil, ierr.NewError("invoice cannot be marked viewed").
			WithHintf("Invoice in status %s cannot be viewed", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) MarkPaid(ctx context.Context, id string, req dto.MarkPaidRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusPaid {
		return nil, ierr.WithError(invoice.ErrInvoiceAlreadyPaid).
			WithHint("Invoice is already paid").
			Mark(ierr.ErrInvalidOperation)
	}
	if inv.InvoiceStatus == types.InvoiceStatusCancelled {
		return nil, ierr.WithError(invoice.ErrInvoiceCancelled).
			WithHint("Cancelled invoices cannot be paid").
			Mark(ierr.ErrInvalidOperation)
	}
	if !inv.InvoiceStatus.IsPayable() {
		return nil, ierr.NewError("invoice is not payable").
			WithHintf("Invoice in status %s cannot be paid", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.InvoiceStatus = types.InvoiceStatusPaid
	inv.PaidAt = &now
	inv.PaymentMethod = &req.PaymentMethod
	if req.PaymentReference != "" {
		inv.PaymentReference = &req.PaymentReference
	}

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) MarkOverdue(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus == types.InvoiceStatusOverdue {
		return dto.NewInvoiceResponse(inv), nil
	}

	if !inv.InvoiceStatus.IsUnpaid() {
		return nil, ierr.NewError("invoice cannot be marked overdue").
			WithHintf("Invoice in status %s cannot become overdue", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	if !inv.IsPastDue(types.Today()) {
		return nil, ierr.NewError("invoice due date has not passed").
			WithHint("Invoice is not past due").
			Mark(ierr.ErrInvalidOperation)
	}

	inv.InvoiceStatus = types.InvoiceStatusOverdue

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) Cancel(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if inv.InvoiceStatus.IsTerminal() {
		return nil, ierr.NewError("invoice is in a terminal status").
			WithHintf("Invoice in status %s cannot be cancelled", inv.InvoiceStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	inv.InvoiceStatus = types.InvoiceStatusCancelled
	inv.CancelledAt = &now

	if err := s.InvoiceRepo.Update(ctx, inv); err != nil {
		return nil, err
	}

	return dto.NewInvoiceResponse(inv), nil
}

// enqueueSend is fire-and-forget: a queue failure is logged, never propagated,
// the invoice transition has already committed
func (s *invoiceService) enqueueSend(ctx context.Context, inv *invoice.Invoice) {
	job := delivery.NewJob(types.GetTenantID(ctx), delivery.JobKindInvoiceSend, inv.ID, inv.CustomerID)
	if err := s.DeliveryPublisher.Enqueue(ctx, job); err != nil {
		s.Logger.Errorw("failed to enqueue invoice delivery",
			"error", err,
			"invoice_id", inv.ID)
	}
}

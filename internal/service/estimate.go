package service

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/estimate"
	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// EstimateService owns the estimate lifecycle and its conversion to an invoice
type EstimateService interface {
	CreateEstimate(ctx context.Context, req dto.CreateEstimateRequest) (*dto.EstimateResponse, error)
	GetEstimate(ctx context.Context, id string) (*dto.EstimateResponse, error)
	MarkSent(ctx context.Context, id string) (*dto.EstimateResponse, error)
	MarkViewed(ctx context.Context, id string) (*dto.EstimateResponse, error)
	Accept(ctx context.Context, id string) (*dto.EstimateResponse, error)
	Decline(ctx context.Context, id string) (*dto.EstimateResponse, error)
	// ConvertToInvoice turns an accepted, unconverted estimate into a new
	// draft invoice. Invoice creation and the estimate stamp commit together
	// or not at all.
	ConvertToInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	// ExpireStale flips sent/viewed estimates past their valid-until date to
	// expired. Returns the number of estimates expired.
	ExpireStale(ctx context.Context) (int, error)
}

type estimateService struct {
	ServiceParams
	billing BillingService
}

// NewEstimateService creates a new estimate service
func NewEstimateService(params ServiceParams) EstimateService {
	return &estimateService{
		ServiceParams: params,
		billing:       NewBillingService(),
	}
}

func (s *estimateService) CreateEstimate(ctx context.Context, req dto.CreateEstimateRequest) (*dto.EstimateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	est := req.ToEstimate(ctx)
	if est.ValidUntil.IsZero() {
		est.ValidUntil = est.IssueDate.AddDate(0, 0, s.Config.Billing.DefaultPaymentTerms)
	}

	previous := types.BillingTotals{}
	if req.ManualTotals != nil {
		previous = *req.ManualTotals
	}

	totals, err := s.billing.Calculate(est.BillingLineItems(), est.TaxRate, est.DiscountAmount, previous)
	if err != nil {
		return nil, err
	}
	est.ApplyTotals(totals)

	if err := est.Validate(); err != nil {
		return nil, err
	}

	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		number, err := s.EstimateRepo.NextEstimateNumber(ctx, s.Config.Billing.EstimateNumberPrefix)
		if err != nil {
			return err
		}
		est.Number = &number

		return s.EstimateRepo.CreateWithLineItems(ctx, est)
	})
	if err != nil {
		s.Logger.Errorw("failed to create estimate",
			"error", err,
			"customer_id", req.CustomerID)
		return nil, err
	}

	return dto.NewEstimateResponse(est), nil
}

func (s *estimateService) GetEstimate(ctx context.Context, id string) (*dto.EstimateResponse, error) {
	est, err := s.EstimateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewEstimateResponse(est), nil
}

func (s *estimateService) MarkSent(ctx context.Context, id string) (*dto.EstimateResponse, error) {
	est, err := s.EstimateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if est.EstimateStatus != types.EstimateStatusDraft {
		return nil, ierr.NewError("estimate is not in draft status").
			WithHintf("Only draft estimates can be sent, current status is %s", est.EstimateStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	est.EstimateStatus = types.EstimateStatusSent
	est.SentAt = &now

	if err := s.EstimateRepo.Update(ctx, est); err != nil {
		return nil, err
	}

	job := delivery.NewJob(types.GetTenantID(ctx), delivery.JobKindEstimateSend, est.ID, est.CustomerID)
	if err := s.DeliveryPublisher.Enqueue(ctx, job); err != nil {
		s.Logger.Errorw("failed to enqueue estimate delivery",
			"error", err,
			"estimate_id", est.ID)
	}

	return dto.NewEstimateResponse(est), nil
}

func (s *estimateService) MarkViewed(ctx context.Context, id string) (*dto.EstimateResponse, error) {
	est, err := s.EstimateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch est.EstimateStatus {
	case types.EstimateStatusSent:
		now := time.Now().UTC()
		est.EstimateStatus = types.EstimateStatusViewed
		est.ViewedAt = &now
		if err := s.EstimateRepo.Update(ctx, est); err != nil {
			return nil, err
		}
	case types.EstimateStatusViewed, types.EstimateStatusAccepted, types.EstimateStatusDeclined, types.EstimateStatusConverted:
		// idempotent no-op once viewed or beyond
	default:
		return nil, ierr.NewError("estimate cannot be marked viewed").
			WithHintf("Estimate in status %s cannot be viewed", est.EstimateStatus).
			Mark(ierr.ErrInvalidOperation)
	}

	return dto.NewEstimateResponse(est), nil
}

func (s *estimateService) Accept(ctx context.Context, id string) (*dto.EstimateResponse, error) {
	return s.resolve(ctx, id, types.EstimateStatusAccepted)
}

func (s *estimateService) Decline(ctx context.Context, id string) (*dto.EstimateResponse, error) {
	return s.resolve(ctx, id, types.EstimateStatusDeclined)
}

// resolve records the customer's decision on a sent or viewed estimate
func (s *estimateService) resolve(ctx context.Context, id string, decision types.EstimateStatus) (*dto.EstimateResponse, error) {
	est, err := s.EstimateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if est.EstimateStatus != types.EstimateStatusSent && est.EstimateStatus != types.EstimateStatusViewed {
		return nil, ierr.NewError("estimate cannot be resolved").
			WithHintf("Estimate in status %s cannot be %s", est.EstimateStatus, decision).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	est.EstimateStatus = decision
	switch decision {
	case types.EstimateStatusAccepted:
		est.AcceptedAt = &now
	case types.EstimateStatusDeclined:
		est.DeclinedAt = &now
	}

	if err := s.EstimateRepo.Update(ctx, est); err != nil {
		return nil, err
	}

	return dto.NewEstimateResponse(est), nil
}

func (s *estimateService) ConvertToInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		est, err := s.EstimateRepo.Get(ctx, id)
		if err != nil {
			return err
		}

		if est.ConvertedInvoiceID != nil {
			return ierr.WithError(estimate.ErrEstimateAlreadyConverted).
				WithHint("Estimate has already been converted to an invoice").
				Mark(ierr.ErrInvalidOperation)
		}
		if est.EstimateStatus != types.EstimateStatusAccepted {
			return ierr.NewError("estimate is not accepted").
				WithHintf("Only accepted estimates can be converted, current status is %s", est.EstimateStatus).
				Mark(ierr.ErrInvalidOperation)
		}

		inv = s.buildInvoiceFromEstimate(ctx, est)

		totals, err := s.billing.Calculate(inv.BillingLineItems(), inv.TaxRate, inv.DiscountAmount, types.BillingTotals{
			Subtotal:    est.Subtotal,
			TaxAmount:   est.TaxAmount,
			TotalAmount: est.TotalAmount,
		})
		if err != nil {
			return err
		}
		inv.ApplyTotals(totals)

		number, err := s.InvoiceRepo.NextInvoiceNumber(ctx, s.Config.Billing.InvoiceNumberPrefix)
		if err != nil {
			return err
		}
		inv.Number = &number

		if err := s.InvoiceRepo.CreateWithLineItems(ctx, inv); err != nil {
			return err
		}

		now := time.Now().UTC()
		est.EstimateStatus = types.EstimateStatusConverted
		est.ConvertedAt = &now
		est.ConvertedInvoiceID = &inv.ID

		return s.EstimateRepo.Update(ctx, est)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("converted estimate to invoice",
		"estimate_id", id,
		"invoice_id", inv.ID)

	return dto.NewInvoiceResponse(inv), nil
}

// buildInvoiceFromEstimate seeds a draft invoice from the estimate's client,
// project, tax, discount and notes, with a verbatim line-item copy
func (s *estimateService) buildInvoiceFromEstimate(ctx context.Context, est *estimate.Estimate) *invoice.Invoice {
	today := types.Today()
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:     est.CustomerID,
		ProjectID:      est.ProjectID,
		InvoiceStatus:  types.InvoiceStatusDraft,
		IssueDate:      today,
		DueDate:        today.AddDate(0, 0, s.Config.Billing.DefaultPaymentTerms),
		TaxRate:        est.TaxRate,
		DiscountAmount: est.DiscountAmount,
		Notes:          est.Notes,
		EstimateID:     &est.ID,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	for _, item := range est.LineItems {
		inv.LineItems = append(inv.LineItems, &invoice.LineItem{
			ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM),
			InvoiceID:   inv.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Position:    item.Position,
			BaseModel:   types.GetDefaultBaseModel(ctx),
		})
	}

	return inv
}

func (s *estimateService) ExpireStale(ctx context.Context) (int, error) {
	today := types.Today()
	stale, err := s.EstimateRepo.List(ctx, &types.EstimateFilter{
		EstimateStatus:   []types.EstimateStatus{types.EstimateStatusSent, types.EstimateStatusViewed},
		ValidUntilBefore: &today,
	})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, est := range stale {
		now := time.Now().UTC()
		est.EstimateStatus = types.EstimateStatusExpired
		est.ExpiredAt = &now
		if err := s.EstimateRepo.Update(ctx, est); err != nil {
			s.Logger.Errorw("failed to expire estimate",
				"error", err,
				"estimate_id", est.ID)
			continue
		}
		expired++
	}

	return expired, nil
}

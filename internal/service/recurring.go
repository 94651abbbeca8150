package service

import (
	"context"
	"time"

	"github.com/billflow/billflow/internal/api/dto"
	"github.com/billflow/billflow/internal/delivery"
	"github.com/billflow/billflow/internal/domain/invoice"
	"github.com/billflow/billflow/internal/domain/template"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// RecurringInvoiceService spawns invoices from recurring templates on their
// cadence. Designed for a multi-worker, at-least-once scheduler: generation
// for one template is serialized by a row lock, and each generation is a
// single atomic unit (invoice creation and cursor advance commit together).
type RecurringInvoiceService interface {
	CreateTemplate(ctx context.Context, req dto.CreateTemplateRequest) (*dto.TemplateResponse, error)
	GetTemplate(ctx context.Context, id string) (*dto.TemplateResponse, error)
	// CanGenerate is a pure predicate with no side effects. It returns nil
	// when the template is due, else the specific unmet precondition.
	CanGenerate(tpl *template.Template, today time.Time) error
	// GenerateInvoice spawns one occurrence. Requires CanGenerate.
	GenerateInvoice(ctx context.Context, templateID string) (*dto.InvoiceResponse, error)
	// GenerateAllDue generates for every due template, isolating failures
	GenerateAllDue(ctx context.Context) (*dto.SweepResponse, error)
}

type recurringInvoiceService struct {
	ServiceParams
	billing BillingService
}

// NewRecurringInvoiceService creates a new recurring invoice service
func NewRecurringInvoiceService(params ServiceParams) RecurringInvoiceService {
	return &recurringInvoiceService{
		ServiceParams: params,
		billing:       NewBillingService(),
	}
}

func (s *recurringInvoiceService) CreateTemplate(ctx context.Context, req dto.CreateTemplateRequest) (*dto.TemplateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tpl := req.ToTemplate(ctx)
	if tpl.PaymentTerms == 0 {
		tpl.PaymentTerms = s.Config.Billing.DefaultPaymentTerms
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}

	if err := s.TemplateRepo.CreateWithLineItems(ctx, tpl); err != nil {
		return nil, err
	}

	return dto.NewTemplateResponse(tpl), nil
}

func (s *recurringInvoiceService) GetTemplate(ctx context.Context, id string) (*dto.TemplateResponse, error) {
	tpl, err := s.TemplateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewTemplateResponse(tpl), nil
}

func (s *recurringInvoiceService) CanGenerate(tpl *template.Template, today time.Time) error {
	today = types.DateOnly(today)

	switch tpl.TemplateStatus {
	case types.TemplateStatusPaused:
		return template.ErrTemplatePaused
	case types.TemplateStatusCancelled:
		return template.ErrTemplateCancelled
	case types.TemplateStatusCompleted:
		return template.ErrTemplateCompleted
	}

	if tpl.OccurrencesLimit != nil && tpl.OccurrencesCount >= *tpl.OccurrencesLimit {
		return template.ErrTemplateLimitReached
	}

	if tpl.EndDate != nil && types.DateOnly(*tpl.EndDate).Before(today) {
		return template.ErrTemplateEndDatePassed
	}

	if tpl.NextOccurrenceDate == nil || types.DateOnly(*tpl.NextOccurrenceDate).After(today) {
		return template.ErrTemplateNotDue
	}

	return nil
}

func (s *recurringInvoiceService) GenerateInvoice(ctx context.Context, templateID string) (*dto.InvoiceResponse, error) {
	var inv *invoice.Invoice
	var autoSent bool

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		// Row lock: concurrent workers must not double-spawn an occurrence
		tpl, err := s.TemplateRepo.GetForUpdate(ctx, templateID)
		if err != nil {
			return err
		}

		today := types.Today()
		if err := s.CanGenerate(tpl, today); err != nil {
			return ierr.WithError(err).
				WithHintf("Cannot generate invoice: %s", err.Error()).
				Mark(ierr.ErrInvalidOperation)
		}

		inv = s.buildInvoiceFromTemplate(ctx, tpl, today)

		totals, err := s.billing.Calculate(inv.BillingLineItems(), inv.TaxRate, inv.DiscountAmount, types.BillingTotals{})
		if err != nil {
			return err
		}
		inv.ApplyTotals(totals)

		number, err := s.InvoiceRepo.NextInvoiceNumber(ctx, s.Config.Billing.InvoiceNumberPrefix)
		if err != nil {
			return err
		}
		inv.Number = &number

		if tpl.AutoSend {
			now := time.Now().UTC()
			inv.InvoiceStatus = types.InvoiceStatusSent
			inv.SentAt = &now
			autoSent = true
		}

		if err := s.InvoiceRepo.CreateWithLineItems(ctx, inv); err != nil {
			return err
		}

		// The cursor advance commits with the invoice or not at all
		tpl.Advance(today)
		return s.TemplateRepo.Update(ctx, tpl)
	})
	if err != nil {
		return nil, err
	}

	// Delivery is fire-and-forget and stays outside the atomic unit
	if autoSent {
		job := delivery.NewJob(types.GetTenantID(ctx), delivery.JobKindInvoiceSend, inv.ID, inv.CustomerID)
		if err := s.DeliveryPublisher.Enqueue(ctx, job); err != nil {
			s.Logger.Errorw("failed to enqueue auto-send delivery",
				"error", err,
				"invoice_id", inv.ID,
				"template_id", templateID)
		}
	}

	s.Logger.Infow("generated invoice from recurring template",
		"template_id", templateID,
		"invoice_id", inv.ID,
		"auto_sent", autoSent)

	return dto.NewInvoiceResponse(inv), nil
}

func (s *recurringInvoiceService) GenerateAllDue(ctx context.Context) (*dto.SweepResponse, error) {
	today := types.Today()
	due, err := s.TemplateRepo.List(ctx, &types.TemplateFilter{
		TemplateStatus: []types.TemplateStatus{types.TemplateStatusActive},
		DueOnOrBefore:  &today,
	})
	if err != nil {
		return nil, err
	}

	resp := &dto.SweepResponse{Total: len(due)}
	for _, tpl := range due {
		if err := s.CanGenerate(tpl, today); err != nil {
			// listed but no longer eligible, e.g. advanced by another worker
			resp.Total--
			continue
		}
		if _, err := s.GenerateInvoice(ctx, tpl.ID); err != nil {
			s.Logger.Errorw("failed to generate invoice from template",
				"error", err,
				"template_id", tpl.ID,
				"customer_id", tpl.CustomerID)
			resp.Failed++
			continue
		}
		resp.Success++
	}

	return resp, nil
}

// buildInvoiceFromTemplate copies the template's line items verbatim into a
// draft invoice dated today
func (s *recurringInvoiceService) buildInvoiceFromTemplate(ctx context.Context, tpl *template.Template, today time.Time) *invoice.Invoice {
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		CustomerID:     tpl.CustomerID,
		InvoiceStatus:  types.InvoiceStatusDraft,
		IssueDate:      today,
		DueDate:        today.AddDate(0, 0, tpl.PaymentTerms),
		TaxRate:        tpl.TaxRate,
		DiscountAmount: tpl.DiscountAmount,
		Notes:          tpl.Notes,
		TemplateID:     &tpl.ID,
		BaseModel:      types.GetDefaultBaseModel(ctx),
	}

	for _, item := range tpl.LineItems {
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

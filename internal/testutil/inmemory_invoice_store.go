package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

// NewInMemoryInvoiceStore creates a new in-memory invoice store
func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

// Helper to copy invoice
func copyInvoice(inv *invoice.Invoice) *invoice.Invoice {
	if inv == nil {
		return nil
	}

	copied := *inv
	if len(inv.LineItems) > 0 {
		copied.LineItems = make([]*invoice.LineItem, len(inv.LineItems))
		for i, item := range inv.LineItems {
			itemCopy := *item
			copied.LineItems[i] = &itemCopy
		}
	}
	return &copied
}

func (s *InMemoryInvoiceStore) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return fmt.Errorf("invoice cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, inv.ID, copyInvoice(inv))
}

func (s *InMemoryInvoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	inv, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(invoice.ErrInvoiceNotFound).
			WithHintf("Invoice with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv), nil
}

func (s *InMemoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	if inv == nil {
		return fmt.Errorf("invoice cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, inv.ID, copyInvoice(inv)); err != nil {
		return ierr.WithError(invoice.ErrInvoiceNotFound).
			WithHintf("Invoice with ID %s was not found", inv.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryInvoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	invoices, err := s.InMemoryStore.List(ctx, filter, invoiceFilterFn, invoiceSortFn)
	if err != nil {
		return nil, err
	}
	result := make([]*invoice.Invoice, len(invoices))
	for i, inv := range invoices {
		result[i] = copyInvoice(inv)
	}
	return result, nil
}

func (s *InMemoryInvoiceStore) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, invoiceFilterFn)
}

func (s *InMemoryInvoiceStore) NextInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	max := 0
	for _, inv := range s.items {
		if inv.TenantID != tenantID || inv.Number == nil {
			continue
		}
		suffix, ok := strings.CutPrefix(*inv.Number, prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%05d", prefix, max+1), nil
}

func invoiceFilterFn(ctx context.Context, inv *invoice.Invoice, filter interface{}) bool {
	if inv.TenantID != types.GetTenantID(ctx) {
		return false
	}
	if inv.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.InvoiceFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && inv.CustomerID != f.CustomerID {
		return false
	}
	if f.TemplateID != "" && (inv.TemplateID == nil || *inv.TemplateID != f.TemplateID) {
		return false
	}
	if len(f.InvoiceStatus) > 0 {
		matched := false
		for _, status := range f.InvoiceStatus {
			if inv.InvoiceStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.DueDateFrom != nil && types.DateOnly(inv.DueDate).Before(types.DateOnly(*f.DueDateFrom)) {
		return false
	}
	if f.DueDateTo != nil && types.DateOnly(inv.DueDate).After(types.DateOnly(*f.DueDateTo)) {
		return false
	}
	return true
}

func invoiceSortFn(i, j *invoice.Invoice) bool {
	return i.CreatedAt.Before(j.CreatedAt)
}

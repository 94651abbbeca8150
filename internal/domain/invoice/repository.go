package invoice

import (
	"context"

	"github.com/billflow/billflow/internal/types"
)

// Repository is the persistence contract for invoices. Every query is scoped
// to the tenant carried in the context.
type Repository interface {
	// CreateWithLineItems persists the invoice and its owned line items in a
	// single transaction
	CreateWithLineItems(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id string) (*Invoice, error)
	// Update persists the invoice header and reconciles owned line items
	// (items marked for removal are deleted)
	Update(ctx context.Context, inv *Invoice) error
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)
	Count(ctx context.Context, filter *types.InvoiceFilter) (int, error)
	// NextInvoiceNumber returns PREFIX-NNNNN with the tenant's highest
	// existing numeric suffix incremented. Numbers are never reused.
	NextInvoiceNumber(ctx context.Context, prefix string) (string, error)
}

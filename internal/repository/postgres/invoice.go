package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billflow/billflow/internal/domain/invoice"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewInvoiceRepository creates a new postgres-backed invoice repository
func NewInvoiceRepository(client postgres.IClient, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, logger: logger}
}

const invoiceColumns = `
	id, customer_id, project_id, number, invoice_status, issue_date, due_date,
	tax_rate, discount_amount, subtotal, tax_amount, total_amount, notes,
	sent_at, viewed_at, paid_at, cancelled_at, payment_method, payment_reference,
	estimate_id, template_id, reminder_sent_at, reminder_count,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const insertInvoiceQuery = `
	INSERT INTO invoices (` + invoiceColumns + `)
	VALUES (
		:id, :customer_id, :project_id, :number, :invoice_status, :issue_date, :due_date,
		:tax_rate, :discount_amount, :subtotal, :tax_amount, :total_amount, :notes,
		:sent_at, :viewed_at, :paid_at, :cancelled_at, :payment_method, :payment_reference,
		:estimate_id, :template_id, :reminder_sent_at, :reminder_count,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

const insertInvoiceLineItemQuery = `
	INSERT INTO invoice_line_items (
		id, invoice_id, description, quantity, unit_price, position,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :invoice_id, :description, :quantity, :unit_price, :position,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *invoiceRepository) CreateWithLineItems(ctx context.Context, inv *invoice.Invoice) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)

		if _, err := q.NamedExecContext(ctx, insertInvoiceQuery, inv); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create invoice").
				Mark(ierr.ErrDatabase)
		}

		for _, item := range inv.LineItems {
			if _, err := q.NamedExecContext(ctx, insertInvoiceLineItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create invoice line item").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	q := r.client.Querier(ctx)

	var inv invoice.Invoice
	query := `SELECT ` + invoiceColumns + ` FROM invoices
		WHERE id = $1 AND tenant_id = $2 AND status != 'deleted'`
	err := q.GetContext(ctx, &inv, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(invoice.ErrInvoiceNotFound).
				WithHintf("Invoice with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.lineItems(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.LineItems = items

	return &inv, nil
}

func (r *invoiceRepository) lineItems(ctx context.Context, invoiceID string) ([]*invoice.LineItem, error) {
	q := r.client.Querier(ctx)

	var items []*invoice.LineItem
	query := `SELECT
			id, invoice_id, description, quantity, unit_price, position,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM invoice_line_items
		WHERE invoice_id = $1 AND tenant_id = $2 AND status != 'deleted'
		ORDER BY position`
	if err := q.SelectContext(ctx, &items, query, invoiceID, types.GetTenantID(ctx)); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoice line items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *invoice.Invoice) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)

		query := `UPDATE invoices SET
				invoice_status = :invoice_status,
				issue_date = :issue_date,
				due_date = :due_date,
				tax_rate = :tax_rate,
				discount_amount = :discount_amount,
				subtotal = :subtotal,
				tax_amount = :tax_amount,
				total_amount = :total_amount,
				notes = :notes,
				sent_at = :sent_at,
				viewed_at = :viewed_at,
				paid_at = :paid_at,
				cancelled_at = :cancelled_at,
				payment_method = :payment_method,
				payment_reference = :payment_reference,
				estimate_id = :estimate_id,
				reminder_sent_at = :reminder_sent_at,
				reminder_count = :reminder_count,
				updated_at = NOW(),
				updated_by = :updated_by
			WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`
		res, err := q.NamedExecContext(ctx, query, inv)
		if err != nil {
			return ierr.WithError(err).
				WithHint("Failed to update invoice").
				Mark(ierr.ErrDatabase)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ierr.WithError(invoice.ErrInvoiceNotFound).
				WithHintf("Invoice with ID %s was not found", inv.ID).
				Mark(ierr.ErrNotFound)
		}

		return r.reconcileLineItems(ctx, inv)
	})
}

// reconcileLineItems deletes items marked for removal and upserts the rest
func (r *invoiceRepository) reconcileLineItems(ctx context.Context, inv *invoice.Invoice) error {
	q := r.client.Querier(ctx)

	for _, item := range inv.LineItems {
		if item.MarkedForRemoval {
			query := `DELETE FROM invoice_line_items
				WHERE id = $1 AND invoice_id = $2 AND tenant_id = $3`
			if _, err := q.ExecContext(ctx, query, item.ID, inv.ID, types.GetTenantID(ctx)); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to remove invoice line item").
					Mark(ierr.ErrDatabase)
			}
			continue
		}

		query := insertInvoiceLineItemQuery + `
			ON CONFLICT (id) DO UPDATE SET
				description = EXCLUDED.description,
				quantity = EXCLUDED.quantity,
				unit_price = EXCLUDED.unit_price,
				position = EXCLUDED.position,
				updated_at = NOW(),
				updated_by = EXCLUDED.updated_by`
		if _, err := q.NamedExecContext(ctx, query, item); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to upsert invoice line item").
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	q := r.client.Querier(ctx)

	query, args := buildInvoiceFilterQuery(`SELECT `+invoiceColumns+` FROM invoices`, ctx, filter)
	query += ` ORDER BY created_at`

	var invoices []*invoice.Invoice
	if err := q.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list invoices").
			Mark(ierr.ErrDatabase)
	}

	for _, inv := range invoices {
		items, err := r.lineItems(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		inv.LineItems = items
	}

	return invoices, nil
}

func (r *invoiceRepository) Count(ctx context.Context, filter *types.InvoiceFilter) (int, error) {
	q := r.client.Querier(ctx)

	query, args := buildInvoiceFilterQuery(`SELECT COUNT(*) FROM invoices`, ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count invoices").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func buildInvoiceFilterQuery(base string, ctx context.Context, filter *types.InvoiceFilter) (string, []interface{}) {
	query := base + ` WHERE tenant_id = $1 AND status != 'deleted'`
	args := []interface{}{types.GetTenantID(ctx)}

	if filter == nil {
		return query, args
	}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.TemplateID != "" {
		args = append(args, filter.TemplateID)
		query += fmt.Sprintf(" AND template_id = $%d", len(args))
	}
	if len(filter.InvoiceStatus) > 0 {
		placeholders := ""
		for i, status := range filter.InvoiceStatus {
			args = append(args, status)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND invoice_status IN (%s)", placeholders)
	}
	if filter.DueDateFrom != nil {
		args = append(args, types.DateOnly(*filter.DueDateFrom))
		query += fmt.Sprintf(" AND due_date >= $%d", len(args))
	}
	if filter.DueDateTo != nil {
		args = append(args, types.DateOnly(*filter.DueDateTo))
		query += fmt.Sprintf(" AND due_date <= $%d", len(args))
	}

	return query, args
}

// NextInvoiceNumber increments the tenant's highest numeric suffix. Runs inside
// the caller's transaction so concurrent creation cannot hand out duplicates.
func (r *invoiceRepository) NextInvoiceNumber(ctx context.Context, prefix string) (string, error) {
	q := r.client.Querier(ctx)

	var max sql.NullInt64
	query := `SELECT MAX(CAST(SUBSTRING(number FROM $1) AS INTEGER)) FROM invoices
		WHERE tenant_id = $2 AND number LIKE $3`
	pattern := "^" + prefix + `-(\d+)$`
	err := q.GetContext(ctx, &max, query, pattern, types.GetTenantID(ctx), prefix+"-%")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", ierr.WithError(err).
			WithHint("Failed to allocate invoice number").
			Mark(ierr.ErrDatabase)
	}

	return fmt.Sprintf("%s-%05d", prefix, max.Int64+1), nil
}

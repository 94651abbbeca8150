package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billflow/billflow/internal/domain/template"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/types"
)

type templateRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewTemplateRepository creates a new postgres-backed recurring template repository
func NewTemplateRepository(client postgres.IClient, logger *logger.Logger) template.Repository {
	return &templateRepository{client: client, logger: logger}
}

const templateColumns = `
	id, customer_id, name, frequency, template_status,
	start_date, end_date, next_occurrence_date, occurrences_count, occurrences_limit,
	last_generated_at, payment_terms, auto_send, tax_rate, discount_amount, notes,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const insertTemplateQuery = `
	INSERT INTO recurring_templates (` + templateColumns + `)
	VALUES (
		:id, :customer_id, :name, :frequency, :template_status,
		:start_date, :end_date, :next_occurrence_date, :occurrences_count, :occurrences_limit,
		:last_generated_at, :payment_terms, :auto_send, :tax_rate, :discount_amount, :notes,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

const insertTemplateLineItemQuery = `
	INSERT INTO recurring_template_line_items (
		id, template_id, description, quantity, unit_price, position,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :template_id, :description, :quantity, :unit_price, :position,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *templateRepository) CreateWithLineItems(ctx context.Context, tpl *template.Template) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)

		if _, err := q.NamedExecContext(ctx, insertTemplateQuery, tpl); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create recurring template").
				Mark(ierr.ErrDatabase)
		}

		for _, item := range tpl.LineItems {
			if _, err := q.NamedExecContext(ctx, insertTemplateLineItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create template line item").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *templateRepository) Get(ctx context.Context, id string) (*template.Template, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate locks the template row for the surrounding transaction. Two
// workers generating from the same template serialize here.
func (r *templateRepository) GetForUpdate(ctx context.Context, id string) (*template.Template, error) {
	return r.get(ctx, id, true)
}

func (r *templateRepository) get(ctx context.Context, id string, forUpdate bool) (*template.Template, error) {
	q := r.client.Querier(ctx)

	query := `SELECT ` + templateColumns + ` FROM recurring_templates
		WHERE id = $1 AND tenant_id = $2 AND status != 'deleted'`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var tpl template.Template
	err := q.GetContext(ctx, &tpl, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(template.ErrTemplateNotFound).
				WithHintf("Template with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get recurring template").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.lineItems(ctx, tpl.ID)
	if err != nil {
		return nil, err
	}
	tpl.LineItems = items

	return &tpl, nil
}

func (r *templateRepository) lineItems(ctx context.Context, templateID string) ([]*template.LineItem, error) {
	q := r.client.Querier(ctx)

	var items []*template.LineItem
	query := `SELECT
			id, template_id, description, quantity, unit_price, position,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM recurring_template_line_items
		WHERE template_id = $1 AND tenant_id = $2 AND status != 'deleted'
		ORDER BY position`
	if err := q.SelectContext(ctx, &items, query, templateID, types.GetTenantID(ctx)); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list template line items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *templateRepository) Update(ctx context.Context, tpl *template.Template) error {
	q := r.client.Querier(ctx)

	query := `UPDATE recurring_templates SET
			name = :name,
			frequency = :frequency,
			template_status = :template_status,
			end_date = :end_date,
			next_occurrence_date = :next_occurrence_date,
			occurrences_count = :occurrences_count,
			occurrences_limit = :occurrences_limit,
			last_generated_at = :last_generated_at,
			payment_terms = :payment_terms,
			auto_send = :auto_send,
			tax_rate = :tax_rate,
			discount_amount = :discount_amount,
			notes = :notes,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`
	res, err := q.NamedExecContext(ctx, query, tpl)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update recurring template").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.WithError(template.ErrTemplateNotFound).
			WithHintf("Template with ID %s was not found", tpl.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *templateRepository) List(ctx context.Context, filter *types.TemplateFilter) ([]*template.Template, error) {
	q := r.client.Querier(ctx)

	query, args := buildTemplateFilterQuery(`SELECT `+templateColumns+` FROM recurring_templates`, ctx, filter)
	query += ` ORDER BY created_at`

	var templates []*template.Template
	if err := q.SelectContext(ctx, &templates, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list recurring templates").
			Mark(ierr.ErrDatabase)
	}

	for _, tpl := range templates {
		items, err := r.lineItems(ctx, tpl.ID)
		if err != nil {
			return nil, err
		}
		tpl.LineItems = items
	}

	return templates, nil
}

func (r *templateRepository) Count(ctx context.Context, filter *types.TemplateFilter) (int, error) {
	q := r.client.Querier(ctx)

	query, args := buildTemplateFilterQuery(`SELECT COUNT(*) FROM recurring_templates`, ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count recurring templates").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func buildTemplateFilterQuery(base string, ctx context.Context, filter *types.TemplateFilter) (string, []interface{}) {
	query := base + ` WHERE tenant_id = $1 AND status != 'deleted'`
	args := []interface{}{types.GetTenantID(ctx)}

	if filter == nil {
		return query, args
	}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if len(filter.TemplateStatus) > 0 {
		placeholders := ""
		for i, status := range filter.TemplateStatus {
			args = append(args, status)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND template_status IN (%s)", placeholders)
	}
	if filter.DueOnOrBefore != nil {
		args = append(args, types.DateOnly(*filter.DueOnOrBefore))
		query += fmt.Sprintf(" AND next_occurrence_date IS NOT NULL AND next_occurrence_date <= $%d", len(args))
	}

	return query, args
}

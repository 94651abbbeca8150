package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/billflow/billflow/internal/domain/estimate"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/types"
)

type estimateRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewEstimateRepository creates a new postgres-backed estimate repository
func NewEstimateRepository(client postgres.IClient, logger *logger.Logger) estimate.Repository {
	return &estimateRepository{client: client, logger: logger}
}

const estimateColumns = `
	id, customer_id, project_id, number, estimate_status, issue_date, valid_until,
	tax_rate, discount_amount, subtotal, tax_amount, total_amount, notes,
	sent_at, viewed_at, accepted_at, declined_at, expired_at,
	converted_at, converted_invoice_id,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

const insertEstimateQuery = `
	INSERT INTO estimates (` + estimateColumns + `)
	VALUES (
		:id, :customer_id, :project_id, :number, :estimate_status, :issue_date, :valid_until,
		:tax_rate, :discount_amount, :subtotal, :tax_amount, :total_amount, :notes,
		:sent_at, :viewed_at, :accepted_at, :declined_at, :expired_at,
		:converted_at, :converted_invoice_id,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

const insertEstimateLineItemQuery = `
	INSERT INTO estimate_line_items (
		id, estimate_id, description, quantity, unit_price, position,
		tenant_id, status, created_at, updated_at, created_by, updated_by
	) VALUES (
		:id, :estimate_id, :description, :quantity, :unit_price, :position,
		:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
	)`

func (r *estimateRepository) CreateWithLineItems(ctx context.Context, est *estimate.Estimate) error {
	return r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)

		if _, err := q.NamedExecContext(ctx, insertEstimateQuery, est); err != nil {
			return ierr.WithError(err).
				WithHint("Failed to create estimate").
				Mark(ierr.ErrDatabase)
		}

		for _, item := range est.LineItems {
			if _, err := q.NamedExecContext(ctx, insertEstimateLineItemQuery, item); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to create estimate line item").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *estimateRepository) Get(ctx context.Context, id string) (*estimate.Estimate, error) {
	q := r.client.Querier(ctx)

	var est estimate.Estimate
	query := `SELECT ` + estimateColumns + ` FROM estimates
		WHERE id = $1 AND tenant_id = $2 AND status != 'deleted'`
	err := q.GetContext(ctx, &est, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(estimate.ErrEstimateNotFound).
				WithHintf("Estimate with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get estimate").
			Mark(ierr.ErrDatabase)
	}

	items, err := r.lineItems(ctx, est.ID)
	if err != nil {
		return nil, err
	}
	est.LineItems = items

	return &est, nil
}

func (r *estimateRepository) lineItems(ctx context.Context, estimateID string) ([]*estimate.LineItem, error) {
	q := r.client.Querier(ctx)

	var items []*estimate.LineItem
	query := `SELECT
			id, estimate_id, description, quantity, unit_price, position,
			tenant_id, status, created_at, updated_at, created_by, updated_by
		FROM estimate_line_items
		WHERE estimate_id = $1 AND tenant_id = $2 AND status != 'deleted'
		ORDER BY position`
	if err := q.SelectContext(ctx, &items, query, estimateID, types.GetTenantID(ctx)); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list estimate line items").
			Mark(ierr.ErrDatabase)
	}
	return items, nil
}

func (r *estimateRepository) Update(ctx context.Context, est *estimate.Estimate) error {
	q := r.client.Querier(ctx)

	query := `UPDATE estimates SET
			estimate_status = :estimate_status,
			issue_date = :issue_date,
			valid_until = :valid_until,
			tax_rate = :tax_rate,
			discount_amount = :discount_amount,
			subtotal = :subtotal,
			tax_amount = :tax_amount,
			total_amount = :total_amount,
			notes = :notes,
			sent_at = :sent_at,
			viewed_at = :viewed_at,
			accepted_at = :accepted_at,
			declined_at = :declined_at,
			expired_at = :expired_at,
			converted_at = :converted_at,
			converted_invoice_id = :converted_invoice_id,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`
	res, err := q.NamedExecContext(ctx, query, est)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update estimate").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.WithError(estimate.ErrEstimateNotFound).
			WithHintf("Estimate with ID %s was not found", est.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *estimateRepository) List(ctx context.Context, filter *types.EstimateFilter) ([]*estimate.Estimate, error) {
	q := r.client.Querier(ctx)

	query, args := buildEstimateFilterQuery(`SELECT `+estimateColumns+` FROM estimates`, ctx, filter)
	query += ` ORDER BY created_at`

	var estimates []*estimate.Estimate
	if err := q.SelectContext(ctx, &estimates, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list estimates").
			Mark(ierr.ErrDatabase)
	}

	for _, est := range estimates {
		items, err := r.lineItems(ctx, est.ID)
		if err != nil {
			return nil, err
		}
		est.LineItems = items
	}

	return estimates, nil
}

func (r *estimateRepository) Count(ctx context.Context, filter *types.EstimateFilter) (int, error) {
	q := r.client.Querier(ctx)

	query, args := buildEstimateFilterQuery(`SELECT COUNT(*) FROM estimates`, ctx, filter)

	var count int
	if err := q.GetContext(ctx, &count, query, args...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count estimates").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func buildEstimateFilterQuery(base string, ctx context.Context, filter *types.EstimateFilter) (string, []interface{}) {
	query := base + ` WHERE tenant_id = $1 AND status != 'deleted'`
	args := []interface{}{types.GetTenantID(ctx)}

	if filter == nil {
		return query, args
	}

	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if len(filter.EstimateStatus) > 0 {
		placeholders := ""
		for i, status := range filter.EstimateStatus {
			args = append(args, status)
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND estimate_status IN (%s)", placeholders)
	}
	if filter.ValidUntilBefore != nil {
		args = append(args, types.DateOnly(*filter.ValidUntilBefore))
		query += fmt.Sprintf(" AND valid_until < $%d", len(args))
	}

	return query, args
}

func (r *estimateRepository) NextEstimateNumber(ctx context.Context, prefix string) (string, error) {
	q := r.client.Querier(ctx)

	var max sql.NullInt64
	query := `SELECT MAX(CAST(SUBSTRING(number FROM $1) AS INTEGER)) FROM estimates
		WHERE tenant_id = $2 AND number LIKE $3`
	pattern := "^" + prefix + `-(\d+)$`
	err := q.GetContext(ctx, &max, query, pattern, types.GetTenantID(ctx), prefix+"-%")
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", ierr.WithError(err).
			WithHint("Failed to allocate estimate number").
			Mark(ierr.ErrDatabase)
	}

	return fmt.Sprintf("%s-%05d", prefix, max.Int64+1), nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/billflow/billflow/internal/domain/plan"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
)

type planRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewPlanRepository creates a new postgres-backed plan repository. Plans form a
// shared catalog, queries are not tenant scoped.
func NewPlanRepository(client postgres.IClient, logger *logger.Logger) plan.Repository {
	return &planRepository{client: client, logger: logger}
}

const planColumns = `
	id, name, price_ref, free,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *planRepository) Create(ctx context.Context, p *plan.Plan) error {
	q := r.client.Querier(ctx)

	query := `INSERT INTO plans (` + planColumns + `)
		VALUES (
			:id, :name, :price_ref, :free,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`
	if _, err := q.NamedExecContext(ctx, query, p); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	return r.getBy(ctx, `id = $1`, id)
}

func (r *planRepository) GetByPriceRef(ctx context.Context, priceRef string) (*plan.Plan, error) {
	return r.getBy(ctx, `price_ref = $1`, priceRef)
}

func (r *planRepository) GetFree(ctx context.Context) (*plan.Plan, error) {
	return r.getBy(ctx, `free = $1`, true)
}

func (r *planRepository) getBy(ctx context.Context, cond string, arg interface{}) (*plan.Plan, error) {
	q := r.client.Querier(ctx)

	var p plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE ` + cond + ` AND status != 'deleted'`
	err := q.GetContext(ctx, &p, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(plan.ErrPlanNotFound).
				WithHint("Plan was not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get plan").
			Mark(ierr.ErrDatabase)
	}
	return &p, nil
}

func (r *planRepository) List(ctx context.Context) ([]*plan.Plan, error) {
	q := r.client.Querier(ctx)

	var plans []*plan.Plan
	query := `SELECT ` + planColumns + ` FROM plans WHERE status != 'deleted' ORDER BY created_at`
	if err := q.SelectContext(ctx, &plans, query); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list plans").
			Mark(ierr.ErrDatabase)
	}
	return plans, nil
}

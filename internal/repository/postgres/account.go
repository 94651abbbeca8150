package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/billflow/billflow/internal/domain/account"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/postgres"
	"github.com/billflow/billflow/internal/types"
)

type accountRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewAccountRepository creates a new postgres-backed account repository
func NewAccountRepository(client postgres.IClient, logger *logger.Logger) account.Repository {
	return &accountRepository{client: client, logger: logger}
}

const accountColumns = `
	id, name, plan_id, subscription_status, trial_ends_at,
	external_customer_ref, subscription_synced_at,
	tenant_id, status, created_at, updated_at, created_by, updated_by`

func (r *accountRepository) Create(ctx context.Context, acct *account.Account) error {
	q := r.client.Querier(ctx)

	query := `INSERT INTO accounts (` + accountColumns + `)
		VALUES (
			:id, :name, :plan_id, :subscription_status, :trial_ends_at,
			:external_customer_ref, :subscription_synced_at,
			:tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
		)`
	if _, err := q.NamedExecContext(ctx, query, acct); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to create account").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *accountRepository) Get(ctx context.Context, id string) (*account.Account, error) {
	q := r.client.Querier(ctx)

	var acct account.Account
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE id = $1 AND tenant_id = $2 AND status != 'deleted'`
	err := q.GetContext(ctx, &acct, query, id, types.GetTenantID(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(account.ErrAccountNotFound).
				WithHintf("Account with ID %s was not found", id).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get account").
			Mark(ierr.ErrDatabase)
	}
	return &acct, nil
}

// GetByExternalCustomerRef is deliberately not tenant scoped: processor events
// carry only the customer reference
func (r *accountRepository) GetByExternalCustomerRef(ctx context.Context, ref string) (*account.Account, error) {
	q := r.client.Querier(ctx)

	var acct account.Account
	query := `SELECT ` + accountColumns + ` FROM accounts
		WHERE external_customer_ref = $1 AND status != 'deleted'`
	err := q.GetContext(ctx, &acct, query, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ierr.WithError(account.ErrAccountNotFound).
				WithHintf("No account with customer reference %s", ref).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get account by customer reference").
			Mark(ierr.ErrDatabase)
	}
	return &acct, nil
}

func (r *accountRepository) Update(ctx context.Context, acct *account.Account) error {
	q := r.client.Querier(ctx)

	query := `UPDATE accounts SET
			name = :name,
			plan_id = :plan_id,
			subscription_status = :subscription_status,
			trial_ends_at = :trial_ends_at,
			external_customer_ref = :external_customer_ref,
			subscription_synced_at = :subscription_synced_at,
			updated_at = NOW(),
			updated_by = :updated_by
		WHERE id = :id AND tenant_id = :tenant_id AND status != 'deleted'`
	res, err := q.NamedExecContext(ctx, query, acct)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update account").
			Mark(ierr.ErrDatabase)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ierr.WithError(account.ErrAccountNotFound).
			WithHintf("Account with ID %s was not found", acct.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

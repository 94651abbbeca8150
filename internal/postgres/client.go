package postgres

import (
	"context"
	"database/sql"

	"github.com/billflow/billflow/internal/config"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/types"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Querier is the subset of sqlx operations repositories use. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so repository code is transaction-agnostic.
type Querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row
}

// IClient is the database client used by repositories and services
type IClient interface {
	// WithTx executes fn within a transaction. Nested calls reuse the
	// transaction already carried in the context.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// Querier returns the active transaction if the context carries one,
	// else the base connection pool.
	Querier(ctx context.Context) Querier
}

type client struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewClient connects to Postgres using the configured DSN
func NewClient(cfg *config.Configuration, log *logger.Logger) (IClient, error) {
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to connect to the database").
			Mark(ierr.ErrDatabase)
	}
	return &client{db: db, logger: log}, nil
}

// NewClientFromDB wraps an existing sqlx connection
func NewClientFromDB(db *sqlx.DB, log *logger.Logger) IClient {
	return &client{db: db, logger: log}
}

func (c *client) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx := txFromContext(ctx); tx != nil {
		return fn(ctx)
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to begin transaction").
			Mark(ierr.ErrDatabase)
	}

	txCtx := context.WithValue(ctx, types.CtxDBTransaction, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			c.logger.Errorw("failed to rollback transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to commit transaction").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (c *client) Querier(ctx context.Context) Querier {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return c.db
}

func txFromContext(ctx context.Context) *sqlx.Tx {
	if tx, ok := ctx.Value(types.CtxDBTransaction).(*sqlx.Tx); ok {
		return tx
	}
	return nil
}

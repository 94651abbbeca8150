package estimate

import (
	"context"

	"github.com/billflow/billflow/internal/types"
)

// Repository is the persistence contract for estimates. Every query is scoped
// to the tenant carried in the context.
type Repository interface {
	CreateWithLineItems(ctx context.Context, est *Estimate) error
	Get(ctx context.Context, id string) (*Estimate, error)
	Update(ctx context.Context, est *Estimate) error
	List(ctx context.Context, filter *types.EstimateFilter) ([]*Estimate, error)
	Count(ctx context.Context, filter *types.EstimateFilter) (int, error)
	// NextEstimateNumber returns PREFIX-NNNNN with the tenant's highest
	// existing numeric suffix incremented
	NextEstimateNumber(ctx context.Context, prefix string) (string, error)
}

package plan

import "context"

// Repository is the persistence contract for plans
type Repository interface {
	Create(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	GetByPriceRef(ctx context.Context, priceRef string) (*Plan, error)
	// GetFree returns the free-tier plan cancelled accounts fall back to
	GetFree(ctx context.Context) (*Plan, error)
	List(ctx context.Context) ([]*Plan, error)
}

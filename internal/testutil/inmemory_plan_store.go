package testutil

import (
	"context"
	"fmt"

	"github.com/billflow/billflow/internal/domain/plan"
	ierr "github.com/billflow/billflow/internal/errors"
)

// InMemoryPlanStore implements plan.Repository. Plans form a shared catalog,
// lookups are not tenant scoped.
type InMemoryPlanStore struct {
	*InMemoryStore[*plan.Plan]
}

// NewInMemoryPlanStore creates a new in-memory plan store
func NewInMemoryPlanStore() *InMemoryPlanStore {
	return &InMemoryPlanStore{
		InMemoryStore: NewInMemoryStore[*plan.Plan](),
	}
}

// Helper to copy plan
func copyPlan(p *plan.Plan) *plan.Plan {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

func (s *InMemoryPlanStore) Create(ctx context.Context, p *plan.Plan) error {
	if p == nil {
		return fmt.Errorf("plan cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, p.ID, copyPlan(p))
}

func (s *InMemoryPlanStore) Get(ctx context.Context, id string) (*plan.Plan, error) {
	p, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(plan.ErrPlanNotFound).
			WithHintf("Plan with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyPlan(p), nil
}

func (s *InMemoryPlanStore) GetByPriceRef(ctx context.Context, priceRef string) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.items {
		if p.PriceRef == priceRef {
			return copyPlan(p), nil
		}
	}
	return nil, ierr.WithError(plan.ErrPlanNotFound).
		WithHintf("No plan with price reference %s", priceRef).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPlanStore) GetFree(ctx context.Context) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.items {
		if p.Free {
			return copyPlan(p), nil
		}
	}
	return nil, ierr.WithError(plan.ErrPlanNotFound).
		WithHint("No free plan is configured").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryPlanStore) List(ctx context.Context) ([]*plan.Plan, error) {
	plans, err := s.InMemoryStore.List(ctx, nil, nil, func(i, j *plan.Plan) bool {
		return i.CreatedAt.Before(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	result := make([]*plan.Plan, len(plans))
	for i, p := range plans {
		result[i] = copyPlan(p)
	}
	return result, nil
}

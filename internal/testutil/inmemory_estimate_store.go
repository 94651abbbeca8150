package testutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/billflow/billflow/internal/domain/estimate"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// InMemoryEstimateStore implements estimate.Repository
type InMemoryEstimateStore struct {
	*InMemoryStore[*estimate.Estimate]
}

// NewInMemoryEstimateStore creates a new in-memory estimate store
func NewInMemoryEstimateStore() *InMemoryEstimateStore {
	return &InMemoryEstimateStore{
		InMemoryStore: NewInMemoryStore[*estimate.Estimate](),
	}
}

// Helper to copy estimate
func copyEstimate(est *estimate.Estimate) *estimate.Estimate {
	if est == nil {
		return nil
	}

	copied := *est
	if len(est.LineItems) > 0 {
		copied.LineItems = make([]*estimate.LineItem, len(est.LineItems))
		for i, item := range est.LineItems {
			itemCopy := *item
			copied.LineItems[i] = &itemCopy
		}
	}
	return &copied
}

func (s *InMemoryEstimateStore) CreateWithLineItems(ctx context.Context, est *estimate.Estimate) error {
	if est == nil {
		return fmt.Errorf("estimate cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, est.ID, copyEstimate(est))
}

func (s *InMemoryEstimateStore) Get(ctx context.Context, id string) (*estimate.Estimate, error) {
	est, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(estimate.ErrEstimateNotFound).
			WithHintf("Estimate with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyEstimate(est), nil
}

func (s *InMemoryEstimateStore) Update(ctx context.Context, est *estimate.Estimate) error {
	if est == nil {
		return fmt.Errorf("estimate cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, est.ID, copyEstimate(est)); err != nil {
		return ierr.WithError(estimate.ErrEstimateNotFound).
			WithHintf("Estimate with ID %s was not found", est.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryEstimateStore) List(ctx context.Context, filter *types.EstimateFilter) ([]*estimate.Estimate, error) {
	estimates, err := s.InMemoryStore.List(ctx, filter, estimateFilterFn, estimateSortFn)
	if err != nil {
		return nil, err
	}
	result := make([]*estimate.Estimate, len(estimates))
	for i, est := range estimates {
		result[i] = copyEstimate(est)
	}
	return result, nil
}

func (s *InMemoryEstimateStore) Count(ctx context.Context, filter *types.EstimateFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, estimateFilterFn)
}

func (s *InMemoryEstimateStore) NextEstimateNumber(ctx context.Context, prefix string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := types.GetTenantID(ctx)
	max := 0
	for _, est := range s.items {
		if est.TenantID != tenantID || est.Number == nil {
			continue
		}
		suffix, ok := strings.CutPrefix(*est.Number, prefix+"-")
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%05d", prefix, max+1), nil
}

func estimateFilterFn(ctx context.Context, est *estimate.Estimate, filter interface{}) bool {
	if est.TenantID != types.GetTenantID(ctx) {
		return false
	}
	if est.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.EstimateFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && est.CustomerID != f.CustomerID {
		return false
	}
	if len(f.EstimateStatus) > 0 {
		matched := false
		for _, status := range f.EstimateStatus {
			if est.EstimateStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.ValidUntilBefore != nil && !types.DateOnly(est.ValidUntil).Before(types.DateOnly(*f.ValidUntilBefore)) {
		return false
	}
	return true
}

func estimateSortFn(i, j *estimate.Estimate) bool {
	return i.CreatedAt.Before(j.CreatedAt)
}

package testutil

import (
	"context"
	"fmt"

	"github.com/billflow/billflow/internal/domain/account"
	ierr "github.com/billflow/billflow/internal/errors"
)

// InMemoryAccountStore implements account.Repository
type InMemoryAccountStore struct {
	*InMemoryStore[*account.Account]
}

// NewInMemoryAccountStore creates a new in-memory account store
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		InMemoryStore: NewInMemoryStore[*account.Account](),
	}
}

// Helper to copy account
func copyAccount(acct *account.Account) *account.Account {
	if acct == nil {
		return nil
	}
	copied := *acct
	return &copied
}

func (s *InMemoryAccountStore) Create(ctx context.Context, acct *account.Account) error {
	if acct == nil {
		return fmt.Errorf("account cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, acct.ID, copyAccount(acct))
}

func (s *InMemoryAccountStore) Get(ctx context.Context, id string) (*account.Account, error) {
	acct, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(account.ErrAccountNotFound).
			WithHintf("Account with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyAccount(acct), nil
}

// GetByExternalCustomerRef resolves across tenants: processor events carry no
// tenant, only the customer reference
func (s *InMemoryAccountStore) GetByExternalCustomerRef(ctx context.Context, ref string) (*account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, acct := range s.items {
		if acct.ExternalCustomerRef != nil && *acct.ExternalCustomerRef == ref {
			return copyAccount(acct), nil
		}
	}
	return nil, ierr.WithError(account.ErrAccountNotFound).
		WithHintf("No account with customer reference %s", ref).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryAccountStore) Update(ctx context.Context, acct *account.Account) error {
	if acct == nil {
		return fmt.Errorf("account cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, acct.ID, copyAccount(acct)); err != nil {
		return ierr.WithError(account.ErrAccountNotFound).
			WithHintf("Account with ID %s was not found", acct.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

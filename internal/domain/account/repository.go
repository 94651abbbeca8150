package account

import "context"

// Repository is the persistence contract for billing accounts
type Repository interface {
	Create(ctx context.Context, acct *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	// GetByExternalCustomerRef resolves the account owning a processor
	// customer reference, across tenants (processor events carry no tenant)
	GetByExternalCustomerRef(ctx context.Context, ref string) (*Account, error)
	Update(ctx context.Context, acct *Account) error
}

package template

import (
	"context"

	"github.com/billflow/billflow/internal/types"
)

// Repository is the persistence contract for recurring templates. Every query
// is scoped to the tenant carried in the context.
type Repository interface {
	CreateWithLineItems(ctx context.Context, tpl *Template) error
	Get(ctx context.Context, id string) (*Template, error)
	// GetForUpdate takes a row-level lock on the template for the duration of
	// the surrounding transaction. Generation for the same template must be
	// serialized to prevent double-spawning an occurrence.
	GetForUpdate(ctx context.Context, id string) (*Template, error)
	Update(ctx context.Context, tpl *Template) error
	List(ctx context.Context, filter *types.TemplateFilter) ([]*Template, error)
	Count(ctx context.Context, filter *types.TemplateFilter) (int, error)
}

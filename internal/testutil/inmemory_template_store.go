package testutil

import (
	"context"
	"fmt"

	"github.com/billflow/billflow/internal/domain/template"
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// InMemoryTemplateStore implements template.Repository
type InMemoryTemplateStore struct {
	*InMemoryStore[*template.Template]
}

// NewInMemoryTemplateStore creates a new in-memory template store
func NewInMemoryTemplateStore() *InMemoryTemplateStore {
	return &InMemoryTemplateStore{
		InMemoryStore: NewInMemoryStore[*template.Template](),
	}
}

// Helper to copy template
func copyTemplate(tpl *template.Template) *template.Template {
	if tpl == nil {
		return nil
	}

	copied := *tpl
	if len(tpl.LineItems) > 0 {
		copied.LineItems = make([]*template.LineItem, len(tpl.LineItems))
		for i, item := range tpl.LineItems {
			itemCopy := *item
			copied.LineItems[i] = &itemCopy
		}
	}
	return &copied
}

func (s *InMemoryTemplateStore) CreateWithLineItems(ctx context.Context, tpl *template.Template) error {
	if tpl == nil {
		return fmt.Errorf("template cannot be nil")
	}
	return s.InMemoryStore.Create(ctx, tpl.ID, copyTemplate(tpl))
}

func (s *InMemoryTemplateStore) Get(ctx context.Context, id string) (*template.Template, error) {
	tpl, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, ierr.WithError(template.ErrTemplateNotFound).
			WithHintf("Template with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyTemplate(tpl), nil
}

// GetForUpdate is a plain Get: the in-memory store has no row locks
func (s *InMemoryTemplateStore) GetForUpdate(ctx context.Context, id string) (*template.Template, error) {
	return s.Get(ctx, id)
}

func (s *InMemoryTemplateStore) Update(ctx context.Context, tpl *template.Template) error {
	if tpl == nil {
		return fmt.Errorf("template cannot be nil")
	}
	if err := s.InMemoryStore.Update(ctx, tpl.ID, copyTemplate(tpl)); err != nil {
		return ierr.WithError(template.ErrTemplateNotFound).
			WithHintf("Template with ID %s was not found", tpl.ID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryTemplateStore) List(ctx context.Context, filter *types.TemplateFilter) ([]*template.Template, error) {
	templates, err := s.InMemoryStore.List(ctx, filter, templateFilterFn, templateSortFn)
	if err != nil {
		return nil, err
	}
	result := make([]*template.Template, len(templates))
	for i, tpl := range templates {
		result[i] = copyTemplate(tpl)
	}
	return result, nil
}

func (s *InMemoryTemplateStore) Count(ctx context.Context, filter *types.TemplateFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, templateFilterFn)
}

func templateFilterFn(ctx context.Context, tpl *template.Template, filter interface{}) bool {
	if tpl.TenantID != types.GetTenantID(ctx) {
		return false
	}
	if tpl.Status == types.StatusDeleted {
		return false
	}

	f, ok := filter.(*types.TemplateFilter)
	if !ok || f == nil {
		return true
	}

	if f.CustomerID != "" && tpl.CustomerID != f.CustomerID {
		return false
	}
	if len(f.TemplateStatus) > 0 {
		matched := false
		for _, status := range f.TemplateStatus {
			if tpl.TemplateStatus == status {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if f.DueOnOrBefore != nil {
		if tpl.NextOccurrenceDate == nil {
			return false
		}
		if types.DateOnly(*tpl.NextOccurrenceDate).After(types.DateOnly(*f.DueOnOrBefore)) {
			return false
		}
	}
	return true
}

func templateSortFn(i, j *template.Template) bool {
	return i.CreatedAt.Before(j.CreatedAt)
}

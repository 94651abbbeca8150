package plan

import (
	ierr "github.com/billflow/billflow/internal/errors"
	"github.com/billflow/billflow/internal/types"
)

// Plan is a subscription plan. PriceRef is the external payment processor's
// price identifier; processor events carry it and reconciliation resolves it
// to a local plan, never trusting the reference verbatim.
type Plan struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	PriceRef string `db:"price_ref" json:"price_ref"`
	Free     bool   `db:"free" json:"free"`
	types.BaseModel
}

func (p *Plan) Validate() error {
	if p.Name == "" {
		return ierr.NewError("plan name is required").
			WithHint("Plan name is required").
			Mark(ierr.ErrValidation)
	}
	if !p.Free && p.PriceRef == "" {
		return ierr.NewError("plan price_ref is required for paid plans").
			WithHint("Paid plans need a processor price reference").
			Mark(ierr.ErrValidation)
	}
	return nil
}

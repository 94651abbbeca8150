package types

import "time"

// InvoiceFilter narrows invoice listings. Sweeps build these; the zero value
// matches everything in the tenant.
type InvoiceFilter struct {
	CustomerID    string          `json:"customer_id,omitempty" form:"customer_id"`
	TemplateID    string          `json:"template_id,omitempty" form:"template_id"`
	InvoiceStatus []InvoiceStatus `json:"invoice_status,omitempty" form:"invoice_status"`
	DueDateFrom   *time.Time      `json:"due_date_from,omitempty" form:"due_date_from"`
	DueDateTo     *time.Time      `json:"due_date_to,omitempty" form:"due_date_to"`
}

// EstimateFilter narrows estimate listings
type EstimateFilter struct {
	CustomerID       string           `json:"customer_id,omitempty" form:"customer_id"`
	EstimateStatus   []EstimateStatus `json:"estimate_status,omitempty" form:"estimate_status"`
	ValidUntilBefore *time.Time       `json:"valid_until_before,omitempty" form:"valid_until_before"`
}

// TemplateFilter narrows recurring template listings. DueOnOrBefore selects
// templates whose next occurrence is due, backed by the
// (tenant, next_occurrence_date, status) index.
type TemplateFilter struct {
	CustomerID     string           `json:"customer_id,omitempty" form:"customer_id"`
	TemplateStatus []TemplateStatus `json:"template_status,omitempty" form:"template_status"`
	DueOnOrBefore  *time.Time       `json:"due_on_or_before,omitempty" form:"due_on_or_before"`
}

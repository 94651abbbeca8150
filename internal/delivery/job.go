package delivery

import (
	"time"

	"github.com/billflow/billflow/internal/types"
)

// JobKind is the kind of outbound email delivery job
type JobKind string

const (
	JobKindInvoiceSend     JobKind = "invoice.send"
	JobKindInvoiceReminder JobKind = "invoice.reminder"
	JobKindEstimateSend    JobKind = "estimate.send"
)

// Job is a fire-and-forget email delivery request. The queue consumer owns
// rendering (PDF attachment) and transport; the core only supplies the
// document reference and already-computed totals snapshot.
type Job struct {
	ID         string         `json:"id"`
	Kind       JobKind        `json:"kind"`
	TenantID   string         `json:"tenant_id"`
	DocumentID string         `json:"document_id"`
	CustomerID string         `json:"customer_id"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// NewJob builds a delivery job with a fresh ID
func NewJob(tenantID string, kind JobKind, documentID, customerID string) *Job {
	return &Job{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_DELIVERY_JOB),
		Kind:       kind,
		TenantID:   tenantID,
		DocumentID: documentID,
		CustomerID: customerID,
		EnqueuedAt: time.Now().UTC(),
	}
}

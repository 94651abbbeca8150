package testutil

import (
	"context"
	"sync"

	"github.com/billflow/billflow/internal/delivery"
)

var _ delivery.Publisher = (*InMemoryDeliveryPublisher)(nil)

// InMemoryDeliveryPublisher records enqueued delivery jobs for assertions
type InMemoryDeliveryPublisher struct {
	mu   sync.Mutex
	jobs []*delivery.Job
}

// NewInMemoryDeliveryPublisher creates a recording delivery publisher
func NewInMemoryDeliveryPublisher() *InMemoryDeliveryPublisher {
	return &InMemoryDeliveryPublisher{}
}

func (p *InMemoryDeliveryPublisher) Enqueue(ctx context.Context, job *delivery.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *InMemoryDeliveryPublisher) Close() error {
	return nil
}

// Jobs returns the enqueued jobs in order
func (p *InMemoryDeliveryPublisher) Jobs() []*delivery.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*delivery.Job, len(p.jobs))
	copy(out, p.jobs)
	return out
}

// JobsOfKind returns the enqueued jobs of the given kind
func (p *InMemoryDeliveryPublisher) JobsOfKind(kind delivery.JobKind) []*delivery.Job {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*delivery.Job
	for _, job := range p.jobs {
		if job.Kind == kind {
			out = append(out, job)
		}
	}
	return out
}

// Clear drops all recorded jobs
func (p *InMemoryDeliveryPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = nil
}

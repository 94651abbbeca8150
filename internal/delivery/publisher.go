package delivery

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billflow/billflow/internal/config"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/pubsub"
)

// Publisher enqueues outbound delivery jobs. Enqueue is fire-and-forget:
// failures are logged and surfaced but delivery itself is the queue's concern.
type Publisher interface {
	Enqueue(ctx context.Context, job *Job) error
	Close() error
}

type publisher struct {
	pubSub pubsub.PubSub
	topic  string
	logger *logger.Logger
}

// NewPublisher creates a delivery publisher over the given pubsub
func NewPublisher(pubSub pubsub.PubSub, cfg *config.Configuration, logger *logger.Logger) Publisher {
	return &publisher{
		pubSub: pubSub,
		topic:  cfg.Delivery.Topic,
		logger: logger,
	}
}

func (p *publisher) Enqueue(ctx context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	msg := message.NewMessage(job.ID, payload)
	msg.Metadata.Set("tenant_id", job.TenantID)
	msg.Metadata.Set("kind", string(job.Kind))

	if err := p.pubSub.Publish(ctx, p.topic, msg); err != nil {
		p.logger.Errorw("failed to enqueue delivery job",
			"error", err,
			"job_id", job.ID,
			"kind", job.Kind,
			"document_id", job.DocumentID,
		)
		return err
	}

	p.logger.Debugw("enqueued delivery job",
		"job_id", job.ID,
		"kind", job.Kind,
		"document_id", job.DocumentID,
	)

	return nil
}

func (p *publisher) Close() error {
	return p.pubSub.Close()
}

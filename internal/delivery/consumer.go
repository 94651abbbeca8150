package delivery

import (
	"context"
	"encoding/json"

	"github.com/billflow/billflow/internal/config"
	"github.com/billflow/billflow/internal/logger"
	"github.com/billflow/billflow/internal/pubsub"
)

// Consumer drains the delivery queue. Rendering and transport live behind the
// Sender; the consumer only decodes jobs and acks them.
type Consumer struct {
	pubSub pubsub.PubSub
	topic  string
	sender Sender
	logger *logger.Logger
}

// Sender performs the actual outbound delivery of a job
type Sender interface {
	Send(ctx context.Context, job *Job) error
}

// NewConsumer creates a delivery consumer over the given pubsub
func NewConsumer(pubSub pubsub.PubSub, cfg *config.Configuration, sender Sender, logger *logger.Logger) *Consumer {
	return &Consumer{
		pubSub: pubSub,
		topic:  cfg.Delivery.Topic,
		sender: sender,
		logger: logger,
	}
}

// Run consumes jobs until the context is cancelled. Send failures are logged
// and the message is acked anyway: the queue is fire-and-forget.
func (c *Consumer) Run(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var job Job
			if err := json.Unmarshal(msg.Payload, &job); err != nil {
				c.logger.Errorw("failed to decode delivery job",
					"error", err,
					"message_id", msg.UUID)
				msg.Ack()
				continue
			}

			if err := c.sender.Send(ctx, &job); err != nil {
				c.logger.Errorw("failed to send delivery job",
					"error", err,
					"job_id", job.ID,
					"kind", job.Kind,
					"document_id", job.DocumentID)
			}
			msg.Ack()
		}
	}
}

// LogSender logs deliveries instead of sending them. Stands in until an email
// provider is wired up.
type LogSender struct {
	Logger *logger.Logger
}

func (s *LogSender) Send(ctx context.Context, job *Job) error {
	s.Logger.Infow("delivering document",
		"job_id", job.ID,
		"kind", job.Kind,
		"tenant_id", job.TenantID,
		"document_id", job.DocumentID,
		"customer_id", job.CustomerID)
	return nil
}

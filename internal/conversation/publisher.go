package conversation

import (
	"context"
	"fmt"

	"github.com/lavexpress/booking-platform/internal/events"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

// Publisher enqueues chat and payment jobs for asynchronous processing. The
// webhook handlers use it to acknowledge fast and defer the real work.
type Publisher struct {
	queue  queueClient
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue queueClient, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// EnqueueMessage publishes an inbound chat message job.
func (p *Publisher) EnqueueMessage(ctx context.Context, from, body string) error {
	return p.enqueue(ctx, queuePayload{
		Kind:    jobTypeMessage,
		Message: &MessageJob{From: from, Body: body},
	})
}

// EnqueuePaymentEvent publishes a payment status event job.
func (p *Publisher) EnqueuePaymentEvent(ctx context.Context, evt events.PaymentStatusV1) error {
	return p.enqueue(ctx, queuePayload{
		Kind:    jobTypePayment,
		Payment: &evt,
	})
}

func (p *Publisher) enqueue(ctx context.Context, payload queuePayload) error {
	payload, body, err := encodePayload(payload)
	if err != nil {
		return err
	}

	if err := p.queue.Send(ctx, body); err != nil {
		return fmt.Errorf("conversation: enqueue job: %w", err)
	}

	p.logger.Debug("job enqueued", "job_id", payload.ID, "kind", string(payload.Kind))
	return nil
}

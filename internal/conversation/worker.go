package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lavexpress/booking-platform/internal/events"
	"github.com/lavexpress/booking-platform/internal/observability/metrics"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

// TextSender delivers one outbound text and returns the provider message id.
type TextSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// PaymentProcessor applies one payment status event to its booking.
type PaymentProcessor interface {
	ProcessPaymentEvent(ctx context.Context, evt events.PaymentStatusV1) error
}

const (
	defaultWorkerCount = 2
	defaultWaitSeconds = 2
	defaultBatchSize   = 5
	maxWaitSeconds     = 20
	maxReceiveBatch    = 10
	deleteTimeout      = 5 * time.Second
)

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	metrics          *metrics.BookingMetrics
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the queue long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatch {
			size = maxReceiveBatch
		}
		cfg.receiveBatchSize = size
	}
}

// WithWorkerMetrics wires job counters.
func WithWorkerMetrics(m *metrics.BookingMetrics) WorkerOption {
	return func(cfg *workerConfig) {
		cfg.metrics = m
	}
}

// Worker consumes queued jobs: chat messages go through the engine and the
// replies out via the sender; payment events go to the payment processor.
// Failures during this asynchronous phase are logged, never surfaced to the
// webhook caller that enqueued the job.
type Worker struct {
	engine   *Engine
	queue    queueClient
	sender   TextSender
	payments PaymentProcessor
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

// NewWorker constructs a queue consumer.
func NewWorker(engine *Engine, queue queueClient, sender TextSender, payments PaymentProcessor, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if sender == nil {
		panic("conversation: sender cannot be nil")
	}
	if payments == nil {
		panic("conversation: payment processor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Worker{
		engine:   engine,
		queue:    queue,
		sender:   sender,
		payments: payments,
		metrics:  cfg.metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("worker started", "worker_id", workerID)

	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			w.logger.Error("failed to receive jobs", "error", err, "worker_id", workerID)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("failed to decode job", "error", err, "msg_id", msg.ID)
		w.deleteMessage(context.Background(), msg.ReceiptHandle)
		return
	}

	switch payload.Kind {
	case jobTypeMessage:
		w.handleChatJob(ctx, payload)
	case jobTypePayment:
		w.handlePaymentJob(ctx, payload)
	default:
		w.logger.Warn("dropping job with unknown kind", "kind", string(payload.Kind), "job_id", payload.ID)
	}

	w.deleteMessage(ctx, msg.ReceiptHandle)
}

func (w *Worker) handleChatJob(ctx context.Context, payload queuePayload) {
	if payload.Message == nil || payload.Message.From == "" {
		w.logger.Warn("dropping chat job without sender", "job_id", payload.ID)
		w.metrics.ObserveJob(string(jobTypeMessage), "invalid")
		return
	}

	reply := w.engine.HandleMessage(ctx, payload.Message.From, payload.Message.Body)
	status := "ok"
	for _, body := range reply.Messages {
		if _, err := w.sender.SendText(ctx, payload.Message.From, body); err != nil {
			w.logger.Error("failed to send reply", "error", err, "to", payload.Message.From, "job_id", payload.ID)
			status = "send_failed"
		}
	}
	w.metrics.ObserveJob(string(jobTypeMessage), status)
}

func (w *Worker) handlePaymentJob(ctx context.Context, payload queuePayload) {
	if payload.Payment == nil {
		w.logger.Warn("dropping payment job without event", "job_id", payload.ID)
		w.metrics.ObserveJob(string(jobTypePayment), "invalid")
		return
	}

	// Payment events are never retried: a failure here is logged with enough
	// context to investigate manually.
	if err := w.payments.ProcessPaymentEvent(ctx, *payload.Payment); err != nil {
		w.logger.Error("failed to process payment event",
			"error", err,
			"job_id", payload.ID,
			"reference", payload.Payment.Reference,
		)
		w.metrics.ObserveJob(string(jobTypePayment), "error")
		return
	}
	w.metrics.ObserveJob(string(jobTypePayment), "ok")
}

func (w *Worker) deleteMessage(ctx context.Context, receiptHandle string) {
	if receiptHandle == "" {
		return
	}

	deleteCtx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := w.queue.Delete(deleteCtx, receiptHandle); err != nil {
		w.logger.Error("failed to delete job", "error", err)
	}
}

package payments

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/lavexpress/booking-platform/internal/events"
	"github.com/lavexpress/booking-platform/internal/observability/metrics"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

const (
	maxWebhookBody = 1 << 20
	enqueueTimeout = 2 * time.Second
)

type eventPublisher interface {
	EnqueuePaymentEvent(ctx context.Context, evt events.PaymentStatusV1) error
}

// WebhookHandler receives gateway callbacks. The gateway only needs a fast
// 200; extraction problems and enqueue failures are logged, never surfaced
// back to the caller.
type WebhookHandler struct {
	publisher eventPublisher
	metrics   *metrics.BookingMetrics
	logger    *logging.Logger
}

// NewWebhookHandler creates the payment webhook handler.
func NewWebhookHandler(publisher eventPublisher, m *metrics.BookingMetrics, logger *logging.Logger) *WebhookHandler {
	if publisher == nil {
		panic("payments: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{publisher: publisher, metrics: m, logger: logger}
}

// Handle accepts POSTed payment events.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("wompi", time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read payment webhook body", "error", err)
		h.metrics.ObserveWebhook("wompi", "unreadable")
		w.WriteHeader(http.StatusOK)
		return
	}

	evt, err := ExtractEvent(body)
	if err != nil {
		h.logger.Warn("ignoring payment event without reference", "error", err)
		h.metrics.ObserveWebhook("wompi", "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()

	if err := h.publisher.EnqueuePaymentEvent(ctx, evt); err != nil {
		h.logger.Error("failed to enqueue payment event", "error", err, "reference", evt.Reference)
		h.metrics.ObserveWebhook("wompi", "enqueue_failed")
		w.WriteHeader(http.StatusOK)
		return
	}

	h.metrics.ObserveWebhook("wompi", "accepted")
	w.WriteHeader(http.StatusOK)
}

package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/lavexpress/booking-platform/internal/observability/metrics"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

const (
	maxWebhookBody = 1 << 20
	enqueueTimeout = 2 * time.Second
)

type messagePublisher interface {
	EnqueueMessage(ctx context.Context, from, body string) error
}

// WebhookHandler receives Meta's webhook calls: the GET subscription
// handshake and POSTed inbound messages. Messages are acknowledged
// immediately and processed asynchronously; Meta retries aggressively on
// anything but a fast 200.
type WebhookHandler struct {
	verifyToken string
	publisher   messagePublisher
	metrics     *metrics.BookingMetrics
	logger      *logging.Logger
}

// NewWebhookHandler creates the WhatsApp webhook handler.
func NewWebhookHandler(verifyToken string, publisher messagePublisher, m *metrics.BookingMetrics, logger *logging.Logger) *WebhookHandler {
	if publisher == nil {
		panic("messaging: publisher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		verifyToken: verifyToken,
		publisher:   publisher,
		metrics:     m,
		logger:      logger,
	}
}

// Verify answers the subscription handshake: echo hub.challenge when the
// token matches, 403 otherwise.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode == "subscribe" && token != "" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(challenge))
		return
	}

	h.logger.Warn("whatsapp webhook verification rejected", "mode", mode)
	w.WriteHeader(http.StatusForbidden)
}

type webhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Receive accepts POSTed message notifications. Only text messages are
// enqueued; statuses, media, and anything else are acknowledged and dropped.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.metrics.ObserveWebhookLatency("whatsapp", time.Since(start).Seconds())
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Warn("failed to read whatsapp webhook body", "error", err)
		h.metrics.ObserveWebhook("whatsapp", "unreadable")
		w.WriteHeader(http.StatusOK)
		return
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.logger.Warn("failed to decode whatsapp webhook", "error", err)
		h.metrics.ObserveWebhook("whatsapp", "malformed")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), enqueueTimeout)
	defer cancel()

	enqueued := 0
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.From == "" {
					continue
				}
				if err := h.publisher.EnqueueMessage(ctx, msg.From, msg.Text.Body); err != nil {
					h.logger.Error("failed to enqueue inbound message", "error", err, "from", msg.From)
					h.metrics.ObserveWebhook("whatsapp", "enqueue_failed")
					continue
				}
				enqueued++
			}
		}
	}

	if enqueued > 0 {
		h.metrics.ObserveWebhook("whatsapp", "accepted")
	} else {
		h.metrics.ObserveWebhook("whatsapp", "empty")
	}
	w.WriteHeader(http.StatusOK)
}

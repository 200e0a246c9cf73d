// Package messaging speaks the WhatsApp Cloud API: sending texts and
// receiving inbound message webhooks.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lavexpress/booking-platform/pkg/logging"
)

const defaultGraphBaseURL = "https://graph.facebook.com"

// ErrMissingCredentials means the client has no phone number id or token.
var ErrMissingCredentials = errors.New("messaging: whatsapp credentials not configured")

// WhatsAppClient sends text messages through the Cloud API.
type WhatsAppClient struct {
	phoneNumberID string
	accessToken   string
	apiVersion    string
	baseURL       string
	httpClient    *http.Client
	logger        *logging.Logger
	tracer        trace.Tracer
}

// NewWhatsAppClient creates a Cloud API client.
func NewWhatsAppClient(phoneNumberID, accessToken, apiVersion string, logger *logging.Logger) *WhatsAppClient {
	if apiVersion == "" {
		apiVersion = "v18.0"
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppClient{
		phoneNumberID: phoneNumberID,
		accessToken:   accessToken,
		apiVersion:    apiVersion,
		baseURL:       defaultGraphBaseURL,
		httpClient:    &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
		tracer:        otel.Tracer("booking.internal.messaging.whatsapp"),
	}
}

// WithBaseURL overrides the Graph API origin, for tests.
func (c *WhatsAppClient) WithBaseURL(baseURL string) *WhatsAppClient {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type textPayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendText delivers one text message and returns the provider message id.
// The recipient is normalized to digits only, as the Cloud API requires.
func (c *WhatsAppClient) SendText(ctx context.Context, to, body string) (string, error) {
	if c.phoneNumberID == "" || c.accessToken == "" {
		return "", ErrMissingCredentials
	}

	ctx, span := c.tracer.Start(ctx, "messaging.whatsapp.send_text")
	defer span.End()

	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               normalizePhone(to),
		Type:             "text",
	}
	payload.Text.Body = body

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("messaging: encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("messaging: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("messaging: send text: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("messaging: read response: %w", err)
	}

	var decoded sendResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return "", fmt.Errorf("messaging: decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "unknown error"
		if decoded.Error != nil {
			msg = decoded.Error.Message
		}
		return "", fmt.Errorf("messaging: whatsapp API returned %d: %s", resp.StatusCode, msg)
	}

	if len(decoded.Messages) == 0 {
		return "", errors.New("messaging: whatsapp API returned no message id")
	}

	c.logger.Debug("whatsapp text sent", "to", payload.To, "message_id", decoded.Messages[0].ID)
	return decoded.Messages[0].ID, nil
}

// normalizePhone strips everything but digits ("+57 300-123" -> "57300123").
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

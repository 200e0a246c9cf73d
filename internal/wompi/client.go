// Package wompi is a minimal client for the Wompi payment-links API.
package wompi

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

	"github.com/lavexpress/booking-platform/pkg/logging"
)

var tracer = otel.Tracer("booking.internal.wompi")

const (
	sandboxBaseURL    = "https://sandbox.wompi.co/v1"
	productionBaseURL = "https://production.wompi.co/v1"

	// Wompi rejects COP amounts under $1.500; surface that as a typed
	// failure before calling out.
	minAmountCOPCents = 150000
)

var (
	// ErrMissingCredentials means the client was built without a private key.
	ErrMissingCredentials = errors.New("wompi: credentials not configured")
	// ErrAmountBelowMinimum means the gateway would reject the amount.
	ErrAmountBelowMinimum = errors.New("wompi: amount below gateway minimum")
)

// LinkRequest describes one single-use payment link.
type LinkRequest struct {
	Reference     string // correlates the link back to a booking
	AmountCents   int64
	Currency      string
	CustomerPhone string
	CustomerEmail string // optional
	CustomerName  string // optional
}

// Link is a created checkout link.
type Link struct {
	ID  string
	URL string
}

// Client calls the Wompi REST API.
type Client struct {
	privateKey string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient builds a Wompi client for the given environment ("production"
// selects the live API, anything else the sandbox).
func NewClient(privateKey, environment string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := sandboxBaseURL
	if environment == "production" {
		baseURL = productionBaseURL
	}
	return &Client{
		privateKey: privateKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// WithBaseURL overrides the API endpoint, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

type linkPayload struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	SingleUse       bool         `json:"single_use"`
	CollectShipping bool         `json:"collect_shipping"`
	Currency        string       `json:"currency"`
	AmountInCents   int64        `json:"amount_in_cents"`
	Reference       string       `json:"reference,omitempty"`
	CustomerData    customerData `json:"customer_data"`
}

type customerData struct {
	Email       string `json:"email"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
}

type linkResponse struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreatePaymentLink creates a single-use checkout link for the reference.
func (c *Client) CreatePaymentLink(ctx context.Context, req LinkRequest) (*Link, error) {
	if c.privateKey == "" {
		return nil, ErrMissingCredentials
	}
	if strings.EqualFold(req.Currency, "COP") && req.AmountCents < minAmountCOPCents {
		return nil, fmt.Errorf("%w: %d cents", ErrAmountBelowMinimum, req.AmountCents)
	}

	ctx, span := tracer.Start(ctx, "wompi.create_payment_link")
	defer span.End()

	email := req.CustomerEmail
	if email == "" {
		email = req.CustomerPhone + "@whatsapp.local"
	}
	name := req.CustomerName
	if name == "" {
		name = "Cliente " + req.CustomerPhone
	}

	payload := linkPayload{
		Name:          "Reserva " + req.Reference,
		Description:   "Pago de reserva de lavado de autos - " + req.Reference,
		SingleUse:     true,
		Currency:      req.Currency,
		AmountInCents: req.AmountCents,
		Reference:     req.Reference,
		CustomerData: customerData{
			Email:       email,
			FullName:    name,
			PhoneNumber: req.CustomerPhone,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("wompi: marshal payment link payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payment_links", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("wompi: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.privateKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("wompi: create payment link: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var parsed linkResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("wompi: decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := parsed.Error.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		err := fmt.Errorf("wompi: payment link rejected: %s", msg)
		span.RecordError(err)
		return nil, err
	}

	c.logger.Info("wompi payment link created", "reference", req.Reference, "link_id", parsed.Data.ID)
	return &Link{ID: parsed.Data.ID, URL: parsed.Data.URL}, nil
}

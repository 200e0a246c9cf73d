package wompi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavexpress/booking-platform/pkg/logging"
)

func TestCreatePaymentLink(t *testing.T) {
	var captured linkPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment_links", r.URL.Path)
		assert.Equal(t, "Bearer prv_test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{"id": "link_123", "url": "https://checkout.wompi.co/l/link_123"},
		})
	}))
	defer srv.Close()

	client := NewClient("prv_test_key", "sandbox", logging.New("error")).WithBaseURL(srv.URL)
	link, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		Reference:     "BOOKING_42_1700000000",
		AmountCents:   2000000,
		Currency:      "COP",
		CustomerPhone: "573001234567",
	})
	require.NoError(t, err)
	assert.Equal(t, "link_123", link.ID)
	assert.Equal(t, "https://checkout.wompi.co/l/link_123", link.URL)

	assert.True(t, captured.SingleUse)
	assert.Equal(t, "BOOKING_42_1700000000", captured.Reference)
	assert.Equal(t, int64(2000000), captured.AmountInCents)
	assert.Equal(t, "573001234567@whatsapp.local", captured.CustomerData.Email)
	assert.Equal(t, "Cliente 573001234567", captured.CustomerData.FullName)
}

func TestCreatePaymentLinkMissingCredentials(t *testing.T) {
	client := NewClient("", "sandbox", logging.New("error"))
	_, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		Reference: "BOOKING_1_1", AmountCents: 2000000, Currency: "COP", CustomerPhone: "573001234567",
	})
	assert.True(t, errors.Is(err, ErrMissingCredentials))
}

func TestCreatePaymentLinkAmountBelowMinimum(t *testing.T) {
	client := NewClient("prv_test_key", "sandbox", logging.New("error"))
	_, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		Reference: "BOOKING_1_1", AmountCents: 100, Currency: "COP", CustomerPhone: "573001234567",
	})
	assert.True(t, errors.Is(err, ErrAmountBelowMinimum))
}

func TestCreatePaymentLinkGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"type": "INPUT_VALIDATION_ERROR", "message": "currency not supported"},
		})
	}))
	defer srv.Close()

	client := NewClient("prv_test_key", "sandbox", logging.New("error")).WithBaseURL(srv.URL)
	_, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		Reference: "BOOKING_1_1", AmountCents: 2000000, Currency: "USD", CustomerPhone: "573001234567",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "currency not supported")
}

func TestCreatePaymentLinkCustomOverridesKept(t *testing.T) {
	var captured linkPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"id": "l", "url": "u"}})
	}))
	defer srv.Close()

	client := NewClient("prv_test_key", "sandbox", logging.New("error")).WithBaseURL(srv.URL)
	_, err := client.CreatePaymentLink(context.Background(), LinkRequest{
		Reference:     "BOOKING_7_9",
		AmountCents:   2000000,
		Currency:      "COP",
		CustomerPhone: "573001234567",
		CustomerEmail: "ana@example.com",
		CustomerName:  "Ana",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", captured.CustomerData.Email)
	assert.Equal(t, "Ana", captured.CustomerData.FullName)
}

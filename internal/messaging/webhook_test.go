package messaging

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lavexpress/booking-platform/pkg/logging"
)

type fakeMessagePublisher struct {
	froms  []string
	bodies []string
	err    error
}

func (f *fakeMessagePublisher) EnqueueMessage(_ context.Context, from, body string) error {
	if f.err != nil {
		return f.err
	}
	f.froms = append(f.froms, from)
	f.bodies = append(f.bodies, body)
	return nil
}

func newTestHandler(publisher *fakeMessagePublisher) *WebhookHandler {
	return NewWebhookHandler("verify-me", publisher, nil, logging.Default())
}

func TestVerifyEchoesChallenge(t *testing.T) {
	handler := newTestHandler(&fakeMessagePublisher{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyRejectsBadToken(t *testing.T) {
	handler := newTestHandler(&fakeMessagePublisher{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	handler.Verify(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

const inboundTextBody = `{
	"entry": [{
		"changes": [{
			"value": {
				"messages": [{"from": "573001234567", "type": "text", "text": {"body": "hola"}}]
			}
		}]
	}]
}`

func TestReceiveEnqueuesTextMessages(t *testing.T) {
	publisher := &fakeMessagePublisher{}
	handler := newTestHandler(publisher)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextBody))
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"573001234567"}, publisher.froms)
	assert.Equal(t, []string{"hola"}, publisher.bodies)
}

func TestReceiveIgnoresNonText(t *testing.T) {
	publisher := &fakeMessagePublisher{}
	handler := newTestHandler(publisher)

	body := `{
		"entry": [{
			"changes": [{
				"value": {
					"messages": [{"from": "573001234567", "type": "image"}]
				}
			}]
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, publisher.froms)
}

func TestReceiveAcksStatusNotifications(t *testing.T) {
	publisher := &fakeMessagePublisher{}
	handler := newTestHandler(publisher)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp",
		strings.NewReader(`{"entry": [{"changes": [{"value": {"statuses": [{"id": "wamid.X"}]}}]}]}`))
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, publisher.froms)
}

func TestReceiveAcksOnEnqueueFailure(t *testing.T) {
	publisher := &fakeMessagePublisher{err: errors.New("queue down")}
	handler := newTestHandler(publisher)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(inboundTextBody))
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReceiveAcksMalformedBody(t *testing.T) {
	handler := newTestHandler(&fakeMessagePublisher{})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(`{broken`))
	rec := httptest.NewRecorder()
	handler.Receive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

package conversation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/lavexpress/booking-platform/internal/events"
)

type queueClient interface {
	Send(ctx context.Context, body string) error
	Receive(ctx context.Context, maxMessages int, waitSeconds int) ([]queueMessage, error)
	Delete(ctx context.Context, receiptHandle string) error
}

type queueMessage struct {
	ID            string
	Body          string
	ReceiptHandle string
}

type jobType string

const (
	jobTypeMessage jobType = "message"
	jobTypePayment jobType = "payment_status.v1"
)

// MessageJob is one inbound chat message to run through the engine.
type MessageJob struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type queuePayload struct {
	ID      string                  `json:"id"`
	Kind    jobType                 `json:"kind"`
	Message *MessageJob             `json:"message,omitempty"`
	Payment *events.PaymentStatusV1 `json:"payment,omitempty"`
}

func encodePayload(payload queuePayload) (queuePayload, string, error) {
	if payload.ID == "" {
		payload.ID = uuid.NewString()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return queuePayload{}, "", fmt.Errorf("conversation: encode payload: %w", err)
	}
	return payload, string(body), nil
}

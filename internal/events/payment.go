// Package events holds the versioned event payloads that cross the job queue.
package events

import "time"

// PaymentStatusV1 is a normalized payment-gateway callback: the webhook layer
// extracts it from the provider envelope, the worker hands it to the payment
// callback service.
type PaymentStatusV1 struct {
	Provider   string    `json:"provider"`
	EventID    string    `json:"event_id"`
	Reference  string    `json:"reference"`
	BookingID  int64     `json:"booking_id,omitempty"` // parsed from the reference when embedded
	Status     string    `json:"status"`               // raw gateway status string
	ReceivedAt time.Time `json:"received_at"`
}

// EventType implements the canonical event naming used in queue payloads.
func (PaymentStatusV1) EventType() string { return "payment_status.v1" }

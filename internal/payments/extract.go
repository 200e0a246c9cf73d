// Package payments handles asynchronous payment-status callbacks: extracting
// a reference and status from the gateway's event body, deduplicating
// deliveries, and applying the result to the booking.
package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lavexpress/booking-platform/internal/events"
)

// ErrNoReference means the event body carried no payment reference at any of
// the known positions; such events are logged and discarded.
var ErrNoReference = errors.New("payments: no payment reference in event")

// The gateway has echoed the reference at different depths across webhook
// versions, so decoding tries each known shape in order.
type transactionBody struct {
	ID        string `json:"id"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type envelope struct {
	Event string `json:"event"`
	ID    string `json:"id"`
	Data  struct {
		Transaction *transactionBody `json:"transaction"`
		Reference   string           `json:"reference"`
		Status      string           `json:"status"`
	} `json:"data"`
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

// ExtractEvent decodes an opaque gateway callback body into a payment status
// event. The first shape that yields a reference wins: data.transaction,
// then data, then the top level.
func ExtractEvent(body []byte) (events.PaymentStatusV1, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return events.PaymentStatusV1{}, fmt.Errorf("payments: decode event: %w", err)
	}

	evt := events.PaymentStatusV1{
		Provider:   "wompi",
		ReceivedAt: time.Now().UTC(),
	}

	switch {
	case env.Data.Transaction != nil && env.Data.Transaction.Reference != "":
		evt.Reference = env.Data.Transaction.Reference
		evt.Status = env.Data.Transaction.Status
		evt.EventID = env.Data.Transaction.ID
	case env.Data.Reference != "":
		evt.Reference = env.Data.Reference
		evt.Status = env.Data.Status
	case env.Reference != "":
		evt.Reference = env.Reference
		evt.Status = env.Status
	default:
		return events.PaymentStatusV1{}, ErrNoReference
	}

	if evt.EventID == "" {
		evt.EventID = env.ID
	}
	evt.BookingID = bookingIDFromReference(evt.Reference)
	return evt, nil
}

// bookingIDFromReference parses the booking id embedded in references of the
// form "BOOKING_{id}_{timestamp}". Returns 0 when the reference has another
// shape.
func bookingIDFromReference(reference string) int64 {
	rest, ok := strings.CutPrefix(reference, "BOOKING_")
	if !ok {
		return 0
	}
	idPart, _, _ := strings.Cut(rest, "_")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id < 1 {
		return 0
	}
	return id
}

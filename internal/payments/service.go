package payments

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lavexpress/booking-platform/internal/bookings"
	"github.com/lavexpress/booking-platform/internal/events"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

var serviceTracer = otel.Tracer("booking.internal.payments.service")

type bookingStore interface {
	FindByReferenceOrID(ctx context.Context, reference string, id int64) (*bookings.Booking, error)
	SetPaymentStatus(ctx context.Context, id int64, raw string) error
	UpdateStatus(ctx context.Context, id int64, status bookings.Status) (bookings.Status, error)
}

type processedStore interface {
	MarkProcessed(ctx context.Context, provider, eventID string) (bool, error)
}

// Notifier tells the customer about a payment outcome. Implementations are
// fire-and-forget: they log their own failures.
type Notifier interface {
	PaymentConfirmed(ctx context.Context, b *bookings.Booking)
	PaymentDeclined(ctx context.Context, b *bookings.Booking)
}

type statusClass int

const (
	statusOther statusClass = iota
	statusApproved
	statusDeclined
)

func classifyStatus(raw string) statusClass {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "APPROVED":
		return statusApproved
	case "DECLINED", "REJECTED":
		return statusDeclined
	}
	return statusOther
}

// CallbackService applies payment status events to bookings. An approved
// payment confirms the booking exactly once; a declined payment notifies the
// customer but leaves the booking PENDING_PAYMENT so they can retry.
type CallbackService struct {
	bookings  bookingStore
	processed processedStore
	notifier  Notifier
	logger    *logging.Logger
}

// NewCallbackService creates the payment event processor.
func NewCallbackService(bookingRepo bookingStore, processed processedStore, notifier Notifier, logger *logging.Logger) *CallbackService {
	if bookingRepo == nil {
		panic("payments: booking store required")
	}
	if processed == nil {
		panic("payments: processed store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CallbackService{
		bookings:  bookingRepo,
		processed: processed,
		notifier:  notifier,
		logger:    logger,
	}
}

// ProcessPaymentEvent handles one payment status event. Redelivered events
// are dropped, unresolvable references are logged and discarded, and every
// matched event records the raw gateway status on the booking.
func (s *CallbackService) ProcessPaymentEvent(ctx context.Context, evt events.PaymentStatusV1) error {
	ctx, span := serviceTracer.Start(ctx, "payments.process_event")
	defer span.End()
	span.SetAttributes(
		attribute.String("payment.reference", evt.Reference),
		attribute.String("payment.status", evt.Status),
	)

	first, err := s.processed.MarkProcessed(ctx, evt.Provider, dedupKey(evt))
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !first {
		s.logger.Debug("dropping duplicate payment event", "reference", evt.Reference, "event_id", evt.EventID)
		return nil
	}

	booking, err := s.bookings.FindByReferenceOrID(ctx, evt.Reference, evt.BookingID)
	if errors.Is(err, bookings.ErrNotFound) {
		s.logger.Warn("payment event without matching booking",
			"reference", evt.Reference,
			"booking_id", evt.BookingID,
			"status", evt.Status,
		)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := s.bookings.SetPaymentStatus(ctx, booking.ID, evt.Status); err != nil {
		span.RecordError(err)
		return err
	}
	booking.PaymentStatus = evt.Status

	switch classifyStatus(evt.Status) {
	case statusApproved:
		previous, err := s.bookings.UpdateStatus(ctx, booking.ID, bookings.StatusConfirmed)
		if err != nil {
			span.RecordError(err)
			return err
		}
		s.logger.Info("payment approved, booking confirmed",
			"booking_id", booking.ID,
			"reference", evt.Reference,
		)
		if previous != bookings.StatusConfirmed && s.notifier != nil {
			booking.Status = bookings.StatusConfirmed
			s.notifier.PaymentConfirmed(ctx, booking)
		}
	case statusDeclined:
		s.logger.Info("payment declined",
			"booking_id", booking.ID,
			"reference", evt.Reference,
			"status", evt.Status,
		)
		if s.notifier != nil {
			s.notifier.PaymentDeclined(ctx, booking)
		}
	default:
		s.logger.Debug("payment status recorded without transition",
			"booking_id", booking.ID,
			"status", evt.Status,
		)
	}
	return nil
}

// dedupKey prefers the gateway's own event id; when absent, reference plus
// status still collapses redeliveries of the same outcome.
func dedupKey(evt events.PaymentStatusV1) string {
	if evt.EventID != "" {
		return evt.EventID
	}
	return evt.Reference + ":" + evt.Status
}

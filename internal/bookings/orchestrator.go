package bookings

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lavexpress/booking-platform/internal/catalog"
	"github.com/lavexpress/booking-platform/internal/messaging/templates"
	"github.com/lavexpress/booking-platform/internal/wompi"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

var orchestratorTracer = otel.Tracer("booking.internal.bookings.orchestrator")

type bookingWriter interface {
	Create(ctx context.Context, b Booking) (*Booking, error)
	SetPaymentLink(ctx context.Context, id int64, reference, paymentStatus string) error
}

type paymentLinkCreator interface {
	CreatePaymentLink(ctx context.Context, req wompi.LinkRequest) (*wompi.Link, error)
}

// ConfirmRequest carries a fully selected reservation: the engine resolves
// location and service before calling the orchestrator.
type ConfirmRequest struct {
	CustomerPhone string
	Location      catalog.Location
	Service       catalog.Service
	Date          string // "YYYY-MM-DD"
	TimeSlot      string // "HH:MM"
}

// ConfirmResult is the created booking plus the outbound message bodies to
// deliver, in order.
type ConfirmResult struct {
	Booking  *Booking
	Messages []string
}

// Orchestrator turns a completed dialogue into a PENDING_PAYMENT booking and
// a payment link.
type Orchestrator struct {
	repo     bookingWriter
	links    paymentLinkCreator
	currency string
	logger   *logging.Logger
	now      func() time.Time
}

// NewOrchestrator creates a booking orchestrator.
func NewOrchestrator(repo bookingWriter, links paymentLinkCreator, currency string, logger *logging.Logger) *Orchestrator {
	if repo == nil {
		panic("bookings: repository required")
	}
	if links == nil {
		panic("bookings: payment link creator required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if currency == "" {
		currency = "COP"
	}
	return &Orchestrator{repo: repo, links: links, currency: currency, logger: logger, now: time.Now}
}

// Confirm creates the booking, requests a payment link, and builds the
// summary and payment messages. A payment-link failure is recoverable: the
// booking stays PENDING_PAYMENT without a reference and the customer is told
// to contact support.
func (o *Orchestrator) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	ctx, span := orchestratorTracer.Start(ctx, "bookings.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("booking.location_id", req.Location.ID),
		attribute.Int64("booking.service_id", req.Service.ID),
	)

	scheduledAt, err := time.Parse("2006-01-02 15:04", req.Date+" "+req.TimeSlot)
	if err != nil {
		return nil, fmt.Errorf("bookings: invalid schedule %q %q: %w", req.Date, req.TimeSlot, err)
	}

	booking, err := o.repo.Create(ctx, Booking{
		LocationID:    req.Location.ID,
		ServiceID:     req.Service.ID,
		CustomerPhone: req.CustomerPhone,
		ScheduledAt:   scheduledAt,
		Status:        StatusPendingPayment,
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("booking.id", booking.ID))

	summary := templates.BookingSummary(req.Location.Name, req.Service.Name, req.Date, req.TimeSlot, req.Service.PriceCents)

	reference := fmt.Sprintf("BOOKING_%d_%d", booking.ID, o.now().Unix())
	link, err := o.links.CreatePaymentLink(ctx, wompi.LinkRequest{
		Reference:     reference,
		AmountCents:   req.Service.PriceCents,
		Currency:      o.currency,
		CustomerPhone: req.CustomerPhone,
	})
	if err != nil {
		// The booking already exists; the payment link can be retried by
		// support, so this is not rolled back.
		o.logger.Error("payment link creation failed", "error", err, "booking_id", booking.ID)
		span.RecordError(err)
		return &ConfirmResult{
			Booking:  booking,
			Messages: []string{templates.PaymentLinkFailed},
		}, nil
	}

	if err := o.repo.SetPaymentLink(ctx, booking.ID, reference, "PENDING"); err != nil {
		o.logger.Error("failed to store payment reference", "error", err, "booking_id", booking.ID)
		span.RecordError(err)
		return &ConfirmResult{
			Booking:  booking,
			Messages: []string{templates.PaymentLinkFailed},
		}, nil
	}
	booking.PaymentReference = reference
	booking.PaymentStatus = "PENDING"

	o.logger.Info("booking created with payment link",
		"booking_id", booking.ID,
		"location_id", req.Location.ID,
		"service_id", req.Service.ID,
		"reference", reference,
	)

	return &ConfirmResult{
		Booking:  booking,
		Messages: []string{summary, templates.PaymentLink(link.URL)},
	}, nil
}

// Package notify maps booking status changes to outbound customer messages.
// Delivery is fire-and-forget: a failed send is logged and never bubbles up
// to whatever triggered the transition.
package notify

import (
	"context"

	"github.com/lavexpress/booking-platform/internal/bookings"
	"github.com/lavexpress/booking-platform/internal/catalog"
	"github.com/lavexpress/booking-platform/internal/messaging/templates"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

type textSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

type catalogReader interface {
	GetLocation(ctx context.Context, id int64) (*catalog.Location, error)
	GetService(ctx context.Context, id int64) (*catalog.Service, error)
}

// Dispatcher sends transition messages. Only a handful of transitions speak:
// confirmation after payment, in-service, ready for pickup, and a payment
// decline. Everything else is silent.
type Dispatcher struct {
	sender  textSender
	catalog catalogReader
	logger  *logging.Logger
}

// NewDispatcher creates a notification dispatcher.
func NewDispatcher(sender textSender, catalogRepo catalogReader, logger *logging.Logger) *Dispatcher {
	if sender == nil {
		panic("notify: sender required")
	}
	if catalogRepo == nil {
		panic("notify: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Dispatcher{sender: sender, catalog: catalogRepo, logger: logger}
}

// BookingTransition reacts to a status change. No-op transitions stay silent.
func (d *Dispatcher) BookingTransition(ctx context.Context, b *bookings.Booking, from, to bookings.Status) {
	if b == nil || from == to {
		return
	}
	switch to {
	case bookings.StatusConfirmed:
		d.PaymentConfirmed(ctx, b)
	case bookings.StatusInService:
		d.send(ctx, b, templates.BookingInService)
	case bookings.StatusReady:
		d.send(ctx, b, templates.BookingReady)
	}
}

// PaymentConfirmed tells the customer their booking is locked in.
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, b *bookings.Booking) {
	if b == nil {
		return
	}

	serviceName := "tu servicio"
	locationName := "nuestra sede"
	if service, err := d.catalog.GetService(ctx, b.ServiceID); err == nil {
		serviceName = service.Name
	} else {
		d.logger.Warn("confirmation sent without service name", "error", err, "booking_id", b.ID)
	}
	if location, err := d.catalog.GetLocation(ctx, b.LocationID); err == nil {
		locationName = location.Name
	} else {
		d.logger.Warn("confirmation sent without location name", "error", err, "booking_id", b.ID)
	}

	d.send(ctx, b, templates.PaymentConfirmed(
		serviceName,
		b.ScheduledAt.Format("2006-01-02"),
		b.ScheduledAt.Format("15:04"),
		locationName,
	))
}

// PaymentDeclined tells the customer the payment failed; the slot stays
// reserved so they can retry.
func (d *Dispatcher) PaymentDeclined(ctx context.Context, b *bookings.Booking) {
	if b == nil {
		return
	}
	d.send(ctx, b, templates.PaymentDeclined)
}

func (d *Dispatcher) send(ctx context.Context, b *bookings.Booking, body string) {
	if _, err := d.sender.SendText(ctx, b.CustomerPhone, body); err != nil {
		d.logger.Error("failed to send booking notification",
			"error", err,
			"booking_id", b.ID,
			"to", b.CustomerPhone,
		)
	}
}

package bookings

import "time"

// Status is a booking's lifecycle state.
type Status string

const (
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusConfirmed      Status = "CONFIRMED"
	StatusInService      Status = "IN_SERVICE"
	StatusReady          Status = "READY"
	StatusCancelled      Status = "CANCELLED"
)

// KnownStatus reports whether s is one of the lifecycle states.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPendingPayment, StatusConfirmed, StatusInService, StatusReady, StatusCancelled:
		return true
	}
	return false
}

// Booking is the durable artifact the conversation engine produces and the
// payment callback path later mutates.
type Booking struct {
	ID               int64
	LocationID       int64
	ServiceID        int64
	CustomerPhone    string
	ScheduledAt      time.Time
	Status           Status
	PaymentReference string // empty until a payment link exists
	PaymentStatus    string // raw gateway status, empty until first callback
	CreatedAt        time.Time
}

// ScheduledInterval is the slice of a booking the slot calculator needs:
// its start clock time on the target date and its service duration.
type ScheduledInterval struct {
	StartTime   string // "HH:MM"
	DurationMin int
}

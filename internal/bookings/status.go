package bookings

import (
	"context"
	"fmt"

	"github.com/lavexpress/booking-platform/pkg/logging"
)

type statusUpdater interface {
	GetByID(ctx context.Context, id int64) (*Booking, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Status, error)
}

// TransitionNotifier is told about every applied status change so the
// customer can be messaged. Implementations must not block on delivery.
type TransitionNotifier interface {
	BookingTransition(ctx context.Context, b *Booking, from, to Status)
}

// ErrUnknownStatus is returned when a transition names a status outside the
// booking lifecycle.
var ErrUnknownStatus = fmt.Errorf("bookings: unknown status")

// StatusService applies operator-driven lifecycle transitions, such as
// marking a wash in service or ready for pickup.
type StatusService struct {
	repo     statusUpdater
	notifier TransitionNotifier
	logger   *logging.Logger
}

func NewStatusService(repo statusUpdater, notifier TransitionNotifier, logger *logging.Logger) *StatusService {
	if repo == nil {
		panic("bookings: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatusService{repo: repo, notifier: notifier, logger: logger}
}

// Transition moves a booking to the given status and notifies the customer
// when the status actually changed.
func (s *StatusService) Transition(ctx context.Context, id int64, status Status) (*Booking, error) {
	if !KnownStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	previous, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking status updated", "booking_id", id, "from", string(previous), "to", string(status))

	if s.notifier != nil && previous != status {
		s.notifier.BookingTransition(ctx, booking, previous, status)
	}
	return booking, nil
}

package scheduling

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/lavexpress/booking-platform/internal/bookings"
	"github.com/lavexpress/booking-platform/internal/catalog"
)

var availabilityTracer = otel.Tracer("booking.internal.scheduling.availability")

type locationGetter interface {
	GetLocation(ctx context.Context, id int64) (*catalog.Location, error)
}

type intervalLister interface {
	ListIntervalsForDate(ctx context.Context, locationID int64, date string) ([]bookings.ScheduledInterval, error)
}

// Availability joins a location's operating hours with its existing bookings
// to answer "which slots are still bookable on this date".
type Availability struct {
	locations locationGetter
	intervals intervalLister
}

// NewAvailability creates a slot lookup service.
func NewAvailability(locations locationGetter, intervals intervalLister) *Availability {
	if locations == nil {
		panic("scheduling: location source required")
	}
	if intervals == nil {
		panic("scheduling: interval source required")
	}
	return &Availability{locations: locations, intervals: intervals}
}

// AvailableSlots returns the bookable "HH:MM" labels at the location on the
// given "YYYY-MM-DD" date, in chronological order.
func (a *Availability) AvailableSlots(ctx context.Context, locationID int64, date string) ([]string, error) {
	ctx, span := availabilityTracer.Start(ctx, "scheduling.available_slots")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("location.id", locationID),
		attribute.String("date", date),
	)

	location, err := a.locations.GetLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load location %d: %w", locationID, err)
	}

	booked, err := a.intervals.ListIntervalsForDate(ctx, locationID, date)
	if err != nil {
		return nil, fmt.Errorf("scheduling: load bookings: %w", err)
	}

	intervals := make([]BookedInterval, 0, len(booked))
	for _, b := range booked {
		intervals = append(intervals, BookedInterval{Start: b.StartTime, DurationMin: b.DurationMin})
	}

	slots := ComputeSlots(Hours{
		Opening:     location.OpeningTime,
		Closing:     location.ClosingTime,
		SlotMinutes: location.SlotMinutes,
		BreakStart:  location.BreakStart,
		BreakEnd:    location.BreakEnd,
	}, intervals)

	span.SetAttributes(attribute.Int("slots.available", len(slots)))
	return slots, nil
}

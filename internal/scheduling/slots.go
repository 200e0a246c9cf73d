// Package scheduling computes bookable time slots for a location's day.
// Everything here is pure: callers load hours and bookings, this package
// only does the grid math.
package scheduling

import (
	"fmt"
	"strconv"
	"strings"
)

// Hours describes a location's operating parameters for one day.
type Hours struct {
	Opening     string // "HH:MM"
	Closing     string // "HH:MM", never itself a bookable start
	SlotMinutes int
	BreakStart  string // optional, "" disables the break window
	BreakEnd    string
}

// BookedInterval is an existing non-cancelled booking on the target date.
type BookedInterval struct {
	Start       string // "HH:MM", may fall between grid cells
	DurationMin int
}

// ComputeSlots returns the ordered list of bookable "HH:MM" slot labels:
// the candidate grid from opening to closing, minus the break window, minus
// every grid cell overlapped by an existing booking's service duration.
// An empty result means no availability.
func ComputeSlots(hours Hours, bookings []BookedInterval) []string {
	opening, err := parseClock(hours.Opening)
	if err != nil {
		return nil
	}
	closing, err := parseClock(hours.Closing)
	if err != nil {
		return nil
	}
	stride := hours.SlotMinutes
	if stride < 1 {
		return nil
	}

	occupied := make(map[int]struct{})
	for _, b := range bookings {
		start, err := parseClock(b.Start)
		if err != nil {
			continue
		}
		duration := b.DurationMin
		if duration < 1 {
			duration = stride
		}
		// Align down to the containing grid cell, then mark every cell the
		// interval [start, start+duration) touches.
		cell := opening + ((start-opening)/stride)*stride
		if start < opening {
			cell = opening
		}
		for ; cell < start+duration; cell += stride {
			occupied[cell] = struct{}{}
		}
	}

	breakStart, breakEnd := -1, -1
	if hours.BreakStart != "" && hours.BreakEnd != "" {
		if bs, err := parseClock(hours.BreakStart); err == nil {
			if be, err := parseClock(hours.BreakEnd); err == nil {
				breakStart, breakEnd = bs, be
			}
		}
	}

	var slots []string
	for t := opening; t < closing; t += stride {
		if breakStart >= 0 && t >= breakStart && t < breakEnd {
			continue
		}
		if _, booked := occupied[t]; booked {
			continue
		}
		slots = append(slots, formatClock(t))
	}
	return slots
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("scheduling: invalid clock value %q", value)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("scheduling: invalid clock value %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("scheduling: invalid clock value %q", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("scheduling: clock value %q out of range", value)
	}
	return hour*60 + minute, nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

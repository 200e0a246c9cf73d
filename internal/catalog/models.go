package catalog

// Location is a bookable site with its operating parameters. Times are
// "HH:MM" strings in the location's local time.
type Location struct {
	ID          int64
	Name        string
	Active      bool
	OpeningTime string
	ClosingTime string
	SlotMinutes int
	BreakStart  string // empty when no break window is configured
	BreakEnd    string
}

// HasBreak reports whether a break window is configured.
func (l Location) HasBreak() bool {
	return l.BreakStart != "" && l.BreakEnd != ""
}

// Service is something a location offers. Price is in minor currency units.
type Service struct {
	ID          int64
	LocationID  int64
	Name        string
	PriceCents  int64
	DurationMin int
	Active      bool
}

package conversation

import "time"

// Step is the customer's current stage in the booking dialogue.
type Step string

const (
	StepChooseLocation Step = "CHOOSE_LOCATION"
	StepChooseService  Step = "CHOOSE_SERVICE"
	StepChooseDate     Step = "CHOOSE_DATE"
	StepChooseTime     Step = "CHOOSE_TIME"
	StepConfirmBooking Step = "CONFIRM_BOOKING"
	StepCompleted      Step = "COMPLETED"
)

// State is one customer's accumulated dialogue progress. It is owned
// exclusively by the engine; nothing else mutates it.
type State struct {
	Step       Step      `json:"step"`
	LocationID int64     `json:"location_id,omitempty"`
	ServiceID  int64     `json:"service_id,omitempty"`
	Date       string    `json:"date,omitempty"` // "YYYY-MM-DD"
	TimeSlot   string    `json:"time_slot,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewState returns a dialogue at its initial step.
func NewState() *State {
	return &State{Step: StepChooseLocation}
}

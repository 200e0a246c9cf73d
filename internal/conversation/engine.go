package conversation

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lavexpress/booking-platform/internal/bookings"
	"github.com/lavexpress/booking-platform/internal/catalog"
	"github.com/lavexpress/booking-platform/internal/messaging/templates"
	"github.com/lavexpress/booking-platform/pkg/logging"
)

var engineTracer = otel.Tracer("booking.internal.conversation.engine")

// CatalogDirectory resolves locations and services for the dialogue.
type CatalogDirectory interface {
	ListLocations(ctx context.Context, activeOnly bool) ([]catalog.Location, error)
	GetLocation(ctx context.Context, id int64) (*catalog.Location, error)
	ListServices(ctx context.Context, locationID int64, activeOnly bool) ([]catalog.Service, error)
	GetService(ctx context.Context, id int64) (*catalog.Service, error)
}

// AvailabilityLister computes the bookable slots for a location and date.
type AvailabilityLister interface {
	AvailableSlots(ctx context.Context, locationID int64, date string) ([]string, error)
}

// BookingConfirmer turns a completed dialogue into a booking plus payment
// link messages.
type BookingConfirmer interface {
	Confirm(ctx context.Context, req bookings.ConfirmRequest) (*bookings.ConfirmResult, error)
}

type stateStore interface {
	Get(ctx context.Context, phone string) (*State, error)
	Save(ctx context.Context, phone string, state *State) error
	Reset(ctx context.Context, phone string) error
}

// Reply is the ordered outbound texts one inbound message produced.
type Reply struct {
	Messages []string
}

// Engine drives the booking dialogue. Processing is serialized per customer:
// the read-modify-write of the customer's state is a critical section keyed
// by phone, so two near-simultaneous messages from the same customer never
// interleave, while different customers proceed independently.
type Engine struct {
	store     stateStore
	directory CatalogDirectory
	slots     AvailabilityLister
	confirmer BookingConfirmer
	logger    *logging.Logger
	now       func() time.Time
	locks     sync.Map // phone -> *sync.Mutex
}

// NewEngine creates the conversation engine.
func NewEngine(store stateStore, directory CatalogDirectory, slots AvailabilityLister, confirmer BookingConfirmer, logger *logging.Logger) *Engine {
	if store == nil {
		panic("conversation: state store cannot be nil")
	}
	if directory == nil {
		panic("conversation: catalog directory cannot be nil")
	}
	if slots == nil {
		panic("conversation: availability lister cannot be nil")
	}
	if confirmer == nil {
		panic("conversation: booking confirmer cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{
		store:     store,
		directory: directory,
		slots:     slots,
		confirmer: confirmer,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleMessage advances the customer's dialogue with one inbound text and
// returns the reply messages. Any internal failure is contained here: it is
// logged, the state is left uncommitted so the customer can retry the same
// step, and a generic apology is returned.
func (e *Engine) HandleMessage(ctx context.Context, phone, text string) Reply {
	lock := e.lockFor(phone)
	lock.Lock()
	defer lock.Unlock()

	ctx, span := engineTracer.Start(ctx, "conversation.handle_message")
	defer span.End()

	reply, err := e.process(ctx, phone, strings.TrimSpace(text))
	if err != nil {
		e.logger.Error("conversation step failed", "error", err, "phone", phone)
		span.RecordError(err)
		return Reply{Messages: []string{templates.GenericError}}
	}
	return reply
}

func (e *Engine) lockFor(phone string) *sync.Mutex {
	lockAny, _ := e.locks.LoadOrStore(phone, &sync.Mutex{})
	return lockAny.(*sync.Mutex)
}

func (e *Engine) process(ctx context.Context, phone, text string) (Reply, error) {
	state, err := e.store.Get(ctx, phone)
	if err != nil {
		return Reply{}, err
	}
	fresh := state == nil
	if fresh {
		state = NewState()
	}

	trace.SpanFromContext(ctx).SetAttributes(attribute.String("conversation.step", string(state.Step)))

	switch state.Step {
	case StepChooseLocation:
		return e.chooseLocation(ctx, phone, state, text, fresh)
	case StepChooseService:
		return e.chooseService(ctx, phone, state, text)
	case StepChooseDate:
		return e.chooseDate(ctx, phone, state, text)
	case StepChooseTime:
		return e.chooseTime(ctx, phone, state, text)
	default:
		// COMPLETED, CONFIRM_BOOKING, or anything unknown: start over.
		return e.restart(ctx, phone, "")
	}
}

func (e *Engine) chooseLocation(ctx context.Context, phone string, state *State, text string, fresh bool) (Reply, error) {
	locations, err := e.directory.ListLocations(ctx, true)
	if err != nil {
		return Reply{}, err
	}
	if len(locations) == 0 {
		return Reply{Messages: []string{templates.NoLocations}}, nil
	}

	idx, ok := parseSelection(text)
	if !ok || idx > len(locations) {
		if fresh {
			// Lazy creation: the greeting parks the customer at location
			// selection so the next message is treated as a pick.
			if err := e.store.Save(ctx, phone, state); err != nil {
				return Reply{}, err
			}
			return Reply{Messages: []string{templates.LocationList(locationOptions(locations))}}, nil
		}
		return Reply{Messages: []string{templates.LocationReprompt(locationOptions(locations))}}, nil
	}

	location := locations[idx-1]
	services, err := e.directory.ListServices(ctx, location.ID, true)
	if err != nil {
		return Reply{}, err
	}
	if len(services) == 0 {
		return Reply{Messages: []string{templates.NoServices(location.Name)}}, nil
	}

	state.LocationID = location.ID
	state.Step = StepChooseService
	if err := e.store.Save(ctx, phone, state); err != nil {
		return Reply{}, err
	}
	return Reply{Messages: []string{templates.ServiceList(serviceOptions(services))}}, nil
}

func (e *Engine) chooseService(ctx context.Context, phone string, state *State, text string) (Reply, error) {
	if state.LocationID == 0 {
		return e.restart(ctx, phone, templates.MissingData)
	}

	services, err := e.directory.ListServices(ctx, state.LocationID, true)
	if err != nil {
		return Reply{}, err
	}
	if len(services) == 0 {
		location, err := e.directory.GetLocation(ctx, state.LocationID)
		if err != nil {
			return Reply{}, err
		}
		return e.restart(ctx, phone, templates.NoServices(location.Name))
	}

	idx, ok := parseSelection(text)
	if !ok || idx > len(services) {
		return Reply{Messages: []string{
			templates.ServiceReprompt,
			templates.ServiceList(serviceOptions(services)),
		}}, nil
	}

	state.ServiceID = services[idx-1].ID
	state.Step = StepChooseDate
	if err := e.store.Save(ctx, phone, state); err != nil {
		return Reply{}, err
	}
	return Reply{Messages: []string{templates.DatePrompt}}, nil
}

func (e *Engine) chooseDate(ctx context.Context, phone string, state *State, text string) (Reply, error) {
	if state.LocationID == 0 || state.ServiceID == 0 {
		return e.restart(ctx, phone, templates.MissingData)
	}

	date, ok := parseDate(text)
	if !ok {
		return Reply{Messages: []string{templates.DateFormatError}}, nil
	}
	if e.beforeToday(date) {
		return Reply{Messages: []string{templates.DateInPast}}, nil
	}

	slots, err := e.slots.AvailableSlots(ctx, state.LocationID, text)
	if err != nil {
		return Reply{}, err
	}
	if len(slots) == 0 {
		// Normal retry path, not an error: the date is not stored and the
		// step stays at date selection.
		return Reply{Messages: []string{templates.NoSlots}}, nil
	}

	state.Date = text
	state.Step = StepChooseTime
	if err := e.store.Save(ctx, phone, state); err != nil {
		return Reply{}, err
	}
	return Reply{Messages: []string{templates.SlotList(slotOptions(slots))}}, nil
}

func (e *Engine) chooseTime(ctx context.Context, phone string, state *State, text string) (Reply, error) {
	if state.LocationID == 0 || state.ServiceID == 0 || state.Date == "" {
		return e.restart(ctx, phone, templates.MissingData)
	}

	// Never trust the list the customer saw: availability may have changed
	// since, so recompute before validating the index.
	slots, err := e.slots.AvailableSlots(ctx, state.LocationID, state.Date)
	if err != nil {
		return Reply{}, err
	}
	if len(slots) == 0 {
		state.Date = ""
		state.Step = StepChooseDate
		if err := e.store.Save(ctx, phone, state); err != nil {
			return Reply{}, err
		}
		return Reply{Messages: []string{templates.NoSlots, templates.DatePrompt}}, nil
	}

	idx, ok := parseSelection(text)
	if !ok || idx > len(slots) {
		return Reply{Messages: []string{
			templates.SlotReprompt,
			templates.SlotList(slotOptions(slots)),
		}}, nil
	}

	state.TimeSlot = slots[idx-1]
	state.Step = StepConfirmBooking
	if err := e.store.Save(ctx, phone, state); err != nil {
		return Reply{}, err
	}
	return e.confirm(ctx, phone, state)
}

func (e *Engine) confirm(ctx context.Context, phone string, state *State) (Reply, error) {
	location, err := e.directory.GetLocation(ctx, state.LocationID)
	if err != nil {
		return Reply{}, err
	}
	service, err := e.directory.GetService(ctx, state.ServiceID)
	if err != nil {
		return Reply{}, err
	}

	result, err := e.confirmer.Confirm(ctx, bookings.ConfirmRequest{
		CustomerPhone: phone,
		Location:      *location,
		Service:       *service,
		Date:          state.Date,
		TimeSlot:      state.TimeSlot,
	})
	if err != nil {
		return Reply{}, err
	}

	state.Step = StepCompleted
	if err := e.store.Save(ctx, phone, state); err != nil {
		return Reply{}, err
	}

	e.logger.Info("dialogue completed",
		"phone", phone,
		"booking_id", result.Booking.ID,
		"location_id", state.LocationID,
		"service_id", state.ServiceID,
	)
	return Reply{Messages: result.Messages}, nil
}

// restart clears the customer's state and greets again with the location
// list. lead, when set, is sent first to explain why the dialogue reset.
func (e *Engine) restart(ctx context.Context, phone, lead string) (Reply, error) {
	if err := e.store.Reset(ctx, phone); err != nil {
		return Reply{}, err
	}
	locations, err := e.directory.ListLocations(ctx, true)
	if err != nil {
		return Reply{}, err
	}

	var messages []string
	if lead != "" {
		messages = append(messages, lead)
	}
	if len(locations) == 0 {
		messages = append(messages, templates.NoLocations)
	} else {
		messages = append(messages, templates.LocationList(locationOptions(locations)))
	}
	return Reply{Messages: messages}, nil
}

func (e *Engine) beforeToday(date time.Time) bool {
	now := e.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return date.Before(today)
}

// parseSelection reads a 1-based option number from the customer's text.
func parseSelection(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// parseDate accepts strict "YYYY-MM-DD" real calendar dates.
func parseDate(text string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", text)
	if err != nil || t.Format("2006-01-02") != text {
		return time.Time{}, false
	}
	return t, true
}

func locationOptions(locations []catalog.Location) []templates.Option {
	options := make([]templates.Option, 0, len(locations))
	for _, l := range locations {
		options = append(options, templates.Option{Label: l.Name})
	}
	return options
}

func serviceOptions(services []catalog.Service) []templates.Option {
	options := make([]templates.Option, 0, len(services))
	for _, s := range services {
		options = append(options, templates.ServiceOption(s.Name, s.PriceCents))
	}
	return options
}

func slotOptions(slots []string) []templates.Option {
	options := make([]templates.Option, 0, len(slots))
	for _, s := range slots {
		options = append(options, templates.Option{Label: s})
	}
	return options
}

package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pulse/internal/metrics"
)

// Action events published after the backend accepted a change.
const (
	EventUserLoggedIn       = "user_logged_in"
	EventUserRegistered     = "user_registered"
	EventProfileUpdated     = "profile_updated"
	EventBookingCreated     = "booking_created"
	EventBookingCanceled    = "booking_canceled"
	EventEventCreated       = "event_created"
	EventEventUpdated       = "event_updated"
	EventEventStatusChanged = "event_status_changed"
	EventEventCanceled      = "event_canceled"
	EventUserStatusChanged  = "user_status_changed"
	EventUserRoleChanged    = "user_role_changed"
	EventReportCreated      = "report_created"
	EventReportResolved     = "report_resolved"
)

// AllTypes lists every action event type.
var AllTypes = []string{
	EventUserLoggedIn, EventUserRegistered, EventProfileUpdated,
	EventBookingCreated, EventBookingCanceled,
	EventEventCreated, EventEventUpdated, EventEventStatusChanged, EventEventCanceled,
	EventUserStatusChanged, EventUserRoleChanged,
	EventReportCreated, EventReportResolved,
}

// ActionPayload describes who changed what.
type ActionPayload struct {
	ActorID  string `json:"actor_id,omitempty"`
	EntityID string `json:"entity_id,omitempty"`
	Status   string `json:"status,omitempty"`
	Units    int    `json:"units,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run
// synchronously on the caller's goroutine.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}

// SubscribeAudit counts every action event and writes it to the audit log.
func SubscribeAudit(b *EventBus, logger *zerolog.Logger) {
	audit := logger.With().Str("component", "audit").Logger()
	for _, t := range AllTypes {
		b.Subscribe(t, func(event *Event) error {
			metrics.IncEvent(event.Type)
			audit.Info().
				Str("event", event.Type).
				RawJSON("payload", event.Payload).
				Time("at", event.CreatedAt).
				Msg("action")
			return nil
		})
	}
}

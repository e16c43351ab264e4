// Package events defines the event model re-emitted through the event hub.
package events

import (
	"encoding/json"
	"time"
)

// EventType identifies an event on the hub. Inbound wire events keep their
// wire name verbatim; locally generated events use the constants below.
type EventType string

const (
	// EventTypeConnectionState is published on every connection state
	// transition so the UI can render a "reconnecting" indicator.
	EventTypeConnectionState EventType = "connection_state"
)

// Event is the base interface for everything published on the hub.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"event"`
	EventTime time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type and payload.
func NewEvent(eventType EventType, payload any) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewWireEvent wraps an inbound wire frame without interpreting its payload.
func NewWireEvent(name string, payload json.RawMessage) *BaseEvent {
	return &BaseEvent{
		EventType: EventType(name),
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// ConnectionStatePayload is the payload of connection_state events.
type ConnectionStatePayload struct {
	State    string `json:"state"`
	DriverID string `json:"driver_id,omitempty"`
}

// NewConnectionStateEvent creates a connection_state event.
func NewConnectionStateEvent(state, driverID string) *BaseEvent {
	return NewEvent(EventTypeConnectionState, ConnectionStatePayload{
		State:    state,
		DriverID: driverID,
	})
}

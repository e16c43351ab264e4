// Package protocol defines the closed set of wire verbs and payload shapes
// exchanged with the dispatch backend, plus the queue-key derivation used to
// collapse repeated updates of the same logical fact.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Verb is a named event on the persistent connection. Outbound verbs form a
// closed set so producers and the demultiplexer cannot drift on string
// literals.
type Verb string

const (
	VerbPresenceJoin  Verb = "driver:online"
	VerbLocation      Verb = "driver:location"
	VerbLocationBatch Verb = "driver:location_batch"
	VerbHeartbeat     Verb = "driver:heartbeat"
	VerbRideJoin      Verb = "ride:subscribe"
	VerbRideLeave     Verb = "ride:unsubscribe"
)

// Credentials authenticate one driver session. The token is opaque and is
// attached to the transport handshake, never sent in-band.
type Credentials struct {
	DriverID string
	Token    string
}

// Envelope carries per-message metadata on every outbound frame.
type Envelope struct {
	MessageID string    `json:"message_id"`
	SentAt    time.Time `json:"sent_at"`
}

// NewEnvelope stamps a fresh message id and client timestamp.
func NewEnvelope() Envelope {
	return Envelope{
		MessageID: uuid.New().String(),
		SentAt:    time.Now().UTC(),
	}
}

// Frame is one outbound message: a verb plus its payload.
type Frame struct {
	Event   Verb `json:"event"`
	Payload any  `json:"payload,omitempty"`
}

// InboundFrame is one inbound message. The payload stays raw; it is
// re-emitted verbatim through the event hub.
type InboundFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LocationPoint is a single GPS fix handed over by the location sampler.
type LocationPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   float64   `json:"heading,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PresencePayload declares the driver online after a (re)connect.
type PresencePayload struct {
	DriverID string `json:"driver_id"`
	Envelope
}

// LocationPayload is a single foreground location update.
type LocationPayload struct {
	DriverID  string    `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Heading   float64   `json:"heading,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// LocationBatchPayload is a buffered batch flushed after backgrounding.
type LocationBatchPayload struct {
	DriverID  string          `json:"driver_id"`
	Points    []LocationPoint `json:"points"`
	BookingID string          `json:"booking_id,omitempty"`
	Envelope
}

// RidePayload subscribes to or unsubscribes from one ride room.
type RidePayload struct {
	RideID string `json:"ride_id"`
	Envelope
}

// HeartbeatPayload asserts liveness while connected.
type HeartbeatPayload struct {
	DriverID  string    `json:"driver_id"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// idFields are payload fields tried, in order, when deriving a default
// queue key for a generic send.
var idFields = []string{"ride_id", "booking_id", "driver_id", "id"}

// DeriveKey builds the deduplication key for a frame: the verb plus the
// first id-like field found on the payload, or the verb alone for singleton
// facts like presence.
func DeriveKey(verb Verb, payload any) string {
	raw, err := json.Marshal(payload)
	if err != nil {
		return string(verb)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return string(verb)
	}

	for _, name := range idFields {
		v, ok := fields[name]
		if !ok {
			continue
		}
		var id string
		if err := json.Unmarshal(v, &id); err == nil && id != "" {
			return string(verb) + ":" + id
		}
	}
	return string(verb)
}

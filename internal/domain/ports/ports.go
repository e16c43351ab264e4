// Package ports defines the interfaces between the sync core and its
// collaborators. The connection manager owns the only Transport handle;
// everything else sees effects through these interfaces.
package ports

import (
	"context"

	"github.com/gowrishetty09/driverlink/internal/domain/events"
	"github.com/gowrishetty09/driverlink/internal/protocol"
)

// Subscriber receives events fanned out by the event hub.
type Subscriber interface {
	// ID returns the subscriber's unique identifier.
	ID() string

	// Send delivers an event to the subscriber. It must not block.
	Send(event events.Event) error

	// Close releases the subscriber.
	Close() error

	// Done returns a channel that's closed when the subscriber is done.
	Done() <-chan struct{}
}

// EventHub is the publish/subscribe registry external collaborators use to
// observe inbound wire events and connection-state changes.
type EventHub interface {
	Publish(event events.Event)
	Subscribe(sub Subscriber)
	Unsubscribe(id string)
}

// Transport is a single open bidirectional session with the backend.
type Transport interface {
	// Send writes one frame to the wire in call order.
	Send(frame protocol.Frame) error

	// Close tears the session down. Safe to call more than once.
	Close() error
}

// TransportHandler receives transport-level events for one session. The
// transport calls it from its read goroutine, never from inside Send or
// Close, and delivers the terminal close at most once.
type TransportHandler interface {
	// HandleFrame is called for every inbound frame.
	HandleFrame(frame protocol.InboundFrame)

	// HandleClosed is called once when the session ends, with the error
	// that ended it (nil on clean close).
	HandleClosed(err error)
}

// Dialer opens transports. The handshake is asynchronous from the caller's
// point of view; Dial may block until the handshake is acknowledged.
type Dialer interface {
	Dial(ctx context.Context, endpoint string, creds protocol.Credentials, h TransportHandler) (Transport, error)
}

// Package testutil provides shared test fakes for driverlink tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/gowrishetty09/driverlink/internal/domain"
	"github.com/gowrishetty09/driverlink/internal/domain/events"
	"github.com/gowrishetty09/driverlink/internal/domain/ports"
	"github.com/gowrishetty09/driverlink/internal/protocol"
)

// ErrDialRefused is returned by a FakeDialer configured to fail.
var ErrDialRefused = errors.New("dial refused")

// FakeTransport implements ports.Transport and records every frame sent.
type FakeTransport struct {
	mu      sync.Mutex
	frames  []protocol.Frame
	sendErr error
	closed  bool
	handler ports.TransportHandler
}

// Send records the frame or returns the configured error.
func (t *FakeTransport) Send(frame protocol.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return domain.ErrTransportClosed
	}
	if t.sendErr != nil {
		return t.sendErr
	}
	t.frames = append(t.frames, frame)
	return nil
}

// Close marks the transport closed. It never invokes the handler; use
// DropConnection to simulate a remote close.
func (t *FakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Frames returns a copy of everything sent so far.
func (t *FakeTransport) Frames() []protocol.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// FrameCount returns the number of frames sent.
func (t *FakeTransport) FrameCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

// Events returns the verbs of all sent frames, in order.
func (t *FakeTransport) Events() []protocol.Verb {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]protocol.Verb, 0, len(t.frames))
	for _, f := range t.frames {
		out = append(out, f.Event)
	}
	return out
}

// ClearFrames forgets recorded frames.
func (t *FakeTransport) ClearFrames() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = nil
}

// SetSendError makes subsequent sends fail.
func (t *FakeTransport) SetSendError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sendErr = err
}

// IsClosed reports whether Close was called.
func (t *FakeTransport) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// DropConnection simulates the backend dropping the session.
func (t *FakeTransport) DropConnection(err error) {
	t.mu.Lock()
	h := t.handler
	t.closed = true
	t.mu.Unlock()
	if h != nil {
		h.HandleClosed(err)
	}
}

// DeliverFrame simulates an inbound wire event.
func (t *FakeTransport) DeliverFrame(frame protocol.InboundFrame) {
	t.mu.Lock()
	h := t.handler
	t.mu.Unlock()
	if h != nil {
		h.HandleFrame(frame)
	}
}

// FakeDialer implements ports.Dialer. Each successful Dial hands out a
// fresh FakeTransport.
type FakeDialer struct {
	mu         sync.Mutex
	dials      int
	failNext   int  // fail this many dials before succeeding
	failAlways bool // fail every dial
	transports []*FakeTransport
}

// Dial returns a new FakeTransport, or ErrDialRefused when configured to
// fail.
func (d *FakeDialer) Dial(ctx context.Context, endpoint string, creds protocol.Credentials, h ports.TransportHandler) (ports.Transport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.failAlways || d.failNext > 0 {
		if d.failNext > 0 {
			d.failNext--
		}
		return nil, ErrDialRefused
	}
	t := &FakeTransport{handler: h}
	d.transports = append(d.transports, t)
	return t, nil
}

// DialCount returns how many times Dial was called.
func (d *FakeDialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// FailNext makes the next n dials fail.
func (d *FakeDialer) FailNext(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = n
}

// FailAlways makes every dial fail until cleared.
func (d *FakeDialer) FailAlways(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failAlways = fail
}

// LastTransport returns the most recently dialed transport, or nil.
func (d *FakeDialer) LastTransport() *FakeTransport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// TransportCount returns how many transports were handed out.
func (d *FakeDialer) TransportCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// MockSubscriber implements ports.Subscriber for testing.
type MockSubscriber struct {
	id      string
	events  []events.Event
	mu      sync.Mutex
	closed  bool
	sendErr error
	done    chan struct{}
}

// NewMockSubscriber creates a new mock subscriber.
func NewMockSubscriber(id string) *MockSubscriber {
	return &MockSubscriber{
		id:     id,
		events: make([]events.Event, 0),
		done:   make(chan struct{}),
	}
}

// ID returns the subscriber ID.
func (m *MockSubscriber) ID() string {
	return m.id
}

// Send records the event and returns any configured error.
func (m *MockSubscriber) Send(e events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.events = append(m.events, e)
	return nil
}

// Close marks the subscriber as closed.
func (m *MockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
	return nil
}

// Done returns a channel that's closed when the subscriber is done.
func (m *MockSubscriber) Done() <-chan struct{} {
	return m.done
}

// Events returns all received events.
func (m *MockSubscriber) Events() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]events.Event, len(m.events))
	copy(result, m.events)
	return result
}

// EventCount returns the number of received events.
func (m *MockSubscriber) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// IsClosed returns whether the subscriber was closed.
func (m *MockSubscriber) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SetSendError configures an error to return on Send.
func (m *MockSubscriber) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// MockEventHub implements ports.EventHub and records published events
// synchronously.
type MockEventHub struct {
	mu     sync.Mutex
	events []events.Event
}

// Publish records the event.
func (h *MockEventHub) Publish(e events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

// Subscribe is a no-op.
func (h *MockEventHub) Subscribe(sub ports.Subscriber) {}

// Unsubscribe is a no-op.
func (h *MockEventHub) Unsubscribe(id string) {}

// Published returns all recorded events.
func (h *MockEventHub) Published() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]events.Event, len(h.events))
	copy(result, h.events)
	return result
}

// PublishedTypes returns the types of all recorded events, in order.
func (h *MockEventHub) PublishedTypes() []events.EventType {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]events.EventType, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type())
	}
	return out
}

// Ensure the fakes satisfy their ports.
var (
	_ ports.Transport  = (*FakeTransport)(nil)
	_ ports.Dialer     = (*FakeDialer)(nil)
	_ ports.Subscriber = (*MockSubscriber)(nil)
	_ ports.EventHub   = (*MockEventHub)(nil)
)

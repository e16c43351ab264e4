package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gowrishetty09/driverlink/internal/domain"
	"github.com/gowrishetty09/driverlink/internal/domain/events"
	"github.com/gowrishetty09/driverlink/internal/domain/ports"
	"github.com/gowrishetty09/driverlink/internal/protocol"
)

// ConnectionState is the manager's view of the session. It is the only
// truth application code should read about reachability.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

const (
	// DefaultReconnectBaseDelay and DefaultReconnectMaxDelay shape the
	// exponential backoff: min(base * 2^attempt, max).
	DefaultReconnectBaseDelay = time.Second
	DefaultReconnectMaxDelay  = 5 * time.Second

	// DefaultReconnectMaxAttempts halts automatic reconnection; a manual
	// Connect resets the counter.
	DefaultReconnectMaxAttempts = 10

	// DefaultSendTTL is the queue lifetime for durable facts (presence,
	// ride joins, generic sends without an explicit TTL).
	DefaultSendTTL = 5 * time.Minute
)

// Config tunes the connection manager. Zero values fall back to defaults.
type Config struct {
	Endpoint string

	QueueCapacity int
	SendTTL       time.Duration

	HeartbeatInterval time.Duration
	HeartbeatTTL      time.Duration

	BatchInterval time.Duration
	BatchCapacity int

	ReconnectBaseDelay   time.Duration
	ReconnectMaxDelay    time.Duration
	ReconnectMaxAttempts int
}

func (c *Config) applyDefaults() {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.SendTTL <= 0 {
		c.SendTTL = DefaultSendTTL
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.HeartbeatTTL <= 0 {
		c.HeartbeatTTL = DefaultHeartbeatTTL
	}
	if c.BatchInterval <= 0 {
		c.BatchInterval = DefaultBatchInterval
	}
	if c.BatchCapacity <= 0 {
		c.BatchCapacity = DefaultBatchCapacity
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	if c.ReconnectMaxAttempts <= 0 {
		c.ReconnectMaxAttempts = DefaultReconnectMaxAttempts
	}
}

// SendOptions tunes a generic Send. An empty Key derives the default from
// the verb and any id-like payload field; a zero TTL uses the configured
// send TTL.
type SendOptions struct {
	Key string
	TTL time.Duration
}

// Manager owns the physical connection and composes the outbound queue,
// location batcher, room subscriptions, heartbeat and connectivity gate.
// It is the only component that touches the transport; all state
// transitions are serialized under one mutex, whether they arrive from
// application calls, timer callbacks or the transport read goroutine.
type Manager struct {
	mu sync.Mutex

	cfg    Config
	dialer ports.Dialer
	bus    ports.EventHub

	state         ConnectionState
	creds         protocol.Credentials
	wantConnected bool
	transport     ports.Transport

	// dialSeq identifies the current session; callbacks from stale dials
	// and torn-down transports carry an older value and are ignored.
	dialSeq uint64

	queue   *outboundQueue
	batcher *locationBatcher
	rooms   *roomSet
	gate    *connectivityGate
	hb      *heartbeat

	attempts       int
	reconnectTimer *time.Timer
	reconnectSeq   uint64

	activeBooking string
}

// New creates a dormant manager. Nothing happens until Connect is called.
func New(cfg Config, dialer ports.Dialer, bus ports.EventHub) *Manager {
	cfg.applyDefaults()

	m := &Manager{
		cfg:    cfg,
		dialer: dialer,
		bus:    bus,
		state:  StateDisconnected,
		queue:  newOutboundQueue(cfg.QueueCapacity),
		rooms:  newRoomSet(),
		gate:   newConnectivityGate(),
	}
	m.batcher = newLocationBatcher(cfg.BatchCapacity, cfg.BatchInterval, m.flushLocations)
	m.hb = newHeartbeat(cfg.HeartbeatInterval, m.emitHeartbeat)
	return m
}

// Connect authenticates and opens the transport. Idempotent when already
// connected with the same driver id. Missing credentials are the one loud
// failure: they indicate a programming error, not a network condition.
func (m *Manager) Connect(creds protocol.Credentials) error {
	if creds.DriverID == "" {
		return domain.ErrMissingDriverID
	}
	if creds.Token == "" {
		return domain.ErrMissingToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.wantConnected && m.state == StateConnected && m.creds.DriverID == creds.DriverID {
		return nil
	}

	m.creds = creds
	m.wantConnected = true
	m.attempts = 0
	m.cancelReconnectLocked()
	m.teardownTransportLocked()

	if !m.gate.ShouldBeConnected() {
		// Offline or backgrounded: hold the intent, the gate will dial
		// as soon as it opens.
		m.setStateLocked(StateDisconnected)
		return nil
	}

	m.startDialLocked()
	return nil
}

// Disconnect tears everything down: timers, queue, subscriptions and the
// transport. The instance is fully dormant afterwards.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.wantConnected = false
	m.cancelReconnectLocked()
	m.hb.Stop()
	m.batcher.Stop()
	m.queue.Clear()
	m.rooms.Clear()
	m.activeBooking = ""
	m.teardownTransportLocked()
	m.setStateLocked(StateDisconnected)
	log.Info().Msg("disconnected")
}

// IsConnected reports whether the session is established.
func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateConnected
}

// State returns the current connection state.
func (m *Manager) State() ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Send routes a frame through the accept-always path: delivered now when
// the session is up, queued otherwise. It never fails visibly.
func (m *Manager) Send(verb protocol.Verb, payload any, opts SendOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendOrQueueLocked(protocol.Frame{Event: verb, Payload: payload}, opts.Key, opts.TTL)
}

// SendLocation accepts one location fix. Backgrounded fixes are buffered
// for batching; foreground fixes go straight out, falling back to the
// buffer when the transport is down.
func (m *Manager) SendLocation(point protocol.LocationPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.batcher.InBackground() {
		m.batcher.Record(point)
		return
	}

	if !m.canSendLocked() {
		m.batcher.Record(point)
		return
	}

	payload := protocol.LocationPayload{
		DriverID:  m.creds.DriverID,
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Heading:   point.Heading,
		Speed:     point.Speed,
		BookingID: m.activeBooking,
		Timestamp: point.Timestamp,
		Envelope:  protocol.NewEnvelope(),
	}
	if err := m.transport.Send(protocol.Frame{Event: protocol.VerbLocation, Payload: payload}); err != nil {
		m.batcher.Record(point)
	}
}

// JoinRide records intent to receive live updates for a ride and sends the
// subscribe message. The intent survives reconnects until LeaveRide.
func (m *Manager) JoinRide(rideID string) {
	if rideID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms.Add(rideID)
	m.activeBooking = rideID
	m.sendOrQueueLocked(rideFrame(protocol.VerbRideJoin, rideID), rideKey(protocol.VerbRideJoin, rideID), m.cfg.SendTTL)
}

// LeaveRide removes the subscription intent and sends the unsubscribe.
func (m *Manager) LeaveRide(rideID string) {
	if rideID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rooms.Remove(rideID)
	if m.activeBooking == rideID {
		m.activeBooking = ""
	}
	m.sendOrQueueLocked(rideFrame(protocol.VerbRideLeave, rideID), rideKey(protocol.VerbRideLeave, rideID), m.cfg.SendTTL)
}

// Subscriptions returns the rides currently subscribed, in join order.
func (m *Manager) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms.Snapshot()
}

// SetOnline feeds the network-reachability signal into the gate.
func (m *Manager) SetOnline(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate.SetOnline(online) {
		log.Debug().Bool("online", online).Msg("reachability changed")
		m.applyGateLocked()
	}
}

// SetForeground feeds the application-lifecycle signal into the gate and
// flips the batcher in or out of background mode.
func (m *Manager) SetForeground(foregrounded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed := m.gate.SetForeground(foregrounded)
	if m.batcher.SetBackgroundMode(!foregrounded) {
		m.flushLocationsLocked()
	}
	if changed {
		log.Debug().Bool("foregrounded", foregrounded).Msg("app lifecycle changed")
		m.applyGateLocked()
	}
}

// QueueDepth returns the number of messages waiting in the outbound queue.
func (m *Manager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// BufferedPoints returns the number of location fixes waiting to be
// batched.
func (m *Manager) BufferedPoints() int {
	return m.batcher.Len()
}

// --- gate ---

func (m *Manager) applyGateLocked() {
	if !m.gate.ShouldBeConnected() {
		// Drop the session proactively rather than burn radio on a
		// connection the backend will drop anyway. Intent is kept.
		m.cancelReconnectLocked()
		if m.transport != nil || m.state != StateDisconnected {
			m.hb.Stop()
			m.teardownTransportLocked()
			m.setStateLocked(StateDisconnected)
			log.Info().Msg("connection gated off")
		}
		return
	}

	if m.wantConnected && m.state == StateDisconnected {
		// Deliberate state change, not a failure: dial immediately and
		// start the backoff ladder over.
		m.attempts = 0
		m.cancelReconnectLocked()
		m.startDialLocked()
	}
}

// --- dialing and session lifecycle ---

func (m *Manager) startDialLocked() {
	m.dialSeq++
	seq := m.dialSeq
	m.setStateLocked(StateConnecting)

	endpoint := m.cfg.Endpoint
	creds := m.creds
	log.Debug().Str("endpoint", endpoint).Uint64("session", seq).Msg("dialing")

	go func() {
		t, err := m.dialer.Dial(context.Background(), endpoint, creds, &sessionHandler{m: m, seq: seq})
		m.dialDone(seq, t, err)
	}()
}

func (m *Manager) dialDone(seq uint64, t ports.Transport, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.dialSeq || !m.wantConnected {
		// A teardown or newer dial superseded this attempt.
		if t != nil {
			_ = t.Close()
		}
		return
	}

	if err != nil {
		log.Warn().Err(err).Int("attempt", m.attempts).Msg("connect failed")
		m.setStateLocked(StateDisconnected)
		if m.gate.ShouldBeConnected() {
			m.scheduleReconnectLocked()
		}
		return
	}

	m.transport = t
	m.attempts = 0
	m.setStateLocked(StateConnected)
	log.Info().Str("driver_id", m.creds.DriverID).Msg("connected")

	// On entry: declare presence, replay room subscriptions, start the
	// heartbeat, then flush everything that accumulated while down.
	m.sendOrQueueLocked(m.presenceFrame(), "", m.cfg.SendTTL)
	for _, rideID := range m.rooms.Snapshot() {
		m.sendOrQueueLocked(rideFrame(protocol.VerbRideJoin, rideID), rideKey(protocol.VerbRideJoin, rideID), m.cfg.SendTTL)
	}
	m.hb.Start()
	m.flushQueueLocked()
	m.flushLocationsLocked()
}

func (m *Manager) handleFrame(seq uint64, frame protocol.InboundFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq != m.dialSeq {
		return
	}
	if m.bus != nil {
		m.bus.Publish(events.NewWireEvent(frame.Event, frame.Payload))
	}
}

func (m *Manager) handleClosed(seq uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.dialSeq {
		return
	}
	log.Warn().Err(err).Msg("connection lost")

	m.teardownTransportLocked()
	m.hb.Stop()
	m.setStateLocked(StateDisconnected)

	if m.wantConnected && m.gate.ShouldBeConnected() {
		m.scheduleReconnectLocked()
	}
}

func (m *Manager) teardownTransportLocked() {
	m.dialSeq++
	if m.transport != nil {
		t := m.transport
		m.transport = nil
		_ = t.Close()
	}
}

func (m *Manager) setStateLocked(state ConnectionState) {
	if m.state == state {
		return
	}
	m.state = state
	if m.bus != nil {
		m.bus.Publish(events.NewConnectionStateEvent(string(state), m.creds.DriverID))
	}
}

// --- reconnection ---

// reconnectDelay returns the backoff delay for a 0-indexed attempt:
// min(base * 2^attempt, max).
func reconnectDelay(attempt int, base, max time.Duration) time.Duration {
	if attempt > 30 {
		return max
	}
	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}

func (m *Manager) scheduleReconnectLocked() {
	if m.attempts >= m.cfg.ReconnectMaxAttempts {
		log.Warn().Int("attempts", m.attempts).Msg("reconnect attempts exhausted")
		return
	}

	delay := reconnectDelay(m.attempts, m.cfg.ReconnectBaseDelay, m.cfg.ReconnectMaxDelay)
	m.attempts++

	m.cancelReconnectLocked()
	seq := m.reconnectSeq
	m.reconnectTimer = time.AfterFunc(delay, func() { m.reconnectFired(seq) })
	log.Debug().Dur("delay", delay).Int("attempt", m.attempts).Msg("reconnect scheduled")
}

func (m *Manager) cancelReconnectLocked() {
	m.reconnectSeq++
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

func (m *Manager) reconnectFired(seq uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if seq != m.reconnectSeq || !m.wantConnected || !m.gate.ShouldBeConnected() {
		return
	}
	if m.state != StateDisconnected {
		return
	}
	m.reconnectTimer = nil
	m.startDialLocked()
}

// --- sending ---

func (m *Manager) canSendLocked() bool {
	return m.state == StateConnected && m.transport != nil && m.gate.ShouldBeConnected()
}

func (m *Manager) sendOrQueueLocked(frame protocol.Frame, key string, ttl time.Duration) {
	if key == "" {
		key = protocol.DeriveKey(frame.Event, frame.Payload)
	}
	if ttl <= 0 {
		ttl = m.cfg.SendTTL
	}
	if !m.canSendLocked() {
		m.queue.Enqueue(key, frame, ttl)
		return
	}
	if err := m.transport.Send(frame); err != nil {
		// Write rejected: the connection is likely going down. Keep the
		// message; the close handler drives the state machine.
		m.queue.Enqueue(key, frame, ttl)
		return
	}
	// A delivered fact supersedes any older queued payload for its key.
	m.queue.Remove(key)
}

func (m *Manager) flushQueueLocked() {
	if !m.canSendLocked() {
		return
	}
	m.queue.Flush(m.transport.Send)
}

// flushLocations is the batch timer entry point.
func (m *Manager) flushLocations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushLocationsLocked()
}

func (m *Manager) flushLocationsLocked() {
	if !m.canSendLocked() {
		return
	}
	points := m.batcher.Drain()
	if len(points) == 0 {
		return
	}

	payload := protocol.LocationBatchPayload{
		DriverID:  m.creds.DriverID,
		Points:    points,
		BookingID: m.activeBooking,
		Envelope:  protocol.NewEnvelope(),
	}
	if err := m.transport.Send(protocol.Frame{Event: protocol.VerbLocationBatch, Payload: payload}); err != nil {
		m.batcher.Requeue(points)
		return
	}
	log.Debug().Int("points", len(points)).Msg("flushed location batch")
}

func (m *Manager) emitHeartbeat() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.wantConnected {
		return
	}
	payload := protocol.HeartbeatPayload{
		DriverID:  m.creds.DriverID,
		Timestamp: time.Now().UTC(),
		Envelope:  protocol.NewEnvelope(),
	}
	key := string(protocol.VerbHeartbeat) + ":" + m.creds.DriverID
	m.sendOrQueueLocked(protocol.Frame{Event: protocol.VerbHeartbeat, Payload: payload}, key, m.cfg.HeartbeatTTL)
}

func (m *Manager) presenceFrame() protocol.Frame {
	return protocol.Frame{
		Event: protocol.VerbPresenceJoin,
		Payload: protocol.PresencePayload{
			DriverID: m.creds.DriverID,
			Envelope: protocol.NewEnvelope(),
		},
	}
}

func rideFrame(verb protocol.Verb, rideID string) protocol.Frame {
	return protocol.Frame{
		Event: verb,
		Payload: protocol.RidePayload{
			RideID:   rideID,
			Envelope: protocol.NewEnvelope(),
		},
	}
}

func rideKey(verb protocol.Verb, rideID string) string {
	return string(verb) + ":" + rideID
}

// sessionHandler forwards transport callbacks for one session; the
// embedded sequence number lets the manager ignore a stale transport that
// fires after replacement.
type sessionHandler struct {
	m   *Manager
	seq uint64
}

func (h *sessionHandler) HandleFrame(frame protocol.InboundFrame) {
	h.m.handleFrame(h.seq, frame)
}

func (h *sessionHandler) HandleClosed(err error) {
	h.m.handleClosed(h.seq, err)
}

package realtime

import (
	"time"
)

const (
	// DefaultHeartbeatInterval is how often liveness is asserted while
	// connected.
	DefaultHeartbeatInterval = 10 * time.Second

	// DefaultHeartbeatTTL keeps at most one heartbeat alive in the queue
	// across a short connectivity gap.
	DefaultHeartbeatTTL = 45 * time.Second
)

// heartbeat emits a liveness message on a fixed interval. Emission goes
// through the manager's accept-always send path with a driver-scoped key,
// so a briefly-down connection queues one heartbeat at most.
type heartbeat struct {
	interval time.Duration
	emit     func()
	ticker   *time.Ticker
	stop     chan struct{}
}

func newHeartbeat(interval time.Duration, emit func()) *heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &heartbeat{interval: interval, emit: emit}
}

// Start begins periodic emission. No-op if already running.
func (h *heartbeat) Start() {
	if h.ticker != nil {
		return
	}
	h.ticker = time.NewTicker(h.interval)
	h.stop = make(chan struct{})
	go h.loop(h.ticker, h.stop)
}

// Stop cancels emission. No-op if not running.
func (h *heartbeat) Stop() {
	if h.ticker == nil {
		return
	}
	h.ticker.Stop()
	close(h.stop)
	h.ticker = nil
	h.stop = nil
}

// Running reports whether the emitter is active.
func (h *heartbeat) Running() bool {
	return h.ticker != nil
}

func (h *heartbeat) loop(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			h.emit()
		}
	}
}

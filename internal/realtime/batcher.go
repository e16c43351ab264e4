package realtime

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gowrishetty09/driverlink/internal/protocol"
)

const (
	// DefaultBatchCapacity bounds buffered points; the oldest point is
	// dropped on overflow.
	DefaultBatchCapacity = 100

	// DefaultBatchInterval is the background flush cadence.
	DefaultBatchInterval = 5 * time.Second
)

// locationBatcher buffers location samples while the app is backgrounded
// and flushes them as a single batch, trading update latency for radio
// efficiency when the screen is off. The flush callback is supplied by the
// connection manager; the batcher never touches the transport itself.
type locationBatcher struct {
	mu         sync.Mutex
	capacity   int
	interval   time.Duration
	points     []protocol.LocationPoint
	background bool
	ticker     *time.Ticker
	stop       chan struct{}
	flushFn    func()
}

func newLocationBatcher(capacity int, interval time.Duration, flushFn func()) *locationBatcher {
	if capacity <= 0 {
		capacity = DefaultBatchCapacity
	}
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	return &locationBatcher{
		capacity: capacity,
		interval: interval,
		flushFn:  flushFn,
	}
}

// SetBackgroundMode flips the batcher between buffering and pass-through.
// Entering background starts the periodic flush timer; leaving background
// stops it. Returns true when the caller should flush the buffer
// immediately (the background→foreground transition); the flush itself is
// the owner's job so it happens under the owner's connection state.
func (b *locationBatcher) SetBackgroundMode(background bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.background == background {
		return false
	}
	b.background = background

	if background {
		b.startTimerLocked()
		log.Debug().Msg("location batcher entering background mode")
		return false
	}

	b.stopTimerLocked()
	log.Debug().Msg("location batcher leaving background mode")
	return true
}

// InBackground reports whether the batcher is currently buffering.
func (b *locationBatcher) InBackground() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.background
}

// Record appends a point to the buffer, dropping the oldest on overflow.
func (b *locationBatcher) Record(point protocol.LocationPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.points) >= b.capacity {
		b.points = b.points[1:]
	}
	b.points = append(b.points, point)
}

// Drain removes and returns all buffered points in record order.
func (b *locationBatcher) Drain() []protocol.LocationPoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	points := b.points
	b.points = nil
	return points
}

// Requeue puts points back at the front of the buffer after a failed send.
func (b *locationBatcher) Requeue(points []protocol.LocationPoint) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.points = append(points, b.points...)
	if overflow := len(b.points) - b.capacity; overflow > 0 {
		b.points = b.points[overflow:]
	}
}

// Len returns the number of buffered points.
func (b *locationBatcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

// Stop cancels the flush timer and clears the buffer.
func (b *locationBatcher) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.background = false
	b.points = nil
}

func (b *locationBatcher) startTimerLocked() {
	if b.ticker != nil {
		return
	}
	b.ticker = time.NewTicker(b.interval)
	b.stop = make(chan struct{})
	go b.flushLoop(b.ticker, b.stop)
}

func (b *locationBatcher) stopTimerLocked() {
	if b.ticker == nil {
		return
	}
	b.ticker.Stop()
	close(b.stop)
	b.ticker = nil
	b.stop = nil
}

func (b *locationBatcher) flushLoop(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.flushFn()
		}
	}
}

// Package realtime implements the realtime synchronization core: the connection
// manager and the components it composes (outbound queue, location batcher,
// room subscriptions, heartbeat, connectivity gate).
package realtime

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gowrishetty09/driverlink/internal/protocol"
)

const (
	// DefaultQueueCapacity bounds the number of queued messages while
	// offline.
	DefaultQueueCapacity = 250

	// minQueueTTL is the floor applied to caller-supplied TTLs.
	minQueueTTL = time.Second
)

type queuedMessage struct {
	key       string
	frame     protocol.Frame
	expiresAt time.Time
}

// outboundQueue holds not-yet-sent frames while the connection is down.
// At most one entry exists per key: re-enqueueing a key replaces the payload
// and refreshes the expiry but keeps the original insertion position, so
// bounded eviction always drops the oldest fact first.
type outboundQueue struct {
	capacity int
	entries  map[string]*queuedMessage
	order    []string // keys, oldest insertion first
	now      func() time.Time
}

func newOutboundQueue(capacity int) *outboundQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &outboundQueue{
		capacity: capacity,
		entries:  make(map[string]*queuedMessage),
		now:      time.Now,
	}
}

// Enqueue inserts or replaces the entry for key. TTLs below one second are
// clamped up; a replacement refreshes expiry without moving the entry's
// eviction position.
func (q *outboundQueue) Enqueue(key string, frame protocol.Frame, ttl time.Duration) {
	if key == "" {
		key = protocol.DeriveKey(frame.Event, frame.Payload)
	}
	if ttl < minQueueTTL {
		ttl = minQueueTTL
	}
	expiresAt := q.now().Add(ttl)

	if existing, ok := q.entries[key]; ok {
		existing.frame = frame
		existing.expiresAt = expiresAt
		return
	}

	q.entries[key] = &queuedMessage{key: key, frame: frame, expiresAt: expiresAt}
	q.order = append(q.order, key)

	if len(q.order) > q.capacity {
		oldest := q.order[0]
		q.order = q.order[1:]
		delete(q.entries, oldest)
		log.Debug().Str("key", oldest).Msg("outbound queue full, evicted oldest entry")
	}
}

// Flush sends entries in original insertion order through send. Expired
// entries are discarded without being sent. Iteration stops at the first
// send failure, leaving the remainder queued: a failure usually means the
// connection just dropped and further sends would fail too.
func (q *outboundQueue) Flush(send func(protocol.Frame) error) {
	now := q.now()
	for len(q.order) > 0 {
		key := q.order[0]
		msg, ok := q.entries[key]
		if !ok {
			q.order = q.order[1:]
			continue
		}

		if now.After(msg.expiresAt) {
			q.order = q.order[1:]
			delete(q.entries, key)
			log.Debug().Str("key", key).Msg("discarded expired queued message")
			continue
		}

		if err := send(msg.frame); err != nil {
			log.Debug().Str("key", key).Err(err).Msg("queue flush interrupted")
			return
		}
		q.order = q.order[1:]
		delete(q.entries, key)
	}
}

// Remove drops the entry for key, if any. A successful live send of a key
// supersedes whatever older payload was still queued under it.
func (q *outboundQueue) Remove(key string) {
	if _, ok := q.entries[key]; !ok {
		return
	}
	delete(q.entries, key)
	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of queued entries.
func (q *outboundQueue) Len() int {
	return len(q.entries)
}

// Clear drops everything.
func (q *outboundQueue) Clear() {
	q.entries = make(map[string]*queuedMessage)
	q.order = nil
}

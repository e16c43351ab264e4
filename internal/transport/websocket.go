// Package transport provides the gorilla/websocket implementation of the
// dialer and transport ports.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gowrishetty09/driverlink/internal/domain"
	"github.com/gowrishetty09/driverlink/internal/domain/ports"
	"github.com/gowrishetty09/driverlink/internal/protocol"
)

const (
	// Default timeouts for WebSocket operations.
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 15 * time.Second

	// Default maximum message size (512KB).
	DefaultMaxMessageSize = 512 * 1024

	// Ping interval for keepalive. This is transport-level liveness,
	// independent of the protocol heartbeat.
	DefaultPingInterval = 30 * time.Second
	DefaultPongTimeout  = 60 * time.Second
)

// WebSocketDialer opens authenticated WebSocket sessions to the dispatch
// backend. The bearer token and driver id travel in the handshake request
// headers, never in-band.
type WebSocketDialer struct {
	handshakeTimeout time.Duration
}

// NewWebSocketDialer creates a dialer with default timeouts.
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{handshakeTimeout: DefaultHandshakeTimeout}
}

// Dial opens the connection and starts the read loop. The returned
// transport is live: h receives frames from this point on.
func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string, creds protocol.Credentials, h ports.TransportHandler) (ports.Transport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.handshakeTimeout,
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+creds.Token)
	header.Set("X-Driver-ID", creds.DriverID)

	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	t := &WebSocketTransport{
		id:           uuid.New().String(),
		conn:         conn,
		writeTimeout: DefaultWriteTimeout,
		done:         make(chan struct{}),
	}

	conn.SetReadLimit(DefaultMaxMessageSize)
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(DefaultPongTimeout))
		return nil
	})
	_ = conn.SetReadDeadline(time.Now().Add(DefaultPongTimeout))

	go t.pingLoop()
	go t.readLoop(h)

	return t, nil
}

// WebSocketTransport implements ports.Transport over a WebSocket
// connection.
type WebSocketTransport struct {
	id   string
	conn *websocket.Conn

	writeTimeout time.Duration

	done   chan struct{}
	mu     sync.Mutex
	closed bool
}

// ID returns the unique identifier for this transport.
func (t *WebSocketTransport) ID() string {
	return t.id
}

// Send writes one frame as a JSON text message.
func (t *WebSocketTransport) Send(frame protocol.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return domain.ErrTransportClosed
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	return t.conn.WriteJSON(frame)
}

// Close closes the WebSocket connection. Safe to call more than once.
func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)

	// Send close frame before closing
	_ = t.conn.SetWriteDeadline(time.Now().Add(time.Second))
	_ = t.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

	return t.conn.Close()
}

// Done returns a channel that's closed when the transport is closed.
func (t *WebSocketTransport) Done() <-chan struct{} {
	return t.done
}

// readLoop decodes inbound frames and hands them to the session handler.
// The terminal close is delivered exactly once.
func (t *WebSocketTransport) readLoop(h ports.TransportHandler) {
	for {
		_, message, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = io.EOF
			}
			select {
			case <-t.done:
				// Local close; report a clean end.
				h.HandleClosed(nil)
			default:
				h.HandleClosed(err)
			}
			return
		}

		var frame protocol.InboundFrame
		if err := json.Unmarshal(message, &frame); err != nil {
			log.Warn().Err(err).Msg("dropping malformed inbound frame")
			continue
		}
		if frame.Event == "" {
			continue
		}
		h.HandleFrame(frame)
	}
}

// pingLoop sends periodic pings to keep the connection alive.
func (t *WebSocketTransport) pingLoop() {
	ticker := time.NewTicker(DefaultPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.closed {
				t.mu.Unlock()
				return
			}
			_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.mu.Unlock()
				return
			}
			t.mu.Unlock()
		}
	}
}

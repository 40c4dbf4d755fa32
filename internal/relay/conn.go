package relay

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Conn is one client's live channel into a session. Its identity and
// session id are fixed at accept time. All socket writes go through the
// write pump; Enqueue is the only way to send.
type Conn struct {
	id           string
	sessionID    string
	ws           *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	logger       zerolog.Logger

	mu     sync.Mutex
	closed bool
}

func newConn(ws *websocket.Conn, sessionID string, queueSize int, writeTimeout time.Duration, logger zerolog.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:           id,
		sessionID:    sessionID,
		ws:           ws,
		send:         make(chan []byte, queueSize),
		writeTimeout: writeTimeout,
		logger:       logger.With().Str("conn", id).Str("session", sessionID).Logger(),
	}
}

// ID uniquely identifies the connection.
func (c *Conn) ID() string { return c.id }

// SessionID is the session this connection belongs to.
func (c *Conn) SessionID() string { return c.sessionID }

// Open reports whether the connection still accepts frames.
func (c *Conn) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Enqueue hands payload to the write pump without blocking. It reports
// false when the connection is closed or its queue is full.
func (c *Conn) Enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops accepting frames. The write pump flushes what is already
// queued, then sends a close frame and closes the socket. Safe to call
// more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

// writePump is the sole writer on the socket. It drains the send queue
// and keeps the peer alive with pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Package ws is the WebSocket transport: it upgrades HTTP requests, pumps
// frames in and out and bridges each socket to the relay as an EventSink.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"social-relay/domain/event"
	"social-relay/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 512 * 1024
	sendBufferSize = 256
)

// Client wraps one websocket connection. Outbound frames go through a
// buffered channel so slow readers never block an emitting goroutine; when
// the buffer is full the frame is dropped and counted.
//
// Room emissions deliver to snapshotted sinks outside any lock, so Consume
// can race Close during teardown. The closed flag is checked under mu before
// every send; a post-Close Consume degrades to a counted drop.
type Client struct {
	ID    string
	conn  *websocket.Conn
	send  chan event.Envelope
	log   *slog.Logger
	stats *observability.RelayStats

	mu     sync.Mutex
	closed bool
}

func NewClient(id string, conn *websocket.Conn, log *slog.Logger, stats *observability.RelayStats) *Client {
	return &Client{
		ID:    id,
		conn:  conn,
		send:  make(chan event.Envelope, sendBufferSize),
		log:   log,
		stats: stats,
	}
}

// Consume implements contract.EventSink. Delivery is best-effort: a full
// buffer drops the frame rather than stalling the caller.
func (c *Client) Consume(_ context.Context, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.stats.IncrDroppedDeliveries()
		return nil
	}
	select {
	case c.send <- event.Envelope{Event: name, Data: data}:
	default:
		c.stats.IncrDroppedDeliveries()
		c.log.Warn("Send buffer full, frame dropped", "conn", c.ID, "event", name)
	}
	return nil
}

// ReadPump decodes inbound envelopes and hands them to handle until the
// socket closes. It runs on the connection's goroutine and owns all reads.
func (c *Client) ReadPump(ctx context.Context, handle func(ctx context.Context, connID string, envelope event.Envelope)) {
	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("Socket read failed", "conn", c.ID, "error", err)
			}
			return
		}

		var envelope event.Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			c.log.Debug("Malformed frame skipped", "conn", c.ID, "error", err)
			continue
		}
		handle(ctx, c.ID, envelope)
	}
}

// WritePump serializes all writes to the socket: queued envelopes plus the
// keepalive pings. It exits when the send channel closes or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case envelope, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(envelope); err != nil {
				c.log.Debug("Socket write failed", "conn", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close stops the write pump and closes the socket. Idempotent; late
// emissions racing the teardown are dropped in Consume, never sent on the
// closed channel.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

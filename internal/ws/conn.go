package ws

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

// Conn wraps a websocket connection with an ordered outbound queue. Frames
// queued for one recipient are written in queue order, which is what keeps
// a single sender's events coherent on every receiver.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps an accepted websocket under the given connection ID.
func NewConn(id string, ws *websocket.Conn) *Conn {
	return &Conn{id: id, ws: ws, out: make(chan []byte, 256)}
}

// ID returns the connection identifier shared with the coordinator.
func (c *Conn) ID() string { return c.id }

// Read blocks until it receives a text/binary message.
// Returns false if the connection is closed.
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// Queue enqueues an outbound frame without blocking; a slow consumer with a
// full buffer loses the frame rather than stalling the room.
func (c *Conn) Queue(frame []byte) {
	select {
	case c.out <- frame:
	default:
	}
}

// WriteLoop drains the outbound queue and sends periodic pings.
// Exits when ctx is cancelled.
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the websocket normally.
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }

package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"log/slog"

	"github.com/sgangavaram08/CodeSync1/internal/session"
	"github.com/sgangavaram08/CodeSync1/pkg/metrics"
	"github.com/sgangavaram08/CodeSync1/pkg/ratelimit"
)

// Hub owns the live websocket connections and drives the session
// coordinator. The coordinator decides who must receive what; the hub turns
// those decisions into socket writes and cross-instance bus publishes.
type Hub struct {
	log      *slog.Logger
	bus      *RedisBus
	co       *session.Coordinator
	instance string

	mu    sync.RWMutex
	conns map[string]*Conn

	limiter *ratelimit.Limiter
}

// NewHub sets up the hub with the redis bus and the coordinator.
func NewHub(logger *slog.Logger, bus *RedisBus, co *session.Coordinator) *Hub {
	return &Hub{
		log:      logger,
		bus:      bus,
		co:       co,
		instance: uuid.NewString(),
		conns:    make(map[string]*Conn),
		limiter:  ratelimit.New(100, time.Second), // per-connection message budget
	}
}

// Run forwards bus traffic from peer instances into local rooms. Messages
// this instance published are skipped; their local recipients were already
// served before the publish.
func (h *Hub) Run(ctx context.Context) {
	go h.bus.Subscribe(ctx, func(msg BusMessage) {
		if msg.Origin == h.instance {
			return
		}
		for _, member := range h.co.Members(msg.RoomID) {
			if c := h.conn(member.ID); c != nil {
				c.Queue(msg.Frame)
			}
		}
	})
	<-ctx.Done()
}

// ServeWS handles a new /ws connection for its whole lifetime.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sock, err := Accept(w, r)
	if err != nil {
		h.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(uuid.NewString(), sock)
	h.addConn(c)
	go c.WriteLoop(ctx)

	for {
		data, ok := c.Read(ctx)
		if !ok {
			break
		}
		if !h.limiter.Allow(c.ID()) {
			continue
		}

		env, ok := decodeInbound(data)
		if !ok {
			continue
		}
		metrics.EventsRelayed.WithLabelValues(string(env.Event)).Inc()

		switch env.Event {
		case session.EventJoinRequest:
			h.handleJoin(ctx, c, env.Payload)
		case session.EventRemoveUser:
			h.handleRemove(ctx, c, env.Payload)
		default:
			h.deliver(ctx, h.co.HandleEvent(ctx, c.ID(), env))
		}
	}

	// Cleanup must run no matter how the read loop ended; the request
	// context is likely dead by now.
	h.deliver(context.Background(), h.co.Disconnect(c.ID()))
	h.dropConn(c)
	_ = c.Close()
	h.syncGauges()
}

// decodeInbound parses a client frame and rejects any event name outside the
// wire contract. The event string feeds a Prometheus label, so accepting
// arbitrary names would let a client mint unbounded metric series.
func decodeInbound(data []byte) (session.Envelope, bool) {
	var env session.Envelope
	if err := json.Unmarshal(data, &env); err != nil || !env.Event.Known() {
		return session.Envelope{}, false
	}
	return env, true
}

type joinRequest struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

func (h *Hub) handleJoin(ctx context.Context, c *Conn, payload json.RawMessage) {
	var req joinRequest
	if json.Unmarshal(payload, &req) != nil || req.RoomID == "" || req.Username == "" {
		return
	}

	ds, err := h.co.Join(req.RoomID, req.Username, c.ID())
	if errors.Is(err, session.ErrUsernameExists) {
		metrics.JoinsRejected.Inc()
	}
	h.deliver(ctx, ds)
	h.syncGauges()
}

type removeRequest struct {
	Username string `json:"username"`
}

func (h *Hub) handleRemove(ctx context.Context, c *Conn, payload json.RawMessage) {
	var req removeRequest
	if json.Unmarshal(payload, &req) != nil || req.Username == "" {
		return
	}

	ds, err := h.co.RemoveUser(ctx, c.ID(), req.Username)
	if err != nil && !errors.Is(err, session.ErrNotAdmin) {
		h.log.Error("ws.remove", "err", err)
	}
	h.deliver(ctx, ds)
	h.syncGauges()
}

// deliver encodes each delivery once and queues it to every local recipient,
// then forwards room-scoped fanouts to peer instances over the bus.
func (h *Hub) deliver(ctx context.Context, ds []session.Delivery) {
	for _, d := range ds {
		frame, err := encodeFrame(d)
		if err != nil {
			h.log.Error("ws.encode", "event", string(d.Event), "err", err)
			continue
		}
		for _, id := range d.To {
			if c := h.conn(id); c != nil {
				c.Queue(frame)
			}
		}
		if d.Room != "" && h.bus != nil {
			if err := h.bus.Publish(ctx, BusMessage{RoomID: d.Room, Origin: h.instance, Frame: frame}); err != nil {
				h.log.Error("ws.bus.publish", "room", d.Room, "err", err)
			}
		}
	}
}

func encodeFrame(d session.Delivery) ([]byte, error) {
	raw, ok := d.Payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(session.Envelope{Event: d.Event, Payload: raw})
}

func (h *Hub) addConn(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID()] = c
	h.mu.Unlock()
}

func (h *Hub) dropConn(c *Conn) {
	h.mu.Lock()
	delete(h.conns, c.ID())
	h.mu.Unlock()
	h.limiter.Forget(c.ID())
}

func (h *Hub) conn(id string) *Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conns[id]
}

func (h *Hub) syncGauges() {
	conns, rooms := h.co.Stats()
	metrics.ActiveConnections.Set(float64(conns))
	metrics.ActiveRooms.Set(float64(rooms))
}

package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrUsernameExists rejects a join when the name is already live in the
	// room. The caller must choose another name.
	ErrUsernameExists = errors.New("username already exists in room")

	// ErrNotAdmin rejects a privileged action from a non-admin requester.
	ErrNotAdmin = errors.New("requester is not the room admin")
)

// RoomInfo is the externally persisted room metadata the coordinator reads
// through for admin checks. It is never cached here; "who is admin" always
// reflects the store (see DESIGN.md on stale-admin bugs).
type RoomInfo struct {
	Admin  string
	Locked bool
}

// RoomMeta is the room-metadata collaborator. The Postgres store implements
// it; tests substitute a map.
type RoomMeta interface {
	GetRoom(ctx context.Context, roomID string) (RoomInfo, error)
}

// Coordinator owns all mutable session state: the connection registry and
// the file lock table. Every operation runs under one mutex so check-then-act
// invariants (unique username per room, single lock holder per file) cannot
// race, and returns the deliveries to emit; actual socket writes happen in
// the transport layer after the mutation is committed.
type Coordinator struct {
	mu    sync.Mutex
	reg   *Registry
	locks *LockTable
	meta  RoomMeta
	log   *slog.Logger
}

func NewCoordinator(meta RoomMeta, log *slog.Logger) *Coordinator {
	return &Coordinator{
		reg:   NewRegistry(),
		locks: NewLockTable(),
		meta:  meta,
		log:   log,
	}
}

// Join admits a connection into a room. On a duplicate username it returns
// ErrUsernameExists along with the rejection delivery for the requester; on
// success the deliveries carry join-accepted to the joiner and user-joined to
// everyone already in the room.
func (co *Coordinator) Join(roomID, username, connID string) ([]Delivery, error) {
	co.mu.Lock()
	defer co.mu.Unlock()

	// A repeat join on a live connection is a room (or name) switch. Clean
	// up the old registration first so the old room sees the departure and
	// the user's locks there are released, not orphaned.
	prior := co.disconnectLocked(connID)

	if co.reg.Lookup(roomID, username) != nil {
		co.log.Debug("session.join.rejected", "room", roomID, "username", username)
		return append(prior, Delivery{
			To: []string{connID}, Event: EventUsernameExists, Payload: struct{}{},
		}), ErrUsernameExists
	}

	c := &Connection{
		ID:       connID,
		Username: username,
		RoomID:   roomID,
		Status:   StatusOnline,
	}
	co.reg.Add(c)
	co.log.Info("session.join", "room", roomID, "username", username, "conn", connID)

	members := make([]*Connection, 0, co.reg.Len())
	for _, m := range co.reg.InRoom(roomID) {
		members = append(members, snapshot(m))
	}
	return append(prior,
		Delivery{To: co.recipients(roomID, connID), Room: roomID, Event: EventUserJoined, Payload: userPayload{User: snapshot(c)}},
		Delivery{To: []string{connID}, Event: EventJoinAccepted, Payload: joinAcceptedPayload{User: snapshot(c), Users: members}},
	), nil
}

// Disconnect cleans up after a closed connection: releases the user's file
// locks (one unlock notification per file) and tells the rest of the room.
// Unknown IDs are an expected race and a silent no-op — the client may have
// dropped before any join completed, or cleanup may already have run.
func (co *Coordinator) Disconnect(connID string) []Delivery {
	co.mu.Lock()
	defer co.mu.Unlock()
	return co.disconnectLocked(connID)
}

// disconnectLocked is the cleanup shared by Disconnect and a repeat Join on
// the same connection. Caller holds co.mu.
func (co *Coordinator) disconnectLocked(connID string) []Delivery {
	c := co.reg.Remove(connID)
	if c == nil {
		return nil
	}
	co.log.Info("session.disconnect", "room", c.RoomID, "username", c.Username, "conn", connID)

	rest := co.recipients(c.RoomID, connID)
	out := co.unlockAll(c.RoomID, c.Username, rest)
	return append(out, Delivery{
		To: rest, Room: c.RoomID, Event: EventUserDisconnected, Payload: userPayload{User: c},
	})
}

// RemoveUser is the admin-only forced removal. The admin identity is read
// through from room metadata on every call. A non-admin requester gets an
// error delivery and nothing else changes; a missing target means it already
// left and is a silent no-op.
func (co *Coordinator) RemoveUser(ctx context.Context, requesterConnID, target string) ([]Delivery, error) {
	co.mu.Lock()
	requester := co.reg.Get(requesterConnID)
	co.mu.Unlock()
	if requester == nil {
		return nil, nil
	}
	roomID := requester.RoomID

	// Metadata lookup happens outside the state mutex; it may hit the database.
	info, err := co.meta.GetRoom(ctx, roomID)
	if err != nil {
		co.log.Error("session.remove.meta", "room", roomID, "err", err)
		return []Delivery{
			{To: []string{requesterConnID}, Event: EventError, Payload: errorPayload{Message: "room lookup failed"}},
		}, err
	}
	if info.Admin != requester.Username {
		co.log.Debug("session.remove.denied", "room", roomID, "requester", requester.Username)
		return []Delivery{
			{To: []string{requesterConnID}, Event: EventError, Payload: errorPayload{Message: "only the room admin can remove users"}},
		}, ErrNotAdmin
	}

	co.mu.Lock()
	defer co.mu.Unlock()

	victim := co.reg.Lookup(roomID, target)
	if victim == nil {
		return nil, nil
	}
	co.reg.Remove(victim.ID)
	co.log.Info("session.remove", "room", roomID, "target", target, "by", requester.Username)

	rest := co.recipients(roomID, victim.ID)
	out := []Delivery{
		{To: []string{victim.ID}, Event: EventRemovedFromRoom, Payload: removedFromRoomPayload{By: requester.Username}},
	}
	out = append(out, co.unlockAll(roomID, target, rest)...)
	return append(out, Delivery{
		To: rest, Room: roomID, Event: EventUserRemoved, Payload: userRemovedPayload{Username: target, By: requester.Username},
	}), nil
}

// HandleEvent routes one inbound frame from a joined connection. Most
// categories are relayed verbatim to the room minus the origin; a few are
// interpreted just enough to update presence, consult the lock table, or
// redirect to a single target. Malformed or disallowed frames are dropped
// without affecting anyone else.
func (co *Coordinator) HandleEvent(ctx context.Context, originID string, env Envelope) []Delivery {
	co.mu.Lock()
	defer co.mu.Unlock()

	origin := co.reg.Get(originID)
	if origin == nil {
		return nil
	}
	roomID := origin.RoomID

	switch env.Event {
	case EventTypingStart:
		var p typingPayload
		_ = json.Unmarshal(env.Payload, &p)
		origin.Typing = true
		origin.Cursor = p.CursorPosition
		return co.fanout(roomID, originID, EventTypingStart, userPayload{User: snapshot(origin)})

	case EventTypingPause:
		origin.Typing = false
		return co.fanout(roomID, originID, EventTypingPause, userPayload{User: snapshot(origin)})

	case EventUserOffline, EventUserOnline:
		var p socketIDPayload
		if json.Unmarshal(env.Payload, &p) != nil || p.SocketID == "" {
			return nil
		}
		c := co.reg.Get(p.SocketID)
		if c == nil {
			return nil
		}
		if env.Event == EventUserOnline {
			c.Status = StatusOnline
		} else {
			c.Status = StatusOffline
		}
		return co.fanout(c.RoomID, originID, env.Event, p)

	case EventSendMessage:
		var p messagePayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return nil
		}
		return co.fanout(roomID, originID, EventReceiveMessage, p)

	case EventFileUpdated:
		var p fileUpdatedPayload
		if json.Unmarshal(env.Payload, &p) != nil {
			return nil
		}
		if !co.locks.TryEdit(roomID, p.FileID, origin.Username) {
			// Locked by someone else: dropped, nobody is notified. The
			// sender's own optimistic edit is the tolerated divergence.
			co.log.Debug("session.edit.denied", "room", roomID, "file", p.FileID, "username", origin.Username)
			return nil
		}
		return co.fanout(roomID, originID, EventFileUpdated, env.Payload)

	case EventFileLockToggled:
		var p lockTogglePayload
		if json.Unmarshal(env.Payload, &p) != nil || p.FileID == "" {
			return nil
		}
		if !co.locks.Toggle(roomID, p.FileID, origin.Username, p.IsLocked) {
			return nil
		}
		p.Username = origin.Username
		return co.fanout(roomID, originID, EventFileLockToggled, p)

	case EventRequestDrawing:
		return co.fanout(roomID, originID, EventRequestDrawing, socketIDPayload{SocketID: originID})

	case EventSyncDrawing:
		var p socketIDPayload
		if json.Unmarshal(env.Payload, &p) != nil || p.SocketID == "" {
			return nil
		}
		return co.directed(p.SocketID, EventSyncDrawing, env.Payload)

	case EventSyncFileStructure:
		// Full-state resync pushed to exactly the requesting connection.
		var p socketIDPayload
		if json.Unmarshal(env.Payload, &p) != nil || p.SocketID == "" {
			return nil
		}
		return co.directed(p.SocketID, EventSyncFileStructure, env.Payload)

	case EventDirectoryCreated, EventDirectoryUpdated, EventDirectoryRenamed, EventDirectoryDeleted,
		EventFileCreated, EventFileRenamed, EventFileDeleted, EventDrawingUpdate:
		return co.fanout(roomID, originID, env.Event, env.Payload)

	default:
		co.log.Debug("session.event.unknown", "event", string(env.Event), "conn", originID)
		return nil
	}
}

// Members returns a snapshot of the current member list of a room.
func (co *Coordinator) Members(roomID string) []*Connection {
	co.mu.Lock()
	defer co.mu.Unlock()
	var out []*Connection
	for _, c := range co.reg.InRoom(roomID) {
		out = append(out, snapshot(c))
	}
	return out
}

// Stats reports live connection and room counts for metrics.
func (co *Coordinator) Stats() (conns, rooms int) {
	co.mu.Lock()
	defer co.mu.Unlock()
	seen := make(map[string]struct{})
	for _, c := range co.reg.conns {
		seen[c.RoomID] = struct{}{}
	}
	return co.reg.Len(), len(seen)
}

// unlockAll releases every lock held by username and returns one
// file-lock-toggled delivery per released file so lock-icon UI stays
// consistent after an involuntary departure.
func (co *Coordinator) unlockAll(roomID, username string, rest []string) []Delivery {
	var out []Delivery
	for _, fileID := range co.locks.ReleaseAll(roomID, username) {
		out = append(out, Delivery{
			To: rest, Room: roomID, Event: EventFileLockToggled,
			Payload: lockTogglePayload{FileID: fileID, Username: username, IsLocked: false},
		})
	}
	return out
}

// recipients lists every connection in the room except the given one.
func (co *Coordinator) recipients(roomID, except string) []string {
	var out []string
	for _, c := range co.reg.InRoom(roomID) {
		if c.ID != except {
			out = append(out, c.ID)
		}
	}
	return out
}

func (co *Coordinator) fanout(roomID, originID string, ev Event, payload any) []Delivery {
	return []Delivery{{To: co.recipients(roomID, originID), Room: roomID, Event: ev, Payload: payload}}
}

func (co *Coordinator) directed(connID string, ev Event, payload any) []Delivery {
	if co.reg.Get(connID) == nil {
		return nil
	}
	return []Delivery{{To: []string{connID}, Event: ev, Payload: payload}}
}

// snapshot copies a connection so payloads marshaled after the mutex is
// released cannot race with later mutations.
func snapshot(c *Connection) *Connection {
	cp := *c
	return &cp
}

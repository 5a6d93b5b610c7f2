package session

import "encoding/json"

// Event names shared with the browser client. These are the socket.io event
// strings the original frontend listens on, so they are part of the wire
// contract and must not be renamed.
type Event string

const (
	EventError Event = "error"

	// User events
	EventJoinRequest      Event = "join-request"
	EventJoinAccepted     Event = "join-accepted"
	EventUsernameExists   Event = "username-exists"
	EventUserJoined       Event = "user-joined"
	EventUserDisconnected Event = "user-disconnected"
	EventUserOffline      Event = "user-offline"
	EventUserOnline       Event = "user-online"
	EventUserRemoved      Event = "user-removed"
	EventRemoveUser       Event = "remove-user"
	EventRemovedFromRoom  Event = "removed-from-room"

	// File structure events
	EventSyncFileStructure Event = "sync-file-structure"
	EventDirectoryCreated  Event = "directory-created"
	EventDirectoryUpdated  Event = "directory-updated"
	EventDirectoryRenamed  Event = "directory-renamed"
	EventDirectoryDeleted  Event = "directory-deleted"
	EventFileCreated       Event = "file-created"
	EventFileUpdated       Event = "file-updated"
	EventFileRenamed       Event = "file-renamed"
	EventFileDeleted       Event = "file-deleted"
	EventFileLockToggled   Event = "file-lock-toggled"

	// Chat events
	EventSendMessage    Event = "send-message"
	EventReceiveMessage Event = "receive-message"

	// Typing events
	EventTypingStart Event = "typing-start"
	EventTypingPause Event = "typing-pause"

	// Drawing events
	EventRequestDrawing Event = "request-drawing"
	EventSyncDrawing    Event = "sync-drawing"
	EventDrawingUpdate  Event = "drawing-update"
)

var knownEvents = map[Event]struct{}{
	EventError:             {},
	EventJoinRequest:       {},
	EventJoinAccepted:      {},
	EventUsernameExists:    {},
	EventUserJoined:        {},
	EventUserDisconnected:  {},
	EventUserOffline:       {},
	EventUserOnline:        {},
	EventUserRemoved:       {},
	EventRemoveUser:        {},
	EventRemovedFromRoom:   {},
	EventSyncFileStructure: {},
	EventDirectoryCreated:  {},
	EventDirectoryUpdated:  {},
	EventDirectoryRenamed:  {},
	EventDirectoryDeleted:  {},
	EventFileCreated:       {},
	EventFileUpdated:       {},
	EventFileRenamed:       {},
	EventFileDeleted:       {},
	EventFileLockToggled:   {},
	EventSendMessage:       {},
	EventReceiveMessage:    {},
	EventTypingStart:       {},
	EventTypingPause:       {},
	EventRequestDrawing:    {},
	EventSyncDrawing:       {},
	EventDrawingUpdate:     {},
}

// Known reports whether e is part of the wire contract. Event names arrive
// from the client, so anything keyed by them (metric labels in particular)
// must filter through this first.
func (e Event) Known() bool {
	_, ok := knownEvents[e]
	return ok
}

// Envelope is the frame exchanged over the websocket.
type Envelope struct {
	Event   Event           `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Delivery is one outbound emission computed by the coordinator. The
// coordinator never touches sockets itself; it resolves recipients against
// the registry and hands the result to the transport layer (see design note
// on separating state transitions from emission).
type Delivery struct {
	// To lists the local connection IDs that must receive the event, in no
	// particular order relative to other deliveries' recipients.
	To []string

	Event   Event
	Payload any

	// Room is set for room-scoped fanouts so the transport can forward the
	// frame to peer instances over the bus. Directed deliveries leave it
	// empty and are never forwarded.
	Room string
}

// Typed payloads for events the coordinator itself emits. Field names match
// the client's expectations.

type userPayload struct {
	User *Connection `json:"user"`
}

type joinAcceptedPayload struct {
	User  *Connection   `json:"user"`
	Users []*Connection `json:"users"`
}

type userRemovedPayload struct {
	Username string `json:"username"`
	By       string `json:"by"`
}

type removedFromRoomPayload struct {
	By string `json:"by"`
}

type lockTogglePayload struct {
	FileID   string `json:"fileId"`
	Username string `json:"username"`
	IsLocked bool   `json:"isLocked"`
}

type socketIDPayload struct {
	SocketID string `json:"socketId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// Inbound payload shapes the coordinator needs to look inside. Everything
// else is relayed verbatim.

type typingPayload struct {
	CursorPosition int `json:"cursorPosition"`
}

type fileUpdatedPayload struct {
	FileID string `json:"fileId"`
}

type messagePayload struct {
	Message json.RawMessage `json:"message"`
}

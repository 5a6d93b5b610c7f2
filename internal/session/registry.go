package session

// Status is a connection's presence state as seen by the rest of the room.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Connection is one client's live session within a room. The registry is the
// sole owner; other components refer to connections by ID only.
type Connection struct {
	ID          string  `json:"socketId"`
	Username    string  `json:"username"`
	RoomID      string  `json:"roomId"`
	Status      Status  `json:"status"`
	Cursor      int     `json:"cursorPosition"`
	Typing      bool    `json:"typing"`
	CurrentFile *string `json:"currentFile"`
}

// Registry indexes live connections by ID. It is a dumb index with no
// protocol rules; the coordinator serializes all access under its own mutex,
// so the registry itself carries no locking.
type Registry struct {
	conns map[string]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Add inserts a connection, replacing any stale entry with the same ID.
func (r *Registry) Add(c *Connection) {
	r.conns[c.ID] = c
}

// Remove deletes and returns the connection, or nil if it was never
// registered or already cleaned up.
func (r *Registry) Remove(id string) *Connection {
	c := r.conns[id]
	delete(r.conns, id)
	return c
}

// Get returns the connection for id, or nil.
func (r *Registry) Get(id string) *Connection {
	return r.conns[id]
}

// InRoom returns every connection whose RoomID matches.
func (r *Registry) InRoom(roomID string) []*Connection {
	var out []*Connection
	for _, c := range r.conns {
		if c.RoomID == roomID {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds the connection for a username within a room, or nil. At most
// one can exist; Join enforces that.
func (r *Registry) Lookup(roomID, username string) *Connection {
	for _, c := range r.conns {
		if c.RoomID == roomID && c.Username == username {
			return c
		}
	}
	return nil
}

// Len reports the number of live connections across all rooms.
func (r *Registry) Len() int {
	return len(r.conns)
}

package store

import "time"

// User is a registered account. Passwords are stored only as bcrypt hashes.
type User struct {
	ID        string
	Username  string
	Mobile    string
	CreatedAt time.Time
}

// Room is the persisted room metadata. Admin is the username that first
// created the room; Members accumulates everyone who ever joined through the
// HTTP API. Live membership belongs to the session coordinator, not the store.
type Room struct {
	ID        string
	RoomID    string
	Admin     string
	Members   []string
	Locked    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

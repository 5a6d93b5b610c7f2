package session

import "testing"

func conn(id, room, username string) *Connection {
	return &Connection{ID: id, Username: username, RoomID: room, Status: StatusOnline}
}

func TestRegistryIndexes(t *testing.T) {
	r := NewRegistry()
	r.Add(conn("c1", "r1", "alice"))
	r.Add(conn("c2", "r1", "bob"))
	r.Add(conn("c3", "r2", "carol"))

	if got := r.Get("c2"); got == nil || got.Username != "bob" {
		t.Fatalf("Get(c2) = %+v, want bob", got)
	}
	if got := r.Get("nope"); got != nil {
		t.Errorf("Get(nope) = %+v, want nil", got)
	}

	if got := len(r.InRoom("r1")); got != 2 {
		t.Errorf("InRoom(r1) has %d members, want 2", got)
	}
	if got := r.InRoom("empty"); got != nil {
		t.Errorf("InRoom(empty) = %v, want nil", got)
	}

	if got := r.Lookup("r1", "alice"); got == nil || got.ID != "c1" {
		t.Errorf("Lookup(r1, alice) = %+v, want c1", got)
	}
	if got := r.Lookup("r2", "alice"); got != nil {
		t.Errorf("Lookup(r2, alice) = %+v, want nil", got)
	}

	if got := r.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Add(conn("c1", "r1", "alice"))

	if got := r.Remove("c1"); got == nil || got.Username != "alice" {
		t.Fatalf("Remove(c1) = %+v, want alice", got)
	}
	if got := r.InRoom("r1"); got != nil {
		t.Errorf("room should be empty after removal, got %v", got)
	}
	// Removing twice is a no-op.
	if got := r.Remove("c1"); got != nil {
		t.Errorf("second Remove(c1) = %+v, want nil", got)
	}
}

package session

import (
	"sort"
	"testing"
)

func TestLockToggle(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*LockTable)
		user    string
		lock    bool
		applied bool
		holder  string
	}{
		{
			name:    "lock unlocked file",
			setup:   func(*LockTable) {},
			user:    "alice",
			lock:    true,
			applied: true,
			holder:  "alice",
		},
		{
			name: "lock already locked file",
			setup: func(lt *LockTable) {
				lt.Toggle("r1", "f1", "alice", true)
			},
			user:    "bob",
			lock:    true,
			applied: false,
			holder:  "alice",
		},
		{
			name: "holder unlocks own lock",
			setup: func(lt *LockTable) {
				lt.Toggle("r1", "f1", "alice", true)
			},
			user:    "alice",
			lock:    false,
			applied: true,
			holder:  "",
		},
		{
			name: "non-holder cannot unlock",
			setup: func(lt *LockTable) {
				lt.Toggle("r1", "f1", "alice", true)
			},
			user:    "bob",
			lock:    false,
			applied: false,
			holder:  "alice",
		},
		{
			name:    "unlock a file that was never locked",
			setup:   func(*LockTable) {},
			user:    "alice",
			lock:    false,
			applied: false,
			holder:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := NewLockTable()
			tt.setup(lt)

			if got := lt.Toggle("r1", "f1", tt.user, tt.lock); got != tt.applied {
				t.Errorf("Toggle() = %v, want %v", got, tt.applied)
			}
			if got := lt.Holder("r1", "f1"); got != tt.holder {
				t.Errorf("Holder() = %q, want %q", got, tt.holder)
			}
		})
	}
}

func TestLockScopedPerRoom(t *testing.T) {
	lt := NewLockTable()

	if !lt.Toggle("r1", "f1", "alice", true) {
		t.Fatal("alice should lock f1 in r1")
	}
	// Same file ID in another room is a different lock.
	if !lt.Toggle("r2", "f1", "bob", true) {
		t.Fatal("bob should lock f1 in r2")
	}
	if got := lt.Holder("r1", "f1"); got != "alice" {
		t.Errorf("r1 holder = %q, want alice", got)
	}
	if got := lt.Holder("r2", "f1"); got != "bob" {
		t.Errorf("r2 holder = %q, want bob", got)
	}
}

func TestTryEdit(t *testing.T) {
	lt := NewLockTable()
	lt.Toggle("r1", "f1", "alice", true)

	if !lt.TryEdit("r1", "f1", "alice") {
		t.Error("holder must always be allowed to edit")
	}
	if lt.TryEdit("r1", "f1", "bob") {
		t.Error("non-holder must not edit a locked file")
	}
	if !lt.TryEdit("r1", "f2", "bob") {
		t.Error("anyone may edit an unlocked file")
	}
}

func TestReleaseAll(t *testing.T) {
	lt := NewLockTable()
	lt.Toggle("r1", "f1", "alice", true)
	lt.Toggle("r1", "f2", "alice", true)
	lt.Toggle("r1", "f3", "bob", true)
	lt.Toggle("r2", "f4", "alice", true)

	released := lt.ReleaseAll("r1", "alice")
	sort.Strings(released)
	if len(released) != 2 || released[0] != "f1" || released[1] != "f2" {
		t.Fatalf("ReleaseAll() = %v, want [f1 f2]", released)
	}

	if got := lt.Holder("r1", "f3"); got != "bob" {
		t.Errorf("bob's lock should survive, holder = %q", got)
	}
	if got := lt.Holder("r2", "f4"); got != "alice" {
		t.Errorf("alice's lock in another room should survive, holder = %q", got)
	}
	if !lt.TryEdit("r1", "f1", "bob") {
		t.Error("released file should be editable by anyone")
	}

	if again := lt.ReleaseAll("r1", "alice"); len(again) != 0 {
		t.Errorf("second ReleaseAll() = %v, want empty", again)
	}
}

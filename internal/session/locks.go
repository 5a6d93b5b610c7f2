package session

// LockTable tracks exclusive file locks, scoped per room so colliding file
// IDs in unrelated rooms cannot interfere. A file maps to at most one holder.
// Like the registry, it relies on the coordinator for serialization.
type LockTable struct {
	rooms map[string]map[string]string // roomID -> fileID -> holder username
}

func NewLockTable() *LockTable {
	return &LockTable{rooms: make(map[string]map[string]string)}
}

// Toggle applies the lock state machine: Unlocked -> Locked(by=username) when
// locking, Locked(by=username) -> Unlocked when the same user unlocks.
// It reports whether the transition applied; a toggle against a lock held by
// someone else is rejected and must be treated as a silent no-op.
func (t *LockTable) Toggle(roomID, fileID, username string, lock bool) bool {
	held := t.rooms[roomID]
	holder, locked := held[fileID]

	if lock {
		if locked {
			return false
		}
		if held == nil {
			held = make(map[string]string)
			t.rooms[roomID] = held
		}
		held[fileID] = username
		return true
	}

	if !locked || holder != username {
		return false
	}
	delete(held, fileID)
	if len(held) == 0 {
		delete(t.rooms, roomID)
	}
	return true
}

// TryEdit reports whether username may edit fileID: always true while the
// file is unlocked, and true for the holder while it is locked.
func (t *LockTable) TryEdit(roomID, fileID, username string) bool {
	holder, locked := t.rooms[roomID][fileID]
	return !locked || holder == username
}

// Holder returns the current lock holder of fileID, or "" if unlocked.
func (t *LockTable) Holder(roomID, fileID string) string {
	return t.rooms[roomID][fileID]
}

// ReleaseAll unlocks every file held by username in the room and returns the
// released file IDs so the caller can broadcast one unlock notification per
// file. Used when a holder disconnects or is removed.
func (t *LockTable) ReleaseAll(roomID, username string) []string {
	held := t.rooms[roomID]
	var released []string
	for fileID, holder := range held {
		if holder == username {
			released = append(released, fileID)
		}
	}
	for _, fileID := range released {
		delete(held, fileID)
	}
	if len(held) == 0 {
		delete(t.rooms, roomID)
	}
	return released
}

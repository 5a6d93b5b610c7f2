package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sgangavaram08/CodeSync1/internal/store"
)

type RoomsAPI struct{ DB *store.Postgres }

type createRoomReq struct {
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

type roomDataDTO struct {
	User   string `json:"user"`
	RoomID string `json:"roomId"`
	Type   string `json:"type"` // "admin" for the creator, "user" otherwise
	Lock   bool   `json:"lock"`
}

type roomResp struct {
	Message string      `json:"message"`
	Data    roomDataDTO `json:"data"`
}

// CreateOrJoin creates the room with the caller as admin, or records the
// caller in an existing room's member list. The response tells the client
// which role it got.
func (a *RoomsAPI) CreateOrJoin(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RoomID == "" || req.Username == "" {
		http.Error(w, "roomId and username required", http.StatusBadRequest)
		return
	}

	rm, role, err := a.DB.CreateOrJoinRoom(r.Context(), req.RoomID, req.Username)
	if err != nil {
		http.Error(w, "failed to create or update room", http.StatusInternalServerError)
		return
	}

	msg := "User added to room successfully"
	if role == "admin" && len(rm.Members) == 1 {
		msg = "Room created successfully"
	}
	writeJSON(w, roomResp{Message: msg, Data: roomDataDTO{
		User: req.Username, RoomID: rm.RoomID, Type: role, Lock: rm.Locked,
	}})
}

// Get returns a room's lock flag and admin username.
func (a *RoomsAPI) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	rm, err := a.DB.FindRoom(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to get room", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{"lock": rm.Locked, "admin": rm.Admin})
}

type setLockReq struct {
	Lock bool `json:"lock"`
}

// SetLock flips the room-level lock flag.
func (a *RoomsAPI) SetLock(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	var req setLockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	err := a.DB.SetRoomLock(r.Context(), id, req.Lock)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "failed to update lock", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"message": "Lock updated successfully"})
}

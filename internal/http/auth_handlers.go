package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/sgangavaram08/CodeSync1/internal/store"
	"github.com/sgangavaram08/CodeSync1/pkg/auth"
)

// UserStore is the slice of the store the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, username, mobile, password string) (store.User, error)
	VerifyUser(ctx context.Context, username, password string) (store.User, error)
}

type AuthAPI struct {
	DB  UserStore
	JWT *auth.JWT
}

type registerReq struct {
	Username string `json:"username"`
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type tokenResp struct {
	Token string      `json:"token"`
	User  authUserDTO `json:"user"`
}
type authUserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Register handles user signup and returns a JWT
func (a *AuthAPI) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	// Basic validation
	if req.Username == "" || req.Mobile == "" || len(req.Password) < 8 {
		http.Error(w, "invalid username, mobile or weak password", http.StatusBadRequest)
		return
	}

	// Create user; the unique constraints cover both username and mobile
	u, err := a.DB.CreateUser(r.Context(), req.Username, req.Mobile, req.Password)
	if err != nil {
		http.Error(w, "username or mobile number already exists", http.StatusConflict)
		return
	}

	// Issue token for 24hrs
	tok, err := a.JWT.Sign(u.Username, 24*time.Hour)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tokenResp{Token: tok, User: authUserDTO{ID: u.ID, Username: u.Username}})
}

// Login verifies credentials and returns a JWT
func (a *AuthAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	// Check credentials
	u, err := a.DB.VerifyUser(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	// Issue token (24h)
	tok, err := a.JWT.Sign(u.Username, 24*time.Hour)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tokenResp{Token: tok, User: authUserDTO{ID: u.ID, Username: u.Username}})
}

// Me returns the authenticated username
func (a *AuthAPI) Me(w http.ResponseWriter, r *http.Request) {
	username := auth.Username(r.Context())
	if username == "anon" || username == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]string{"username": username})
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

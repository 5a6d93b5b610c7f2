package httpx

import (
	"log/slog"
	"net/http"

	"github.com/sgangavaram08/CodeSync1/internal/app"
	"github.com/sgangavaram08/CodeSync1/internal/store"
	"github.com/sgangavaram08/CodeSync1/internal/ws"
	"github.com/sgangavaram08/CodeSync1/pkg/auth"
	"github.com/sgangavaram08/CodeSync1/pkg/metrics"
)

// NewRouter wires up all HTTP routes, middleware, and handlers
func NewRouter(cfg app.Config, logger *slog.Logger, hub *ws.Hub, db *store.Postgres) http.Handler {
	mw := NewMiddleware(cfg)
	rooms := &RoomsAPI{DB: db}

	// Auth API
	j := auth.New(cfg.JWTSecret)
	authAPI := &AuthAPI{DB: db, JWT: j}

	mux := http.NewServeMux()

	// Health / readiness / metrics
	mux.Handle("/healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/readyz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) }))
	mux.Handle("/metrics", metrics.Handler())

	// WebSocket endpoint; the join handshake happens in-band, so no JWT here
	mux.Handle("/ws", http.HandlerFunc(hub.ServeWS))

	// Auth endpoints
	mux.Handle("POST /api/auth/register", http.HandlerFunc(authAPI.Register))
	mux.Handle("POST /api/auth/login", http.HandlerFunc(authAPI.Login))
	mux.Handle("GET /api/auth/me", mw.Auth(http.HandlerFunc(authAPI.Me)))

	// Room metadata endpoints (JWT-protected)
	mux.Handle("POST /api/rooms", mw.Auth(http.HandlerFunc(rooms.CreateOrJoin)))
	mux.Handle("GET /api/rooms/{id}", mw.Auth(http.HandlerFunc(rooms.Get)))
	mux.Handle("POST /api/rooms/{id}/lock", mw.Auth(http.HandlerFunc(rooms.SetLock)))

	// CORS + rate limit applied globally
	return mw.Wrap(mux)
}

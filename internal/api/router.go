package api

import (
	"net/http"

	"github.com/oblivionis/tracker/internal/auth"
	"github.com/oblivionis/tracker/internal/storage"
	"github.com/oblivionis/tracker/internal/tracker"
)

// Router holds the HTTP routes and dependencies
type Router struct {
	mux     *http.ServeMux
	store   *storage.Store
	tracker *tracker.Tracker
	wsHub   *WebSocketHub
	auth    *auth.Service
}

// NewRouter creates a new HTTP router
func NewRouter(store *storage.Store, t *tracker.Tracker, authService *auth.Service) *Router {
	r := &Router{
		mux:     http.NewServeMux(),
		store:   store,
		tracker: t,
		wsHub:   NewWebSocketHub(),
		auth:    authService,
	}

	// API routes
	r.mux.HandleFunc("GET /api/games", r.handleGetGames)
	r.mux.HandleFunc("GET /api/games/{id}", r.handleGetGame)
	r.mux.HandleFunc("GET /api/platforms", r.handleGetPlatforms)
	r.mux.HandleFunc("GET /api/users/{id}", r.handleGetTrackedUser)
	r.mux.HandleFunc("GET /api/users/{id}/activities", r.handleGetUserActivities)
	r.mux.HandleFunc("GET /api/status", r.handleStatus)

	// Auth routes
	r.mux.HandleFunc("POST /api/auth/login", r.handleLogin)
	r.mux.HandleFunc("POST /api/auth/logout", r.handleLogout)
	r.mux.HandleFunc("GET /api/auth/check", r.handleAuthCheck)
	r.mux.HandleFunc("POST /api/auth/change-password", r.requireAuth(r.handleChangePassword))

	// Account management routes (admin only)
	r.mux.HandleFunc("GET /api/accounts", r.requireAdmin(r.handleListAccounts))
	r.mux.HandleFunc("POST /api/accounts", r.requireAdmin(r.handleCreateAccount))
	r.mux.HandleFunc("DELETE /api/accounts/{username}", r.requireAdmin(r.handleDeleteAccount))
	r.mux.HandleFunc("PATCH /api/accounts/{id}", r.requireAdmin(r.handleUpdateAccount))
	r.mux.HandleFunc("POST /api/accounts/{id}/reset-password", r.requireAdmin(r.handleResetAccountPassword))

	// WebSocket endpoint
	r.mux.HandleFunc("GET /ws", r.handleWebSocket)

	// Health check
	r.mux.HandleFunc("GET /health", r.handleHealth)

	return r
}

// ServeHTTP implements http.Handler
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	// CORS headers for API
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if req.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.mux.ServeHTTP(w, req)
}

// StartWebSocketHub starts broadcasting tracker events to WebSocket clients
func (r *Router) StartWebSocketHub() {
	go r.wsHub.Run()

	go func() {
		for event := range r.tracker.Events() {
			r.wsHub.Broadcast(event)
		}
	}()
}

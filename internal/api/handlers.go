package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// parseID parses an ID from the URL path
func parseID(req *http.Request, param string) (int64, error) {
	idStr := req.PathValue(param)
	return strconv.ParseInt(idStr, 10, 64)
}

// parseLimit parses and validates a limit parameter with default and max values
func parseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLimit {
			return parsed
		}
	}
	return defaultLimit
}

// handleGetGames returns all games
func (r *Router) handleGetGames(w http.ResponseWriter, req *http.Request) {
	games, err := r.store.ListGames(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, games)
}

// handleGetGame returns a single game
func (r *Router) handleGetGame(w http.ResponseWriter, req *http.Request) {
	id, err := parseID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid game id")
		return
	}

	game, err := r.store.GetGameByID(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if game == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

// handleGetPlatforms returns all platforms
func (r *Router) handleGetPlatforms(w http.ResponseWriter, req *http.Request) {
	platforms, err := r.store.ListPlatforms(req.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, platforms)
}

// handleGetTrackedUser returns a tracked gateway user
func (r *Router) handleGetTrackedUser(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")

	user, err := r.store.GetUserByID(req.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// handleGetUserActivities returns a user's recent sessions, newest first
func (r *Router) handleGetUserActivities(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	limit := parseLimit(req, 20, 100)

	activities, err := r.store.GetRecentActivities(req.Context(), id, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

// handleStatus reports live counters
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"manual_sessions":   r.tracker.Sessions().Active(),
		"websocket_clients": r.wsHub.ClientCount(),
	})
}

// handleHealth is a simple health check
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

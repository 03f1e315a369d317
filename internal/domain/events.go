package domain

import "time"

// Event types for WebSocket notifications
const (
	EventSessionRecorded = "session_recorded"
	EventSessionStarted  = "session_started"
	EventGameUpdated     = "game_updated"
)

// Event represents a real-time event for WebSocket broadcast
type Event struct {
	Type      string      `json:"event"`
	ID        string      `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// SessionRecordedEvent is sent when an activity has been persisted,
// whether it came from a presence update or a manual command.
type SessionRecordedEvent struct {
	ActivityID int64  `json:"activity_id"`
	UserID     string `json:"user_id"`
	GameName   string `json:"game_name"`
	Platform   string `json:"platform"`
	Seconds    int64  `json:"seconds"`
}

// SessionStartedEvent is sent when a manual session begins.
type SessionStartedEvent struct {
	UserID   string `json:"user_id"`
	GameName string `json:"game_name"`
	Platform string `json:"platform"`
}

// GameUpdatedEvent is sent when a game's metadata changes.
type GameUpdatedEvent struct {
	GameID   int64  `json:"game_id"`
	GameName string `json:"game_name"`
}

// ActivityAssets carries image URLs extracted from a presence activity.
type ActivityAssets struct {
	SmallImageURL *string `json:"small_image_url,omitempty"`
	LargeImageURL *string `json:"large_image_url,omitempty"`
}

// PresenceActivity describes what a user is doing according to the gateway.
type PresenceActivity struct {
	Type      string         `json:"type"` // "playing", "listening", ...
	Name      string         `json:"name"`
	Details   string         `json:"details,omitempty"`
	Platform  string         `json:"platform,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Assets    ActivityAssets `json:"assets"`
}

// PresenceUpdate is the gateway payload for a presence change.
type PresenceUpdate struct {
	UserID   string            `json:"user_id"`
	UserName string            `json:"user_name"`
	Before   *PresenceActivity `json:"before,omitempty"`
	After    *PresenceActivity `json:"after,omitempty"`
}

// DirectMessage is the gateway payload for a user-issued text command.
type DirectMessage struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Content  string `json:"content"`
}

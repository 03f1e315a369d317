package domain

import "time"

// User is a person tracked by the bot, keyed by their gateway id.
// Users are created on first observed activity or message and never deleted.
type User struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	DefaultPlatformID int64  `json:"default_platform_id"`
}

// Platform is a place games are played on, keyed by a short abbreviation
// such as "pc" or "steam-deck". The display name is optional.
type Platform struct {
	ID           int64   `json:"id"`
	Abbreviation string  `json:"abbreviation"`
	Name         *string `json:"name,omitempty"`
}

// Game is a canonical game entry. Aliases are alternate names that resolve
// to this game; an alias is unique across all games.
type Game struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	SteamID     *int64   `json:"steam_id,omitempty"`
	SGDBID      *int64   `json:"sgdb_id,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	ReleaseYear *int64   `json:"release_year,omitempty"`
	Aliases     []string `json:"aliases,omitempty"`
}

// Activity is one completed play session.
type Activity struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     string    `json:"user_id"`
	GameID     int64     `json:"game_id"`
	PlatformID int64     `json:"platform_id"`
	Seconds    int64     `json:"seconds"`
}

// ActivityDetail is an activity joined with the names a human wants to see.
type ActivityDetail struct {
	Activity
	GameName string `json:"game_name"`
	Platform string `json:"platform"`
}

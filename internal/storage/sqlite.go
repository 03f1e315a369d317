package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/oblivionis/tracker/internal/domain"
	_ "modernc.org/sqlite"
)

// formatTimestamp converts time.Time to SQLite-compatible UTC ISO8601 string
// The Z suffix ensures the Go sqlite driver parses it back as UTC
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

//go:embed schema.sql
var schema string

// Store provides database access
type Store struct {
	db *sql.DB
}

// New creates a new Store with the given database path
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Enable foreign keys, WAL mode for better performance, and busy timeout for concurrency
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}

	// Create tables
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// --- Platform methods ---

// GetOrCreatePlatform returns the platform with the given abbreviation,
// creating it if absent. The second return value reports creation.
func (s *Store) GetOrCreatePlatform(ctx context.Context, abbreviation string) (*domain.Platform, bool, error) {
	p, err := s.GetPlatformByAbbreviation(ctx, abbreviation)
	if err != nil {
		return nil, false, err
	}
	if p != nil {
		return p, false, nil
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO platforms (abbreviation) VALUES (?)
	`, abbreviation)
	if err != nil {
		return nil, false, fmt.Errorf("creating platform: %w", err)
	}
	id, _ := result.LastInsertId()
	return &domain.Platform{ID: id, Abbreviation: abbreviation}, true, nil
}

// GetPlatformByAbbreviation returns a platform by abbreviation, or nil if absent
func (s *Store) GetPlatformByAbbreviation(ctx context.Context, abbreviation string) (*domain.Platform, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, abbreviation, name FROM platforms WHERE abbreviation = ?
	`, abbreviation)
	return scanPlatformOrNil(row)
}

// GetPlatformByID returns a platform by id, or nil if absent
func (s *Store) GetPlatformByID(ctx context.Context, id int64) (*domain.Platform, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, abbreviation, name FROM platforms WHERE id = ?
	`, id)
	return scanPlatformOrNil(row)
}

// ListPlatforms returns all platforms ordered by abbreviation
func (s *Store) ListPlatforms(ctx context.Context) ([]domain.Platform, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, abbreviation, name FROM platforms ORDER BY abbreviation
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var platforms []domain.Platform
	for rows.Next() {
		p, err := scanPlatform(rows)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, *p)
	}
	return platforms, rows.Err()
}

// UpdatePlatformName sets or clears a platform's display name
func (s *Store) UpdatePlatformName(ctx context.Context, id int64, name *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE platforms SET name = ? WHERE id = ?`, name, id)
	return err
}

// DeletePlatform removes a platform by id
func (s *Store) DeletePlatform(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM platforms WHERE id = ?`, id)
	return err
}

// --- User methods ---

// GetOrCreateUser returns the tracked user with the given gateway id,
// creating it with the "pc" default platform if absent.
func (s *Store) GetOrCreateUser(ctx context.Context, id, name string) (*domain.User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	platform, _, err := s.GetOrCreatePlatform(ctx, "pc")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, default_platform_id) VALUES (?, ?, ?)
	`, id, name, platform.ID)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &domain.User{ID: id, Name: name, DefaultPlatformID: platform.ID}, nil
}

// GetUserByID returns a tracked user by gateway id, or nil if absent
func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, default_platform_id FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.DefaultPlatformID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetDefaultPlatform changes a user's default platform
func (s *Store) SetDefaultPlatform(ctx context.Context, userID string, platformID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET default_platform_id = ? WHERE id = ?
	`, platformID, userID)
	return err
}

// --- Game methods ---

// CreateGame inserts a new game with the given canonical name
func (s *Store) CreateGame(ctx context.Context, name string) (*domain.Game, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO games (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	id, _ := result.LastInsertId()
	return &domain.Game{ID: id, Name: name}, nil
}

// GetGameByID returns a game by id with its aliases, or nil if absent
func (s *Store) GetGameByID(ctx context.Context, id int64) (*domain.Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, steam_id, sgdb_id, image_url, release_year FROM games WHERE id = ?
	`, id)
	return s.gameWithAliases(ctx, row)
}

// GetGameByName returns a game by exact canonical name, or nil if absent
func (s *Store) GetGameByName(ctx context.Context, name string) (*domain.Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, steam_id, sgdb_id, image_url, release_year FROM games WHERE name = ?
	`, name)
	return s.gameWithAliases(ctx, row)
}

// GetGameByAlias returns the game owning the given alias, or nil if absent
func (s *Store) GetGameByAlias(ctx context.Context, alias string) (*domain.Game, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT g.id, g.name, g.steam_id, g.sgdb_id, g.image_url, g.release_year
		FROM games g JOIN game_aliases a ON a.game_id = g.id
		WHERE a.alias = ?
	`, alias)
	return s.gameWithAliases(ctx, row)
}

// ListGames returns all games with their aliases, ordered by name
func (s *Store) ListGames(ctx context.Context) ([]domain.Game, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, steam_id, sgdb_id, image_url, release_year FROM games ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []domain.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range games {
		aliases, err := s.getGameAliases(ctx, games[i].ID)
		if err != nil {
			return nil, err
		}
		games[i].Aliases = aliases
	}
	return games, nil
}

func (s *Store) getGameAliases(ctx context.Context, gameID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT alias FROM game_aliases WHERE game_id = ? ORDER BY alias
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var aliases []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	return aliases, rows.Err()
}

// AddGameAlias appends an alias to a game. The unique index enforces global
// alias uniqueness; callers check for collisions first for a friendlier error.
func (s *Store) AddGameAlias(ctx context.Context, gameID int64, alias string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_aliases (game_id, alias) VALUES (?, ?)
	`, gameID, alias)
	return err
}

// RemoveGameAlias deletes an alias from a game, reporting whether it existed
func (s *Store) RemoveGameAlias(ctx context.Context, gameID int64, alias string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM game_aliases WHERE game_id = ? AND alias = ?
	`, gameID, alias)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// UpdateGameImage sets or clears a game's image URL
func (s *Store) UpdateGameImage(ctx context.Context, gameID int64, imageURL *string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE games SET image_url = ? WHERE id = ?`, imageURL, gameID)
	return err
}

// UpdateGameSteamID sets or clears a game's Steam catalogue id
func (s *Store) UpdateGameSteamID(ctx context.Context, gameID int64, steamID *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE games SET steam_id = ? WHERE id = ?`, steamID, gameID)
	return err
}

// UpdateGameSGDBID sets or clears a game's SteamGridDB catalogue id
func (s *Store) UpdateGameSGDBID(ctx context.Context, gameID int64, sgdbID *int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE games SET sgdb_id = ? WHERE id = ?`, sgdbID, gameID)
	return err
}

// UpdateGameReleaseYear sets a game's release year
func (s *Store) UpdateGameReleaseYear(ctx context.Context, gameID int64, year int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE games SET release_year = ? WHERE id = ?`, year, gameID)
	return err
}

// --- Activity methods ---

// CreateActivity persists a completed session and fills in its id
func (s *Store) CreateActivity(ctx context.Context, a *domain.Activity) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (timestamp, user_id, game_id, platform_id, seconds)
		VALUES (?, ?, ?, ?, ?)
	`, formatTimestamp(a.Timestamp), a.UserID, a.GameID, a.PlatformID, a.Seconds)
	if err != nil {
		return err
	}
	a.ID, _ = result.LastInsertId()
	return nil
}

// GetActivityByID returns an activity by id, or nil if absent
func (s *Store) GetActivityByID(ctx context.Context, id int64) (*domain.Activity, error) {
	var a domain.Activity
	err := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, user_id, game_id, platform_id, seconds
		FROM activities WHERE id = ?
	`, id).Scan(&a.ID, &a.Timestamp, &a.UserID, &a.GameID, &a.PlatformID, &a.Seconds)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateActivityGame points an activity at a different game
func (s *Store) UpdateActivityGame(ctx context.Context, id, gameID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE activities SET game_id = ? WHERE id = ?`, gameID, id)
	return err
}

// UpdateActivityPlatform points an activity at a different platform
func (s *Store) UpdateActivityPlatform(ctx context.Context, id, platformID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE activities SET platform_id = ? WHERE id = ?`, platformID, id)
	return err
}

// UpdateActivityTimestamp corrects an activity's timestamp
func (s *Store) UpdateActivityTimestamp(ctx context.Context, id int64, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE activities SET timestamp = ? WHERE id = ?`, formatTimestamp(ts), id)
	return err
}

// DeleteActivity removes an activity by id
func (s *Store) DeleteActivity(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id)
	return err
}

// GetRecentActivities returns a user's most recent activities, newest first
func (s *Store) GetRecentActivities(ctx context.Context, userID string, limit int) ([]domain.ActivityDetail, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.timestamp, a.user_id, a.game_id, a.platform_id, a.seconds,
			g.name, p.abbreviation
		FROM activities a
		JOIN games g ON a.game_id = g.id
		JOIN platforms p ON a.platform_id = p.id
		WHERE a.user_id = ?
		ORDER BY a.timestamp DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var details []domain.ActivityDetail
	for rows.Next() {
		var d domain.ActivityDetail
		if err := rows.Scan(&d.ID, &d.Timestamp, &d.UserID, &d.GameID, &d.PlatformID,
			&d.Seconds, &d.GameName, &d.Platform); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// ReassignActivities moves one user's activities from one game to another,
// returning the number of rows changed. Other users' rows are untouched.
func (s *Store) ReassignActivities(ctx context.Context, userID string, fromGameID, toGameID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE activities SET game_id = ? WHERE game_id = ? AND user_id = ?
	`, toGameID, fromGameID, userID)
	if err != nil {
		return 0, err
	}
	rows, _ := result.RowsAffected()
	return rows, nil
}

func (s *Store) gameWithAliases(ctx context.Context, row *sql.Row) (*domain.Game, error) {
	g, err := scanGame(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	aliases, err := s.getGameAliases(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.Aliases = aliases
	return g, nil
}

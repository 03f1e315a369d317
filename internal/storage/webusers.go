package storage

import (
	"context"
	"fmt"
	"time"
)

// WebUser represents an account for the HTTP surface. These are unrelated
// to the tracked gateway users.
type WebUser struct {
	ID           int64
	Username     string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// CreateWebUser creates a new web account
func (s *Store) CreateWebUser(ctx context.Context, username, passwordHash string, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO web_users (username, password_hash, is_admin)
		VALUES (?, ?, ?)
	`, username, passwordHash, isAdmin)
	return err
}

// GetWebUserByUsername retrieves a web account by username
func (s *Store) GetWebUserByUsername(ctx context.Context, username string) (*WebUser, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, last_login
		FROM web_users WHERE username = ?
	`, username)
	return scanWebUser(row)
}

// DeleteWebUser removes a web account by username
func (s *Store) DeleteWebUser(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM web_users WHERE username = ?`, username)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("user not found: %s", username)
	}
	return nil
}

// ListWebUsers returns all web accounts
func (s *Store) ListWebUsers(ctx context.Context) ([]WebUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, password_hash, is_admin, created_at, last_login
		FROM web_users ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []WebUser
	for rows.Next() {
		user, err := scanWebUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// UpdateWebUserLastLogin updates the last login timestamp
func (s *Store) UpdateWebUserLastLogin(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE web_users SET last_login = CURRENT_TIMESTAMP WHERE id = ?
	`, userID)
	return err
}

// UpdateWebUserPassword updates a web account's password
func (s *Store) UpdateWebUserPassword(ctx context.Context, userID int64, newPasswordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE web_users SET password_hash = ? WHERE id = ?
	`, newPasswordHash, userID)
	return err
}

// UpdateWebUserAdmin updates the admin status of a web account
func (s *Store) UpdateWebUserAdmin(ctx context.Context, userID int64, isAdmin bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE web_users SET is_admin = ? WHERE id = ?
	`, isAdmin, userID)
	return err
}

package storage

import (
	"database/sql"
	"time"

	"github.com/oblivionis/tracker/internal/domain"
)

// Null scanner helpers - reduce repetitive nil-checking code

func scanNullString(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func scanNullTime(nt sql.NullTime) *time.Time {
	if nt.Valid {
		return &nt.Time
	}
	return nil
}

func scanNullInt64Ptr(ni sql.NullInt64) *int64 {
	if ni.Valid {
		return &ni.Int64
	}
	return nil
}

// scanner is an interface satisfied by both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanGame scans a game row without aliases
func scanGame(s scanner) (*domain.Game, error) {
	var g domain.Game
	var steamID, sgdbID, releaseYear sql.NullInt64
	var imageURL sql.NullString
	err := s.Scan(&g.ID, &g.Name, &steamID, &sgdbID, &imageURL, &releaseYear)
	if err != nil {
		return nil, err
	}
	g.SteamID = scanNullInt64Ptr(steamID)
	g.SGDBID = scanNullInt64Ptr(sgdbID)
	g.ImageURL = scanNullString(imageURL)
	g.ReleaseYear = scanNullInt64Ptr(releaseYear)
	return &g, nil
}

// scanPlatform scans a platform row
func scanPlatform(s scanner) (*domain.Platform, error) {
	var p domain.Platform
	var name sql.NullString
	if err := s.Scan(&p.ID, &p.Abbreviation, &name); err != nil {
		return nil, err
	}
	p.Name = scanNullString(name)
	return &p, nil
}

// scanPlatformOrNil scans a single platform row, mapping no-rows to nil
func scanPlatformOrNil(row *sql.Row) (*domain.Platform, error) {
	p, err := scanPlatform(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// scanWebUser scans a web user row
func scanWebUser(s scanner) (*WebUser, error) {
	var u WebUser
	var lastLogin sql.NullTime
	err := s.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt, &lastLogin)
	if err != nil {
		return nil, err
	}
	u.LastLogin = scanNullTime(lastLogin)
	return &u, nil
}

package tracker

import (
	"context"
	"time"

	"github.com/oblivionis/tracker/internal/domain"
)

// Store is the persistence surface the tracker needs. All calls are
// blocking; each one commits independently and no operation spans a
// cross-entity transaction.
type Store interface {
	GetOrCreateUser(ctx context.Context, id, name string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	SetDefaultPlatform(ctx context.Context, userID string, platformID int64) error

	GetOrCreatePlatform(ctx context.Context, abbreviation string) (*domain.Platform, bool, error)
	GetPlatformByAbbreviation(ctx context.Context, abbreviation string) (*domain.Platform, error)
	GetPlatformByID(ctx context.Context, id int64) (*domain.Platform, error)
	ListPlatforms(ctx context.Context) ([]domain.Platform, error)
	UpdatePlatformName(ctx context.Context, id int64, name *string) error
	DeletePlatform(ctx context.Context, id int64) error

	CreateGame(ctx context.Context, name string) (*domain.Game, error)
	GetGameByID(ctx context.Context, id int64) (*domain.Game, error)
	GetGameByName(ctx context.Context, name string) (*domain.Game, error)
	GetGameByAlias(ctx context.Context, alias string) (*domain.Game, error)
	AddGameAlias(ctx context.Context, gameID int64, alias string) error
	RemoveGameAlias(ctx context.Context, gameID int64, alias string) (bool, error)
	UpdateGameImage(ctx context.Context, gameID int64, imageURL *string) error
	UpdateGameSteamID(ctx context.Context, gameID int64, steamID *int64) error
	UpdateGameSGDBID(ctx context.Context, gameID int64, sgdbID *int64) error
	UpdateGameReleaseYear(ctx context.Context, gameID int64, year int64) error

	CreateActivity(ctx context.Context, a *domain.Activity) error
	GetActivityByID(ctx context.Context, id int64) (*domain.Activity, error)
	UpdateActivityGame(ctx context.Context, id, gameID int64) error
	UpdateActivityPlatform(ctx context.Context, id, platformID int64) error
	UpdateActivityTimestamp(ctx context.Context, id int64, ts time.Time) error
	DeleteActivity(ctx context.Context, id int64) error
	GetRecentActivities(ctx context.Context, userID string, limit int) ([]domain.ActivityDetail, error)
	ReassignActivities(ctx context.Context, userID string, fromGameID, toGameID int64) (int64, error)
}

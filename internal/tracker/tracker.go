package tracker

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/oblivionis/tracker/internal/domain"
)

// Tracker implements the session-lifecycle operations behind the command
// router and the presence shim. It owns the manual session registry, the
// only piece of shared mutable state in the core.
type Tracker struct {
	store      Store
	sessions   *SessionRegistry
	minSeconds int64
	now        func() time.Time
	events     chan domain.Event
}

// New creates a Tracker with the given minimum session length in seconds
func New(store Store, minSeconds int64) *Tracker {
	return &Tracker{
		store:      store,
		sessions:   NewSessionRegistry(),
		minSeconds: minSeconds,
		now:        func() time.Time { return time.Now().UTC() },
		events:     make(chan domain.Event, 100),
	}
}

// Events returns the event channel for WebSocket broadcasting
func (t *Tracker) Events() <-chan domain.Event {
	return t.events
}

// Sessions exposes the manual session registry
func (t *Tracker) Sessions() *SessionRegistry {
	return t.sessions
}

// MinimumSeconds returns the configured minimum session length
func (t *Tracker) MinimumSeconds() int64 {
	return t.minSeconds
}

func (t *Tracker) emit(eventType string, data any) {
	ev := domain.Event{
		Type:      eventType,
		ID:        uuid.NewString(),
		Timestamp: t.now(),
		Data:      data,
	}
	select {
	case t.events <- ev:
	default:
		log.Printf("Event channel full, dropping %s event", eventType)
	}
}

// ResolveOrCreateGame maps a display name to a game: exact canonical name
// first, then the alias set of any game, then lazy creation.
func (t *Tracker) ResolveOrCreateGame(ctx context.Context, name string) (*domain.Game, error) {
	game, err := t.store.GetGameByName(ctx, name)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	if game != nil {
		return game, nil
	}

	game, err = t.store.GetGameByAlias(ctx, name)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	if game != nil {
		return game, nil
	}

	game, err = t.store.CreateGame(ctx, name)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	log.Printf("Added new game %q to database (id %d)", name, game.ID)
	return game, nil
}

// AddSession persists a completed session. An empty platform abbreviation
// falls back to the user's default platform, then to "pc". A zero
// timestamp means now.
func (t *Tracker) AddSession(ctx context.Context, user *domain.User, gameName string, seconds int64, platformAbbr string, ts time.Time) (*domain.Activity, error) {
	if seconds < t.minSeconds {
		return nil, Errorf(KindTooShort, "Session must be at least %d seconds long", t.minSeconds)
	}

	if platformAbbr == "" {
		platformAbbr = t.defaultPlatformAbbr(ctx, user)
	}
	platform, _, err := t.store.GetOrCreatePlatform(ctx, platformAbbr)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}

	if ts.IsZero() {
		ts = t.now()
	}

	game, err := t.ResolveOrCreateGame(ctx, gameName)
	if err != nil {
		return nil, err
	}

	activity := &domain.Activity{
		Timestamp:  ts,
		UserID:     user.ID,
		GameID:     game.ID,
		PlatformID: platform.ID,
		Seconds:    seconds,
	}
	if err := t.store.CreateActivity(ctx, activity); err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}

	log.Printf("Added activity %d for user %s: %s (%s) - %d seconds @ %s",
		activity.ID, user.ID, game.Name, platform.Abbreviation, seconds, ts.Format(time.RFC3339))

	t.emit(domain.EventSessionRecorded, domain.SessionRecordedEvent{
		ActivityID: activity.ID,
		UserID:     user.ID,
		GameName:   game.Name,
		Platform:   platform.Abbreviation,
		Seconds:    seconds,
	})
	return activity, nil
}

// User fetches the gateway user, creating it on first contact
func (t *Tracker) User(ctx context.Context, id, name string) (*domain.User, error) {
	user, err := t.store.GetOrCreateUser(ctx, id, name)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	return user, nil
}

// defaultPlatformAbbr resolves the fallback chain: user default, then "pc"
func (t *Tracker) defaultPlatformAbbr(ctx context.Context, user *domain.User) string {
	platform, err := t.store.GetPlatformByID(ctx, user.DefaultPlatformID)
	if err != nil || platform == nil {
		return "pc"
	}
	return platform.Abbreviation
}

// StartSession begins a manual session for the user. An explicit platform
// must already be known; an omitted one falls back to the user's default.
// Returns the platform actually used.
func (t *Tracker) StartSession(ctx context.Context, user *domain.User, gameName, platformAbbr string) (string, error) {
	if platformAbbr != "" {
		platform, err := t.store.GetPlatformByAbbreviation(ctx, platformAbbr)
		if err != nil {
			return "", persistencef(err, "ERROR: Try again later")
		}
		if platform == nil {
			return "", Errorf(KindValidation, "ERROR: Invalid platform")
		}
	} else {
		platformAbbr = t.defaultPlatformAbbr(ctx, user)
	}

	session := ManualSession{
		GameName:  gameName,
		Platform:  platformAbbr,
		StartedAt: t.now(),
	}
	if !t.sessions.Begin(user.ID, session) {
		return "", Errorf(KindConflict, "You already have a manual session running. Please `stop` before starting a new one.")
	}

	t.emit(domain.EventSessionStarted, domain.SessionStartedEvent{
		UserID:   user.ID,
		GameName: gameName,
		Platform: platformAbbr,
	})
	return platformAbbr, nil
}

// StopSession ends the user's manual session. A too-short session still
// ends (the registry entry is gone) but nothing is persisted. Any other
// persistence failure puts the session back with its original start time
// so a retried stop keeps the elapsed time.
func (t *Tracker) StopSession(ctx context.Context, user *domain.User) (*domain.Activity, ManualSession, error) {
	session, ok := t.sessions.End(user.ID)
	if !ok {
		return nil, ManualSession{}, Errorf(KindNotFound, "You don't have a manual session running")
	}

	elapsed := int64(t.now().Sub(session.StartedAt).Seconds())
	activity, err := t.AddSession(ctx, user, session.GameName, elapsed, session.Platform, time.Time{})
	if err != nil {
		if KindOf(err) == KindTooShort {
			return nil, session, err
		}
		// Keep the session running so the user can retry stop
		t.sessions.Restore(user.ID, session)
		return nil, session, err
	}
	return activity, session, nil
}

// MergeGames reassigns the caller's activities from one game to another.
// The source game is kept and other users' rows are untouched.
func (t *Tracker) MergeGames(ctx context.Context, user *domain.User, fromID, toID int64) (*domain.Game, *domain.Game, error) {
	from, err := t.store.GetGameByID(ctx, fromID)
	if err != nil {
		return nil, nil, persistencef(err, "ERROR: Try again later")
	}
	if from == nil {
		return nil, nil, Errorf(KindNotFound, "ERROR: Game with ID %d not found.", fromID)
	}
	to, err := t.store.GetGameByID(ctx, toID)
	if err != nil {
		return nil, nil, persistencef(err, "ERROR: Try again later")
	}
	if to == nil {
		return nil, nil, Errorf(KindNotFound, "ERROR: Game with ID %d not found.", toID)
	}

	if _, err := t.store.ReassignActivities(ctx, user.ID, from.ID, to.ID); err != nil {
		return nil, nil, persistencef(err, "ERROR: Try again later")
	}
	return from, to, nil
}

// RemoveSession hard-deletes one of the caller's own sessions
func (t *Tracker) RemoveSession(ctx context.Context, user *domain.User, id int64) error {
	activity, err := t.store.GetActivityByID(ctx, id)
	if err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	if activity == nil {
		return Errorf(KindNotFound, "ERROR: Session %d not found", id)
	}
	if activity.UserID != user.ID {
		return Errorf(KindOwnership, "ERROR: Session %d does not belong to you", id)
	}
	if err := t.store.DeleteActivity(ctx, id); err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	return nil
}

// SetSessionDate corrects the timestamp of one of the caller's sessions
func (t *Tracker) SetSessionDate(ctx context.Context, user *domain.User, id int64, ts time.Time) error {
	activity, err := t.store.GetActivityByID(ctx, id)
	if err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	if activity == nil {
		return Errorf(KindNotFound, "ERROR: Session %d not found", id)
	}
	if activity.UserID != user.ID {
		return Errorf(KindOwnership, "ERROR: Session %d does not belong to you", id)
	}
	if err := t.store.UpdateActivityTimestamp(ctx, id, ts); err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	return nil
}

// SetPlatformForSession points one of the caller's sessions at a platform
func (t *Tracker) SetPlatformForSession(ctx context.Context, user *domain.User, id int64, platform *domain.Platform) error {
	activity, err := t.store.GetActivityByID(ctx, id)
	if err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	if activity == nil {
		return Errorf(KindNotFound, "ERROR: Session %d not found", id)
	}
	if activity.UserID != user.ID {
		return Errorf(KindOwnership, "ERROR: Session %d does not belong to you", id)
	}
	if err := t.store.UpdateActivityPlatform(ctx, id, platform.ID); err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	return nil
}

// SetPlatformForRange applies the platform to every id in the inclusive
// range, skipping missing or unauthorized ids. This best-effort policy is
// deliberately different from SetGameForRange's fail-fast one.
func (t *Tracker) SetPlatformForRange(ctx context.Context, user *domain.User, a, b int64, platform *domain.Platform) {
	for id := a; id <= b; id++ {
		if err := t.SetPlatformForSession(ctx, user, id, platform); err != nil {
			log.Printf("setplatform: skipping session %d for user %s: %v", id, user.ID, err)
		}
	}
}

// SetGameForRange points every session in the inclusive range at the game.
// It stops at the first id that is missing, foreign, or already at the
// target; earlier ids stay mutated (there is no cross-record transaction).
func (t *Tracker) SetGameForRange(ctx context.Context, user *domain.User, a, b int64, game *domain.Game) error {
	for id := a; id <= b; id++ {
		activity, err := t.store.GetActivityByID(ctx, id)
		if err != nil {
			return persistencef(err, "ERROR: Try again later")
		}
		if activity == nil {
			return Errorf(KindNotFound, "Session %d not found.", id)
		}
		if activity.UserID != user.ID {
			return Errorf(KindOwnership, "Session %d does not belong to you.", id)
		}
		if activity.GameID == game.ID {
			return Errorf(KindConflict, "Session %d is already set to game %s.", id, game.Name)
		}
		if err := t.store.UpdateActivityGame(ctx, id, game.ID); err != nil {
			return persistencef(err, "ERROR: Try again later")
		}
	}
	return nil
}

// SetDefaultPlatform records the platform used when none can be determined
func (t *Tracker) SetDefaultPlatform(ctx context.Context, user *domain.User, platform *domain.Platform) error {
	if err := t.store.SetDefaultPlatform(ctx, user.ID, platform.ID); err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	user.DefaultPlatformID = platform.ID
	return nil
}

// RecentSessions returns the caller's n most recent sessions, newest first
func (t *Tracker) RecentSessions(ctx context.Context, user *domain.User, n int) ([]domain.ActivityDetail, error) {
	details, err := t.store.GetRecentActivities(ctx, user.ID, n)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	return details, nil
}

// UpdateGameAssets stores an image URL extracted from a presence activity.
// The large image wins when both are present.
func (t *Tracker) UpdateGameAssets(ctx context.Context, gameName string, assets domain.ActivityAssets) error {
	url := assets.LargeImageURL
	if url == nil {
		url = assets.SmallImageURL
	}
	if url == nil {
		return nil
	}

	game, err := t.ResolveOrCreateGame(ctx, gameName)
	if err != nil {
		return err
	}
	if err := t.store.UpdateGameImage(ctx, game.ID, url); err != nil {
		return persistencef(err, "ERROR: Try again later")
	}
	log.Printf("Updated image for game %q: %s", game.Name, *url)
	return nil
}

package tracker

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestRouter(t *testing.T, admins ...string) (*Router, *fakeStore) {
	t.Helper()
	tr, store := newTestTracker(t)
	return NewRouter(tr, "!", admins), store
}

func route(r *Router, text string) string {
	return r.Route(context.Background(), "u1", "alice", text)
}

func TestRouteAdd(t *testing.T) {
	r, store := newTestRouter(t)

	if got := route(r, `add "Chess" 120`); got != "OK" {
		t.Errorf(`add "Chess" 120 = %q, want OK`, got)
	}
	if game, _ := store.GetGameByName(context.Background(), "Chess"); game == nil {
		t.Error("game was not created")
	}
	if len(store.activities) != 1 {
		t.Errorf("store has %d activities, want 1", len(store.activities))
	}
}

func TestRouteAddTooShort(t *testing.T) {
	r, store := newTestRouter(t)

	got := route(r, `add "Chess" 45`)
	if got != "ERROR: Session must be at least 60 seconds long" {
		t.Errorf("reply = %q, want the too-short error", got)
	}
	if len(store.activities) != 0 {
		t.Errorf("store has %d activities, want none", len(store.activities))
	}
}

func TestRouteAddWithTimestamp(t *testing.T) {
	r, store := newTestRouter(t)

	if got := route(r, `add "Chess" 01:00:00 2026-02-01T10:00:00Z`); got != "OK" {
		t.Fatalf("reply = %q, want OK", got)
	}
	a, _ := store.GetActivityByID(context.Background(), 1)
	if a.Seconds != 3600 {
		t.Errorf("seconds = %d, want 3600", a.Seconds)
	}
	want := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	if !a.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", a.Timestamp, want)
	}
}

func TestRouteAddSmartQuotes(t *testing.T) {
	r, store := newTestRouter(t)

	if got := route(r, "add “Chess” 120"); got != "OK" {
		t.Errorf("reply = %q, want OK despite curly quotes", got)
	}
	if game, _ := store.GetGameByName(context.Background(), "Chess"); game == nil {
		t.Error("game was not created")
	}
}

func TestRouteAddMissingName(t *testing.T) {
	r, _ := newTestRouter(t)
	if got := route(r, "add Chess 120"); got != "ERROR: Could not extract game name" {
		t.Errorf("reply = %q, want the missing-name error", got)
	}
}

func TestRouteAddBadDuration(t *testing.T) {
	r, _ := newTestRouter(t)
	if got := route(r, `add "Chess" eleven`); got != "ERROR: Duration is invalid" {
		t.Errorf("reply = %q, want the bad-duration error", got)
	}
}

func TestRouteStartStop(t *testing.T) {
	r, _ := newTestRouter(t)

	got := route(r, `start "Doom"`)
	if !strings.Contains(got, "You have started playing **Doom** on **pc**") {
		t.Errorf("start reply = %q", got)
	}

	got = route(r, `start "Quake"`)
	if !strings.Contains(got, "You already have a manual session running") {
		t.Errorf("second start reply = %q", got)
	}
}

func TestRouteStopWithoutSession(t *testing.T) {
	r, _ := newTestRouter(t)
	if got := route(r, "stop"); got != "You don't have a manual session running" {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteStopTooShort(t *testing.T) {
	r, _ := newTestRouter(t)

	route(r, `start "Doom"`)
	got := route(r, "stop")
	if got != "Session ended, but not saved because it was too short (minimum is 60 secs)" {
		t.Errorf("reply = %q", got)
	}
	// The session ended either way; a second stop finds nothing
	if got := route(r, "stop"); got != "You don't have a manual session running" {
		t.Errorf("second stop reply = %q", got)
	}
}

func TestRouteStopKeepsSessionOnPersistFailure(t *testing.T) {
	r, store := newTestRouter(t)

	route(r, `start "Doom"`)
	sess, _ := r.t.sessions.Get("u1")
	r.t.sessions.End("u1")
	sess.StartedAt = sess.StartedAt.Add(-90 * time.Second)
	r.t.sessions.Restore("u1", sess)

	store.failCreateActivity = true
	got := route(r, "stop")
	if got != "ERROR: Could not save session. Your session will keep running. Please try again." {
		t.Errorf("reply = %q", got)
	}

	store.failCreateActivity = false
	got = route(r, "stop")
	if !strings.Contains(got, "saved. You played **Doom** for 00:01:30!") {
		t.Errorf("retried stop reply = %q", got)
	}
}

func TestRouteMerge(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	store.CreateGame(ctx, "DOOM (1993)")
	store.CreateGame(ctx, "Doom")

	got := route(r, "merge 1 2")
	if got != "Game 'DOOM (1993)' merged into 'Doom' successfully for your user" {
		t.Errorf("reply = %q", got)
	}
	if got := route(r, "merge 1"); !strings.Contains(got, "Invalid command format") {
		t.Errorf("reply = %q", got)
	}
	if got := route(r, "merge one two"); got != "Invalid game IDs. Please provide valid integers." {
		t.Errorf("reply = %q", got)
	}
	if got := route(r, "merge 1 999"); got != "ERROR: Game with ID 999 not found." {
		t.Errorf("reply = %q", got)
	}
}

func TestRoutePlatform(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()
	store.GetOrCreatePlatform(ctx, "switch")

	got := route(r, "platform")
	if !strings.Contains(got, "Your default platform is **pc**") {
		t.Errorf("reply = %q", got)
	}

	if got := route(r, "platform switch"); got != "Your default platform is now **switch**" {
		t.Errorf("reply = %q", got)
	}
	user, _ := store.GetUserByID(ctx, "u1")
	platform, _ := store.GetPlatformByID(ctx, user.DefaultPlatformID)
	if platform.Abbreviation != "switch" {
		t.Errorf("default platform = %q, want switch", platform.Abbreviation)
	}

	got = route(r, "platform amiga")
	if !strings.Contains(got, "Invalid platform. Valid platforms are:") {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteListPlatforms(t *testing.T) {
	r, store := newTestRouter(t)
	store.GetOrCreatePlatform(context.Background(), "pc")
	store.GetOrCreatePlatform(context.Background(), "switch")

	got := route(r, "listplatforms")
	if !strings.Contains(got, "pc") || !strings.Contains(got, "switch") {
		t.Errorf("reply = %q, want both platforms listed", got)
	}
}

func TestRouteSetPlatformRange(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	route(r, `add "Doom" 120`)
	route(r, `add "Doom" 120`)
	store.GetOrCreatePlatform(ctx, "steam-deck")

	got := route(r, "setplatform 1-2 steam-deck")
	if got != "OK! Platform has been set to **steam-deck** for sessions 1-2" {
		t.Errorf("reply = %q", got)
	}
	if got := route(r, "setplatform 5-5 steam-deck"); got != "Invalid range" {
		t.Errorf("reply = %q", got)
	}
	if got := route(r, "setplatform 6-3 steam-deck"); got != "Invalid range" {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteSetGameRange(t *testing.T) {
	r, store := newTestRouter(t)
	ctx := context.Background()

	route(r, `add "Emulator" 120`)
	route(r, `add "Emulator" 120`)

	got := route(r, `setgame 1-2 "Chrono Trigger"`)
	if got != "Game has been set to **Chrono Trigger** for session(s) 1-2." {
		t.Errorf("reply = %q", got)
	}
	game, _ := store.GetGameByName(ctx, "Chrono Trigger")
	for id := int64(1); id <= 2; id++ {
		if a, _ := store.GetActivityByID(ctx, id); a.GameID != game.ID {
			t.Errorf("activity %d game = %d, want %d", id, a.GameID, game.ID)
		}
	}

	// Already-set target stops the batch
	got = route(r, `setgame 1-2 "Chrono Trigger"`)
	if got != "Session 1 is already set to game Chrono Trigger." {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteSetDate(t *testing.T) {
	r, store := newTestRouter(t)

	route(r, `add "Chess" 120`)
	got := route(r, "setdate 1 2026-01-15T08:30:00Z")
	if got != "Session 1 date has been modified to 2026-01-15 08:30:00" {
		t.Errorf("reply = %q", got)
	}
	a, _ := store.GetActivityByID(context.Background(), 1)
	want := time.Date(2026, 1, 15, 8, 30, 0, 0, time.UTC)
	if !a.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", a.Timestamp, want)
	}

	if got := route(r, "setdate 1 2026-01-15"); !strings.Contains(got, "Invalid date format") {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteLast(t *testing.T) {
	r, _ := newTestRouter(t)

	if got := route(r, "last"); got != "You have no sessions yet." {
		t.Errorf("reply = %q", got)
	}

	route(r, `add "Chess" 120 2026-02-01T10:00:00Z`)
	route(r, `add "Doom" 3600 2026-02-02T10:00:00Z`)

	got := route(r, "last 5")
	if !strings.HasPrefix(got, "```\n") || !strings.HasSuffix(got, "```") {
		t.Fatalf("reply not fenced: %q", got)
	}
	chess := strings.Index(got, "Chess")
	doom := strings.Index(got, "Doom")
	if chess < 0 || doom < 0 {
		t.Fatalf("reply missing sessions: %q", got)
	}
	if chess > doom {
		t.Error("sessions should be listed oldest first")
	}
	if !strings.Contains(got, "#2\t2026-02-02 10:00:00 UTC\tDoom (pc)\t01:00:00") {
		t.Errorf("reply line format off: %q", got)
	}
}

func TestRouteLastClampsAmount(t *testing.T) {
	r, _ := newTestRouter(t)

	route(r, `add "Chess" 120 2026-02-01T10:00:00Z`)
	route(r, `add "Doom" 3600 2026-02-02T10:00:00Z`)

	// A non-positive amount must not reach the store, where a negative
	// LIMIT would dump the whole history
	got := route(r, "last -3")
	if strings.Contains(got, "Chess") {
		t.Errorf("reply = %q, want only the newest session", got)
	}
	if !strings.Contains(got, "Doom") {
		t.Errorf("reply = %q, want the newest session", got)
	}

	got = route(r, "last 0")
	if !strings.Contains(got, "Doom") || strings.Contains(got, "Chess") {
		t.Errorf("last 0 reply = %q, want exactly the newest session", got)
	}
}

func TestRouteUnknownCommand(t *testing.T) {
	r, _ := newTestRouter(t)
	got := route(r, "dance")
	if got != "Unknown command. Use `!help` to see available commands." {
		t.Errorf("reply = %q", got)
	}
}

func TestRouteHelp(t *testing.T) {
	r, _ := newTestRouter(t, "admin-id")

	got := route(r, "help")
	if !strings.Contains(got, "`!add \"Game Name\" <duration> [datetime]`") {
		t.Errorf("help missing add usage: %q", got)
	}
	if strings.Contains(got, "Admin commands") {
		t.Error("non-admin help should not list admin commands")
	}

	got = r.Route(context.Background(), "admin-id", "root", "help")
	if !strings.Contains(got, "Admin commands") {
		t.Error("admin help should list admin commands")
	}
}

func TestRouteAdminGating(t *testing.T) {
	r, store := newTestRouter(t, "admin-id")
	store.CreateGame(context.Background(), "Doom")

	// Non-admins never reach admin handlers
	got := route(r, "setsteamid 1 440")
	if got != "Unknown command. Use `!help` to see available commands." {
		t.Errorf("non-admin reply = %q", got)
	}

	got = r.Route(context.Background(), "admin-id", "root", "setsteamid 1 440")
	if got != "OK! Set Steam ID 440 for game Doom" {
		t.Errorf("admin reply = %q", got)
	}
	game, _ := store.GetGameByID(context.Background(), 1)
	if game.SteamID == nil || *game.SteamID != 440 {
		t.Errorf("steam id = %v, want 440", game.SteamID)
	}
}

func TestAdminAliasCommands(t *testing.T) {
	r, store := newTestRouter(t, "admin-id")
	ctx := context.Background()
	admin := func(text string) string { return r.Route(ctx, "admin-id", "root", text) }

	store.CreateGame(ctx, "The Elder Scrolls V: Skyrim")
	store.CreateGame(ctx, "Doom")

	got := admin("addalias 1 Skyrim")
	if got != "OK! Added alias 'Skyrim' for game The Elder Scrolls V: Skyrim" {
		t.Fatalf("reply = %q", got)
	}

	// Aliases are globally unique
	got = admin("addalias 2 Skyrim")
	if got != "ERROR: Alias 'Skyrim' already exists for game The Elder Scrolls V: Skyrim (ID 1)." {
		t.Errorf("reply = %q", got)
	}

	// An alias may not shadow a canonical name
	got = admin("addalias 1 Doom")
	if got != "ERROR: 'Doom' is already the name of game with ID 2." {
		t.Errorf("reply = %q", got)
	}

	got = admin("delalias 1 Skyrim")
	if got != "OK! Removed alias 'Skyrim' from game The Elder Scrolls V: Skyrim" {
		t.Errorf("reply = %q", got)
	}
	got = admin("delalias 1 Skyrim")
	if got != "Alias 'Skyrim' does not exist for game The Elder Scrolls V: Skyrim." {
		t.Errorf("reply = %q", got)
	}
}

func TestAdminSetGameImage(t *testing.T) {
	r, store := newTestRouter(t, "admin-id")
	ctx := context.Background()
	admin := func(text string) string { return r.Route(ctx, "admin-id", "root", text) }

	store.CreateGame(ctx, "Doom")

	got := admin("setgameimage 1 https://example.com/doom.png")
	if got != "OK, updated game image for game **Doom**" {
		t.Errorf("reply = %q", got)
	}
	game, _ := store.GetGameByID(ctx, 1)
	if game.ImageURL == nil || *game.ImageURL != "https://example.com/doom.png" {
		t.Errorf("image url = %v", game.ImageURL)
	}

	if got := admin("setgameimage 1 ftp://nope"); got != "ERROR: Image URL should start with http or https, or be null" {
		t.Errorf("reply = %q", got)
	}

	admin("setgameimage 1 null")
	game, _ = store.GetGameByID(ctx, 1)
	if game.ImageURL != nil {
		t.Errorf("image url = %v, want cleared", game.ImageURL)
	}
}

func TestAdminReleaseYearBounds(t *testing.T) {
	r, store := newTestRouter(t, "admin-id")
	ctx := context.Background()
	admin := func(text string) string { return r.Route(ctx, "admin-id", "root", text) }

	store.CreateGame(ctx, "Doom")

	if got := admin("setgamereleaseyear 1 1993"); got != "OK! Set release year 1993 for game Doom" {
		t.Errorf("reply = %q", got)
	}
	// Fixed test clock puts the upper bound at 2026
	if got := admin("setgamereleaseyear 1 1949"); got != "ERROR: Invalid year 1949. It should be between 1950 and 2026." {
		t.Errorf("reply = %q", got)
	}
	if got := admin("setgamereleaseyear 1 2027"); got != "ERROR: Invalid year 2027. It should be between 1950 and 2026." {
		t.Errorf("reply = %q", got)
	}
}

func TestAdminPlatformCommands(t *testing.T) {
	r, store := newTestRouter(t, "admin-id")
	ctx := context.Background()
	admin := func(text string) string { return r.Route(ctx, "admin-id", "root", text) }

	got := admin("addplatform switch Nintendo Switch")
	if !strings.Contains(got, "Added new platform") || !strings.Contains(got, "Abbreviation: **switch**, Name: **Nintendo Switch**") {
		t.Errorf("reply = %q", got)
	}

	// Re-adding updates the name without a duplicate row
	got = admin("addplatform switch Switch 2")
	if strings.Contains(got, "Added new platform") {
		t.Errorf("reply = %q, re-add should not report a new platform", got)
	}

	if got := admin("delplatform switch"); got != "OK, deleted platform switch" {
		t.Errorf("reply = %q", got)
	}
	if got := admin("delplatform switch"); got != "Platform not found" {
		t.Errorf("reply = %q", got)
	}
	if p, _ := store.GetPlatformByAbbreviation(ctx, "switch"); p != nil {
		t.Error("platform should be gone")
	}
}

package gateway

import (
	"strings"
	"time"

	"github.com/oblivionis/tracker/internal/domain"
)

// Steam reports handheld play as a "Steam Deck" activity with the real
// game buried in the details line.
const steamDeckActivityName = "Steam Deck"

// assetBlacklist holds artwork URLs that describe the device rather than
// the game, so they never end up as game images.
var assetBlacklist = map[string]struct{}{
	// Steam Deck icon
	"https://cdn.discordapp.com/app-assets/1055680235682672682/1056080943783354388.png": {},
}

// GameNameFromActivity extracts the game name from a presence activity.
// Returns "" when no usable name is present.
func GameNameFromActivity(a *domain.PresenceActivity) string {
	if a.Name == steamDeckActivityName && a.Details != "" {
		return strings.TrimPrefix(a.Details, "Playing ")
	}
	return a.Name
}

// PlatformFromActivity picks the platform abbreviation for an activity.
// Steam Deck activities map to "steam-deck"; otherwise the reported
// platform is used lowercased, falling back to "pc".
func PlatformFromActivity(a *domain.PresenceActivity) string {
	if a.Name == steamDeckActivityName {
		return "steam-deck"
	}
	if a.Platform != "" {
		return strings.ToLower(a.Platform)
	}
	return "pc"
}

// SessionSeconds computes how long an ended activity ran. An activity
// without a start time cannot be timed and reports ok = false.
func SessionSeconds(a *domain.PresenceActivity, now time.Time) (int64, bool) {
	if a.StartedAt.IsZero() {
		return 0, false
	}
	return int64(now.Sub(a.StartedAt).Seconds()), true
}

// AssetsFromActivity returns the activity's artwork with blacklisted
// URLs dropped.
func AssetsFromActivity(a *domain.PresenceActivity) domain.ActivityAssets {
	assets := a.Assets
	if assets.SmallImageURL != nil {
		if _, banned := assetBlacklist[*assets.SmallImageURL]; banned {
			assets.SmallImageURL = nil
		}
	}
	if assets.LargeImageURL != nil {
		if _, banned := assetBlacklist[*assets.LargeImageURL]; banned {
			assets.LargeImageURL = nil
		}
	}
	return assets
}

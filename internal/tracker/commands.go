package tracker

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/oblivionis/tracker/internal/domain"
)

var (
	quotedNamePattern = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)
	startPattern      = regexp.MustCompile(`^start\s+"([^"]+)"(?:\s+(\S+))?`)
)

// cmdAdd handles: add "Game Name" <duration> [timestamp]
func (r *Router) cmdAdd(ctx context.Context, user *domain.User, text string) string {
	m := quotedNamePattern.FindStringSubmatch(text)
	if m == nil {
		return "ERROR: Could not extract game name"
	}
	gameName := m[1]
	if gameName == "" {
		gameName = m[2]
	}

	parts := strings.Fields(text)
	if len(parts) < 2 {
		return "ERROR: Duration is invalid"
	}

	var ts time.Time
	durationToken := parts[len(parts)-1]
	if strings.HasSuffix(strings.ToUpper(durationToken), "Z") {
		parsed, err := time.Parse(time.RFC3339, durationToken)
		if err != nil {
			return "ERROR: Date format is invalid"
		}
		ts = parsed.UTC()
		if len(parts) < 3 {
			return "ERROR: Duration is invalid"
		}
		durationToken = parts[len(parts)-2]
	}

	seconds, err := ParseDuration(durationToken)
	if err != nil {
		return "ERROR: Duration is invalid"
	}

	if _, err := r.t.AddSession(ctx, user, gameName, seconds, "", ts); err != nil {
		if KindOf(err) == KindTooShort {
			return "ERROR: " + replyFor(err)
		}
		return replyFor(err)
	}
	return "OK"
}

// cmdStart handles: start "Game Name" [platform]
func (r *Router) cmdStart(ctx context.Context, user *domain.User, text string) string {
	if _, running := r.t.sessions.Get(user.ID); running {
		return "You already have a manual session running. Please `" + r.prefix + "stop` before starting a new one."
	}

	m := startPattern.FindStringSubmatch(text)
	if m == nil {
		return "ERROR: Could not extract game name. Use `" + r.prefix + `start "Game Name" [platform]` + "`"
	}
	gameName := m[1]
	platform := strings.ToLower(m[2])

	used, err := r.t.StartSession(ctx, user, gameName, platform)
	if err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("You have started playing **%s** on **%s**.\nSend `%sstop` to end the session.", gameName, used, r.prefix)
}

// cmdStop handles: stop
func (r *Router) cmdStop(ctx context.Context, user *domain.User) string {
	activity, session, err := r.t.StopSession(ctx, user)
	if err != nil {
		switch KindOf(err) {
		case KindNotFound:
			return "You don't have a manual session running"
		case KindTooShort:
			return fmt.Sprintf("Session ended, but not saved because it was too short (minimum is %d secs)", r.t.minSeconds)
		default:
			return "ERROR: Could not save session. Your session will keep running. Please try again."
		}
	}
	return fmt.Sprintf("Session %d saved. You played **%s** for %s!", activity.ID, session.GameName, FormatHHMMSS(activity.Seconds))
}

// cmdMerge handles: merge <game_id1> <game_id2>
func (r *Router) cmdMerge(ctx context.Context, user *domain.User, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Invalid command format. Use: `" + r.prefix + "merge game_id1 game_id2`"
	}
	fromID, err1 := strconv.ParseInt(parts[0], 10, 64)
	toID, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return "Invalid game IDs. Please provide valid integers."
	}

	from, to, err := r.t.MergeGames(ctx, user, fromID, toID)
	if err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Game '%s' merged into '%s' successfully for your user", from.Name, to.Name)
}

// cmdRemove handles: remove <session_id>
func (r *Router) cmdRemove(ctx context.Context, user *domain.User, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 1 {
		return "Invalid command format. Use: `" + r.prefix + "remove session_id`"
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "Invalid session ID"
	}

	if err := r.t.RemoveSession(ctx, user, id); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Session %d removed successfully.", id)
}

// cmdPlatform handles: platform [name]
func (r *Router) cmdPlatform(ctx context.Context, user *domain.User, args string) string {
	if args == "" {
		return fmt.Sprintf("Your default platform is **%s**. Use `%splatform <name>` to change it.",
			r.t.defaultPlatformAbbr(ctx, user), r.prefix)
	}

	parts := strings.Fields(args)
	if len(parts) != 1 {
		return "Invalid command format. Use: `" + r.prefix + "platform <name>`"
	}

	platform, reply := r.lookupPlatform(ctx, parts[0])
	if platform == nil {
		return reply
	}
	if err := r.t.SetDefaultPlatform(ctx, user, platform); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Your default platform is now **%s**", platform.Abbreviation)
}

// cmdListPlatforms handles: listplatforms
func (r *Router) cmdListPlatforms(ctx context.Context) string {
	abbrs, err := r.platformAbbreviations(ctx)
	if err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Valid platforms are:\n\n`%s`", strings.Join(abbrs, ", "))
}

// cmdSetPlatform handles: setplatform <session_id | id1-id2> <platform>
func (r *Router) cmdSetPlatform(ctx context.Context, user *domain.User, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Invalid command format. Use: `" + r.prefix + "setplatform <session_id> <platform>`"
	}

	platform, reply := r.lookupPlatform(ctx, parts[1])
	if platform == nil {
		return reply
	}

	a, b, err := ParseIDRange(parts[0])
	if err != nil {
		return replyFor(err)
	}

	if a == b {
		if err := r.t.SetPlatformForSession(ctx, user, a, platform); err != nil {
			return replyFor(err)
		}
		return fmt.Sprintf("Platform for session %d has been set to **%s**", a, platform.Abbreviation)
	}

	r.t.SetPlatformForRange(ctx, user, a, b, platform)
	return fmt.Sprintf("OK! Platform has been set to **%s** for sessions %s", platform.Abbreviation, parts[0])
}

// cmdSetDate handles: setdate <session_id> <datetime>
func (r *Router) cmdSetDate(ctx context.Context, user *domain.User, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Invalid command format"
	}
	if !strings.HasSuffix(strings.ToUpper(parts[1]), "Z") {
		return "Invalid date format. Please provide the date in ISO8601 UTC format (e.g. `2023-10-01T12:00:00Z`)"
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return "Invalid session ID"
	}
	ts, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return "Date format is invalid"
	}

	if err := r.t.SetSessionDate(ctx, user, id, ts.UTC()); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Session %d date has been modified to %s", id, ts.UTC().Format("2006-01-02 15:04:05"))
}

// cmdSetGame handles: setgame <session_id | id1-id2> "Game Name"
func (r *Router) cmdSetGame(ctx context.Context, user *domain.User, args string) string {
	parts := strings.Split(args, `"`)
	if len(parts) < 3 {
		return "Invalid command format. Use: `" + r.prefix + `setgame <session_id> "Game Name"` + "` or `" + r.prefix + `setgame <session_id1-session_id2> "Game Name"` + "`"
	}
	gameName := strings.TrimSpace(parts[1])
	idsToken := strings.TrimSpace(parts[0])

	a, b, err := ParseIDRange(idsToken)
	if err != nil {
		return replyFor(err)
	}

	game, err := r.t.ResolveOrCreateGame(ctx, gameName)
	if err != nil {
		return fmt.Sprintf("Game '%s' not found or could not be created.", gameName)
	}

	if err := r.t.SetGameForRange(ctx, user, a, b, game); err != nil {
		return replyFor(err)
	}
	return fmt.Sprintf("Game has been set to **%s** for session(s) %s.", game.Name, idsToken)
}

// cmdLast handles: last [n]
func (r *Router) cmdLast(ctx context.Context, user *domain.User, args string) string {
	amount := 1
	if args != "" {
		n, err := strconv.Atoi(strings.Fields(args)[0])
		if err != nil {
			return "Invalid amount. Please provide a valid integer."
		}
		// A negative LIMIT means unlimited in SQLite
		amount = min(max(n, 1), 10)
	}

	details, err := r.t.RecentSessions(ctx, user, amount)
	if err != nil {
		return replyFor(err)
	}
	if len(details) == 0 {
		return "You have no sessions yet."
	}

	// Newest come first from the store; display oldest first
	var sb strings.Builder
	sb.WriteString("```\n")
	for i := len(details) - 1; i >= 0; i-- {
		d := details[i]
		fmt.Fprintf(&sb, "#%d\t%s UTC\t%s (%s)\t%s\n",
			d.ID, d.Timestamp.UTC().Format("2006-01-02 15:04:05"), d.GameName, d.Platform, FormatHHMMSS(d.Seconds))
	}
	sb.WriteString("```")
	return sb.String()
}

// lookupPlatform resolves a platform abbreviation, case-insensitively.
// On a miss the second return value is the reply listing valid platforms.
func (r *Router) lookupPlatform(ctx context.Context, abbr string) (*domain.Platform, string) {
	platform, err := r.t.store.GetPlatformByAbbreviation(ctx, strings.ToLower(abbr))
	if err != nil {
		return nil, "ERROR: Try again later"
	}
	if platform != nil {
		return platform, ""
	}
	abbrs, err := r.platformAbbreviations(ctx)
	if err != nil {
		return nil, "ERROR: Try again later"
	}
	return nil, fmt.Sprintf("Invalid platform. Valid platforms are: `%s`", strings.Join(abbrs, ", "))
}

func (r *Router) platformAbbreviations(ctx context.Context) ([]string, error) {
	platforms, err := r.t.store.ListPlatforms(ctx)
	if err != nil {
		return nil, persistencef(err, "ERROR: Try again later")
	}
	abbrs := make([]string, len(platforms))
	for i, p := range platforms {
		abbrs[i] = p.Abbreviation
	}
	return abbrs, nil
}

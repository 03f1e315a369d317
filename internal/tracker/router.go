package tracker

import (
	"context"
	"log"
	"strings"
)

// quoteNormalizer rewrites the curly quotes some mobile keyboards insert
// so quoted game names still parse.
var quoteNormalizer = strings.NewReplacer("“", `"`, "”", `"`)

// Router turns command text into reply text. The command prefix is
// already stripped by the gateway; replies that mention commands render
// it back so help stays accurate under a custom prefix.
type Router struct {
	t      *Tracker
	prefix string
	admins map[string]struct{}
}

// NewRouter creates a Router. The admin list holds gateway user ids.
func NewRouter(t *Tracker, prefix string, admins []string) *Router {
	set := make(map[string]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &Router{t: t, prefix: prefix, admins: set}
}

func (r *Router) isAdmin(userID string) bool {
	_, ok := r.admins[userID]
	return ok
}

// Route handles one command and returns the reply text. It never returns
// an empty reply and never lets a panic escape to the gateway.
func (r *Router) Route(ctx context.Context, callerID, callerName, text string) (reply string) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("Panic handling command from %s: %v", callerID, p)
			reply = "Error processing your message"
		}
	}()

	text = quoteNormalizer.Replace(strings.TrimSpace(text))

	user, err := r.t.store.GetOrCreateUser(ctx, callerID, callerName)
	if err != nil {
		log.Printf("Could not get user %s: %v", callerID, err)
		return "ERROR: Try again later"
	}

	if r.isAdmin(callerID) {
		switch {
		case strings.HasPrefix(text, "setgameimage"):
			return r.adminSetGameImage(ctx, argsAfter(text, "setgameimage"))
		case strings.HasPrefix(text, "removegameimages"):
			return r.adminRemoveGameImages(ctx, argsAfter(text, "removegameimages"))
		case strings.HasPrefix(text, "setsteamid"):
			return r.adminSetSteamID(ctx, argsAfter(text, "setsteamid"))
		case strings.HasPrefix(text, "setsgdbid"):
			return r.adminSetSGDBID(ctx, argsAfter(text, "setsgdbid"))
		case strings.HasPrefix(text, "addalias"):
			return r.adminAddAlias(ctx, argsAfter(text, "addalias"))
		case strings.HasPrefix(text, "delalias"):
			return r.adminDelAlias(ctx, argsAfter(text, "delalias"))
		case strings.HasPrefix(text, "setgamereleaseyear"):
			return r.adminSetReleaseYear(ctx, argsAfter(text, "setgamereleaseyear"))
		case strings.HasPrefix(text, "addplatform"):
			return r.adminAddPlatform(ctx, argsAfter(text, "addplatform"))
		case strings.HasPrefix(text, "delplatform"):
			return r.adminDelPlatform(ctx, argsAfter(text, "delplatform"))
		}
	}

	switch {
	case strings.HasPrefix(text, "help"):
		return r.helpText(r.isAdmin(callerID))
	case strings.HasPrefix(text, "add"):
		return r.cmdAdd(ctx, user, text)
	case strings.HasPrefix(text, "start"):
		return r.cmdStart(ctx, user, text)
	case strings.HasPrefix(text, "stop"):
		return r.cmdStop(ctx, user)
	case strings.HasPrefix(text, "merge"):
		return r.cmdMerge(ctx, user, argsAfter(text, "merge"))
	case strings.HasPrefix(text, "remove"):
		return r.cmdRemove(ctx, user, argsAfter(text, "remove"))
	case strings.HasPrefix(text, "platform"):
		return r.cmdPlatform(ctx, user, argsAfter(text, "platform"))
	case strings.HasPrefix(text, "listplatforms"):
		return r.cmdListPlatforms(ctx)
	case strings.HasPrefix(text, "setplatform"):
		return r.cmdSetPlatform(ctx, user, argsAfter(text, "setplatform"))
	case strings.HasPrefix(text, "setdate"):
		return r.cmdSetDate(ctx, user, argsAfter(text, "setdate"))
	case strings.HasPrefix(text, "setgame"):
		return r.cmdSetGame(ctx, user, argsAfter(text, "setgame"))
	case strings.HasPrefix(text, "last"):
		return r.cmdLast(ctx, user, argsAfter(text, "last"))
	default:
		return "Unknown command. Use `" + r.prefix + "help` to see available commands."
	}
}

// argsAfter strips the command word and returns the remaining arguments
func argsAfter(text, cmd string) string {
	return strings.TrimSpace(strings.TrimPrefix(text, cmd))
}

// replyFor renders an operation error as reply text. Operation errors
// already carry user-presentable messages; anything else stays generic.
func replyFor(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Message
	}
	return "ERROR: Try again later"
}

package tracker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/oblivionis/tracker/internal/domain"
)

// Admin command handlers. These are only reachable for gateway user ids
// on the configured admin list; the router gates the dispatch.

// adminSetGameImage handles: setgameimage <game_id> <url|null>
func (r *Router) adminSetGameImage(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Invalid command format. Use: `" + r.prefix + "setgameimage <game_id> <image_url>`"
	}
	game, reply := r.lookupGameByIDToken(ctx, parts[0])
	if game == nil {
		return reply
	}

	var url *string
	if parts[1] != "null" {
		if !strings.HasPrefix(parts[1], "http") {
			return "ERROR: Image URL should start with http or https, or be null"
		}
		url = &parts[1]
	}

	if err := r.t.store.UpdateGameImage(ctx, game.ID, url); err != nil {
		return "ERROR: Try again later"
	}
	r.t.emit(domain.EventGameUpdated, domain.GameUpdatedEvent{GameID: game.ID, GameName: game.Name})
	return fmt.Sprintf("OK, updated game image for game **%s**", game.Name)
}

// adminRemoveGameImages handles: removegameimages <game_id>
func (r *Router) adminRemoveGameImages(ctx context.Context, args string) string {
	game, reply := r.lookupGameByIDToken(ctx, strings.TrimSpace(args))
	if game == nil {
		return reply
	}
	if err := r.t.store.UpdateGameImage(ctx, game.ID, nil); err != nil {
		return "ERROR: Try again later"
	}
	r.t.emit(domain.EventGameUpdated, domain.GameUpdatedEvent{GameID: game.ID, GameName: game.Name})
	return fmt.Sprintf("Images for game '%s' removed successfully.", game.Name)
}

// adminSetSteamID handles: setsteamid <game_id> <steam_id|null>
func (r *Router) adminSetSteamID(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "Invalid command format. Use: `" + r.prefix + "setsteamid <game_id> <steam_id>`"
	}
	game, reply := r.lookupGameByIDToken(ctx, parts[0])
	if game == nil {
		return reply
	}

	steamID, ok := parseNullableID(parts[1])
	if !ok {
		return "ERROR: Invalid Steam ID. Please provide a valid integer or null."
	}
	if err := r.t.store.UpdateGameSteamID(ctx, game.ID, steamID); err != nil {
		return "ERROR: Try again later"
	}
	return fmt.Sprintf("OK! Set Steam ID %s for game %s", parts[1], game.Name)
}

// adminSetSGDBID handles: setsgdbid <game_id> <sgdb_id|null>
func (r *Router) adminSetSGDBID(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "ERROR: Invalid command format"
	}
	game, reply := r.lookupGameByIDToken(ctx, parts[0])
	if game == nil {
		return reply
	}

	sgdbID, ok := parseNullableID(parts[1])
	if !ok {
		return "ERROR: Invalid SGDB ID. Please provide a valid integer or null."
	}
	if err := r.t.store.UpdateGameSGDBID(ctx, game.ID, sgdbID); err != nil {
		return "ERROR: Try again later"
	}
	return fmt.Sprintf("OK! **%s** SGDB ID = **%s**", game.Name, parts[1])
}

// adminAddAlias handles: addalias <game_id> <alias...>
// Aliases are unique across all games, and may not shadow a canonical name.
func (r *Router) adminAddAlias(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "ERROR: Invalid command format. Use: `" + r.prefix + "addalias <game_id> <alias>`"
	}
	idToken := parts[0]
	alias := strings.TrimSpace(strings.Join(parts[1:], " "))

	if aliased, err := r.t.store.GetGameByAlias(ctx, alias); err != nil {
		return "ERROR: Try again later"
	} else if aliased != nil {
		return fmt.Sprintf("ERROR: Alias '%s' already exists for game %s (ID %d).", alias, aliased.Name, aliased.ID)
	}
	if named, err := r.t.store.GetGameByName(ctx, alias); err != nil {
		return "ERROR: Try again later"
	} else if named != nil {
		return fmt.Sprintf("ERROR: '%s' is already the name of game with ID %d.", alias, named.ID)
	}

	game, reply := r.lookupGameByIDToken(ctx, idToken)
	if game == nil {
		return reply
	}
	if err := r.t.store.AddGameAlias(ctx, game.ID, alias); err != nil {
		return "ERROR: Try again later"
	}
	return fmt.Sprintf("OK! Added alias '%s' for game %s", alias, game.Name)
}

// adminDelAlias handles: delalias <game_id> <alias...>
func (r *Router) adminDelAlias(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return "ERROR: Invalid command format. Use: `" + r.prefix + "delalias <game_id> <alias>`"
	}
	game, reply := r.lookupGameByIDToken(ctx, parts[0])
	if game == nil {
		return reply
	}
	alias := strings.TrimSpace(strings.Join(parts[1:], " "))

	existed, err := r.t.store.RemoveGameAlias(ctx, game.ID, alias)
	if err != nil {
		return "ERROR: Try again later"
	}
	if !existed {
		return fmt.Sprintf("Alias '%s' does not exist for game %s.", alias, game.Name)
	}
	return fmt.Sprintf("OK! Removed alias '%s' from game %s", alias, game.Name)
}

// adminSetReleaseYear handles: setgamereleaseyear <game_id> <year>
func (r *Router) adminSetReleaseYear(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "ERROR: Invalid command format. Use: `" + r.prefix + "setgamereleaseyear <game_id> <year>`"
	}
	year, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "ERROR: Invalid year. Please provide a valid integer."
	}
	yearNow := int64(r.t.now().Year())
	if year < 1950 || year > yearNow {
		return fmt.Sprintf("ERROR: Invalid year %d. It should be between 1950 and %d.", year, yearNow)
	}

	game, reply := r.lookupGameByIDToken(ctx, parts[0])
	if game == nil {
		return reply
	}
	if err := r.t.store.UpdateGameReleaseYear(ctx, game.ID, year); err != nil {
		return "ERROR: Try again later"
	}
	return fmt.Sprintf("OK! Set release year %d for game %s", year, game.Name)
}

// adminAddPlatform handles: addplatform <abbreviation> [name...]
// Adding an existing abbreviation updates its display name instead.
func (r *Router) adminAddPlatform(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "ERROR: Invalid command format. Use: `" + r.prefix + "addplatform <abbreviation> [name]`"
	}
	abbr := strings.ToLower(parts[0])
	name := strings.TrimSpace(strings.Join(parts[1:], " "))

	platform, created, err := r.t.store.GetOrCreatePlatform(ctx, abbr)
	if err != nil {
		return "ERROR: Try again later"
	}

	var namePtr *string
	if name != "" {
		namePtr = &name
	}
	if err := r.t.store.UpdatePlatformName(ctx, platform.ID, namePtr); err != nil {
		return "ERROR: Try again later"
	}

	var reply []string
	if created {
		reply = append(reply, "Added new platform")
	}
	reply = append(reply, fmt.Sprintf("Abbreviation: **%s**, Name: **%s**", abbr, name))
	return strings.Join(reply, "\n")
}

// adminDelPlatform handles: delplatform <abbreviation>
func (r *Router) adminDelPlatform(ctx context.Context, args string) string {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "ERROR: Invalid command format. Use: `" + r.prefix + "delplatform <abbreviation>`"
	}
	abbr := strings.ToLower(parts[0])

	platform, err := r.t.store.GetPlatformByAbbreviation(ctx, abbr)
	if err != nil {
		return "ERROR: Try again later"
	}
	if platform == nil {
		return "Platform not found"
	}
	if err := r.t.store.DeletePlatform(ctx, platform.ID); err != nil {
		return "ERROR: Try again later"
	}
	return "OK, deleted platform " + abbr
}

// lookupGameByIDToken resolves a numeric game id token. On a miss the
// second return value is the reply text.
func (r *Router) lookupGameByIDToken(ctx context.Context, token string) (*domain.Game, string) {
	id, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, "ERROR: Invalid game ID. Please provide a valid integer."
	}
	game, err := r.t.store.GetGameByID(ctx, id)
	if err != nil {
		return nil, "ERROR: Try again later"
	}
	if game == nil {
		return nil, fmt.Sprintf("ERROR: Game with ID %d not found.", id)
	}
	return game, ""
}

// parseNullableID parses an integer token where "null" means clear
func parseNullableID(token string) (*int64, bool) {
	if token == "null" {
		return nil, true
	}
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

package tracker

import "strings"

const helpTemplate = `
# Help:
- ` + "`{p}help`" + ` - Show this message

# Manual addition:
- ` + "`{p}add \"Game Name\" <duration> [datetime]`" + ` - Add a session of specified duration
    - Duration can be one of these formats:
        - ` + "`123`" + ` (eg ` + "`{p}add \"Game Name\" 3600`" + `)
        - ` + "`HH:MM:SS`" + ` (eg ` + "`{p}add \"Game Name\" 01:00:00`" + `)
        - ` + "`XXhYYmZZs`" + ` (eg ` + "`{p}add \"Game Name\" 1h30m15s`" + `)
    - If datetime is not provided, current time is used
        - If datetime is provided, it should be in ISO8601 UTC format (e.g. ` + "`2023-10-01T12:00:00Z`" + `)

# Manual start/stop:
- ` + "`{p}start \"Game Name\" [platform]`" + ` - Start a manual session
- ` + "`{p}stop`" + ` - Stop the current manually started session

# Sessions:
- ` + "`{p}last [n]`" + ` - Shows your last n sessions (default is 1, max is 10)

# Maintenance:
- ` + "`{p}merge <game_id1> <game_id2>`" + ` - Merge game_id1 into game_id2
- ` + "`{p}remove <session_id>`" + ` - Remove session with id

## Date:
- ` + "`{p}setdate <session_id> <datetime>`" + ` - Modify the date of a session. Date should be in ISO8601 UTC format (e.g. ` + "`2023-10-01T12:00:00Z`" + `)

## Platform:
- ` + "`{p}setplatform <session_id> <platform>`" + ` - Set the platform for a specific session
- ` + "`{p}setplatform <session_id1-session_id2> <platform>`" + ` - Set the platform for a range of sessions (e.g. ` + "`{p}setplatform 123-456 steam-deck`" + `)

## Game:
- ` + "`{p}setgame <session_id> \"Game Name\"`" + ` - Change the game of a specific session
    - This is useful if your session shows up as an emulator, and you would like to change it to the actual game you played
- ` + "`{p}setgame <session_id1-session_id2> \"Game Name\"`" + ` - Change the game for a range of sessions (e.g. ` + "`{p}setgame 123-456 \"New Game\"`" + `)

# Platform:
- ` + "`{p}platform`" + ` - Show your current default platform
- ` + "`{p}platform <name>`" + ` - Set your default platform
    - This is the platform used when platform cannot be automatically determined (e.g. manual sessions)
- ` + "`{p}listplatforms`" + ` - List all valid platforms
`

const adminHelpTemplate = `
# ☢️ Admin commands:
- ` + "`{p}setgameimage <game_id> <url|null>`" + `
- ` + "`{p}removegameimages <game_id>`" + `
- ` + "`{p}setsteamid <game_id> <steam_id|null>`" + `
- ` + "`{p}setsgdbid <game_id> <sgdb_id|null>`" + `
- ` + "`{p}addalias <game_id> <alias>`" + `
- ` + "`{p}delalias <game_id> <alias>`" + `
- ` + "`{p}setgamereleaseyear <game_id> <year>`" + `
- ` + "`{p}addplatform <abbreviation> [name]`" + `
- ` + "`{p}delplatform <abbreviation>`" + `
`

// helpText renders the command reference with the configured prefix
func (r *Router) helpText(isAdmin bool) string {
	text := helpTemplate
	if isAdmin {
		text += adminHelpTemplate
	}
	return strings.ReplaceAll(text, "{p}", r.prefix)
}

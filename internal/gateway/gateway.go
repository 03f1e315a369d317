package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/oblivionis/tracker/internal/domain"
	"github.com/oblivionis/tracker/internal/tracker"
)

// Gateway consumes chat traffic from a NATS-connected chat bridge. Direct
// messages arrive on <prefix>.dm as request/reply; presence changes arrive
// on <prefix>.presence as plain publishes.
type Gateway struct {
	conn          *nats.Conn
	router        *tracker.Router
	tracker       *tracker.Tracker
	subjectPrefix string
	commandPrefix string
	debug         bool

	subs []*nats.Subscription
	now  func() time.Time
}

// Config holds the gateway wiring options
type Config struct {
	URL           string
	SubjectPrefix string
	CommandPrefix string
	Debug         bool
}

// New connects to the NATS server and prepares a Gateway
func New(cfg Config, router *tracker.Router, t *tracker.Tracker) (*Gateway, error) {
	conn, err := nats.Connect(cfg.URL,
		nats.Name("oblivionis"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Printf("Gateway disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Printf("Gateway reconnected to %s", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to gateway: %w", err)
	}
	return &Gateway{
		conn:          conn,
		router:        router,
		tracker:       t,
		subjectPrefix: cfg.SubjectPrefix,
		commandPrefix: cfg.CommandPrefix,
		debug:         cfg.Debug,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

// Start subscribes to the DM and presence subjects
func (g *Gateway) Start() error {
	dmSub, err := g.conn.Subscribe(g.subjectPrefix+".dm", g.onDirectMessage)
	if err != nil {
		return fmt.Errorf("subscribing to dm subject: %w", err)
	}
	presenceSub, err := g.conn.Subscribe(g.subjectPrefix+".presence", g.onPresence)
	if err != nil {
		dmSub.Unsubscribe()
		return fmt.Errorf("subscribing to presence subject: %w", err)
	}
	g.subs = append(g.subs, dmSub, presenceSub)
	if g.debug {
		log.Printf("*** DEBUG MODE ENABLED ***")
	}
	log.Printf("Gateway listening on %s.dm and %s.presence", g.subjectPrefix, g.subjectPrefix)
	return nil
}

// Stop drains the subscriptions and closes the connection
func (g *Gateway) Stop() {
	for _, sub := range g.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("Draining subscription: %v", err)
		}
	}
	if err := g.conn.Drain(); err != nil {
		log.Printf("Draining gateway connection: %v", err)
	}
	g.conn.Close()
}

func (g *Gateway) onDirectMessage(msg *nats.Msg) {
	var dm domain.DirectMessage
	if err := json.Unmarshal(msg.Data, &dm); err != nil {
		log.Printf("Malformed dm payload: %v", err)
		return
	}

	text, ok := commandText(dm.Content, g.commandPrefix, g.debug)
	if !ok {
		return
	}

	// Replies go out per message so one slow command cannot stall the
	// subscription dispatcher.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Printf("<%s>: %s", dm.UserName, dm.Content)
		reply := g.router.Route(ctx, dm.UserID, dm.UserName, text)
		log.Printf("Replying to %s: %s", dm.UserName, reply)

		if msg.Reply == "" {
			return
		}
		if err := msg.Respond([]byte(reply)); err != nil {
			log.Printf("Replying to %s: %v", dm.UserName, err)
		}
	}()
}

func (g *Gateway) onPresence(msg *nats.Msg) {
	var update domain.PresenceUpdate
	if err := json.Unmarshal(msg.Data, &update); err != nil {
		log.Printf("Malformed presence payload: %v", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g.handlePresence(ctx, update)
	}()
}

// handlePresence records a session when a playing activity ends. A new
// activity starting is only logged; the session is counted at its end.
func (g *Gateway) handlePresence(ctx context.Context, update domain.PresenceUpdate) {
	if update.Before == nil {
		return
	}

	if update.After == nil && update.Before.Type == "playing" {
		activity := update.Before
		seconds, ok := SessionSeconds(activity, g.now())
		if !ok {
			log.Printf("Dropping untimed session of %q for %s, no start time", activity.Name, update.UserName)
			return
		}

		game := GameNameFromActivity(activity)
		if game == "" {
			log.Printf("No game found in activity %q for %s", activity.Name, update.UserName)
			return
		}

		if err := g.tracker.UpdateGameAssets(ctx, game, AssetsFromActivity(activity)); err != nil {
			log.Printf("Updating assets for %q: %v", game, err)
		}

		user, err := g.tracker.User(ctx, update.UserID, update.UserName)
		if err != nil {
			log.Printf("Could not get user %s: %v", update.UserID, err)
			return
		}

		platform := PlatformFromActivity(activity)
		log.Printf("%s has stopped playing %s on %s after %d seconds", update.UserName, game, platform, seconds)
		if _, err := g.tracker.AddSession(ctx, user, game, seconds, platform, time.Time{}); err != nil {
			if tracker.KindOf(err) == tracker.KindTooShort {
				log.Printf("Dropping %d second session of %s for %s, below minimum", seconds, game, update.UserName)
				return
			}
			log.Printf("Could not record session for %s: %v", update.UserID, err)
		}
		return
	}

	if update.After != nil && update.After.Type == "playing" {
		game := GameNameFromActivity(update.After)
		platform := PlatformFromActivity(update.After)
		log.Printf("%s has started playing %s on %s", update.UserName, game, platform)
	}
}

// commandText strips the command prefix. A doubled prefix is the debug
// escape hatch: honored only in debug mode, ignored otherwise so a
// production instance stays quiet next to a development one.
func commandText(content, prefix string, debug bool) (string, bool) {
	if prefix == "" {
		return content, content != ""
	}
	doubled := prefix + prefix
	if len(content) >= len(doubled) && content[:len(doubled)] == doubled {
		if !debug {
			return "", false
		}
		return content[len(doubled):], true
	}
	if len(content) >= len(prefix) && content[:len(prefix)] == prefix {
		return content[len(prefix):], true
	}
	return "", false
}

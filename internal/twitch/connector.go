package twitch

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/gempir/go-twitch-irc/v4"
	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/ingest"
	"github.com/john/livefeed/internal/message"
)

// Platform is the name reported to the pipeline
const Platform = "twitch"

// ircClient is the subset of *twitch.Client the connector drives
type ircClient interface {
	OnPrivateMessage(func(twitch.PrivateMessage))
	OnConnect(func())
	OnReconnectMessage(func(twitch.ReconnectMessage))
	Join(channels ...string)
	Connect() error
	Disconnect() error
}

// Connector manages the Twitch chat connection
type Connector struct {
	username  string
	oauth     string
	channel   string
	client    ircClient
	newClient func(username, oauth string) ircClient
	log       zerolog.Logger
}

func newIRCClient(username, oauth string) ircClient {
	return twitch.NewClient(username, oauth)
}

// New creates a new Twitch connector for a single channel
func New(username, oauth, channel string, logger zerolog.Logger) *Connector {
	return &Connector{
		username:  username,
		oauth:     oauth,
		channel:   strings.TrimPrefix(strings.ToLower(channel), "#"),
		newClient: newIRCClient,
		log:       logger.With().Str("platform", Platform).Logger(),
	}
}

// Start listens to Twitch chat and forwards messages to sink until ctx is cancelled
func (c *Connector) Start(ctx context.Context, sink ingest.PlatformSink) error {
	c.client = c.newClient(c.username, normalizeOAuth(c.oauth))

	c.client.OnPrivateMessage(func(msg twitch.PrivateMessage) {
		if ctx.Err() != nil {
			return
		}

		pm := toPlatformMessage(c.username, msg)
		added, err := sink.HandlePlatform(ctx, pm)
		if err != nil {
			if !errors.Is(err, ingest.ErrClosed) {
				c.log.Warn().Err(err).Msg("failed to ingest message")
			}
			return
		}
		if added {
			c.log.Debug().Str("username", pm.Username).Msg("message added to feed")
		}
	})

	c.client.OnConnect(func() {
		c.log.Info().Str("channel", c.channel).Msg("connected to Twitch IRC")
		sink.SetConnected(Platform, true)
	})

	c.client.OnReconnectMessage(func(msg twitch.ReconnectMessage) {
		c.log.Info().Msg("reconnecting to Twitch IRC...")
	})

	c.client.Join(c.channel)
	c.log.Info().Str("channel", c.channel).Msg("joined channel")

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := c.client.Connect()
		sink.SetConnected(Platform, false)
		if err != nil && !errors.Is(err, twitch.ErrClientDisconnected) {
			c.log.Error().Err(err).Msg("Twitch IRC connection error")
			return
		}
		c.log.Info().Msg("disconnected from Twitch IRC")
	}()

	select {
	case <-ctx.Done():
	case <-done:
		// Connection ended on its own; no retry beyond the client's own reconnects
		return nil
	}

	c.log.Info().Msg("disconnecting from Twitch IRC...")
	if err := c.client.Disconnect(); err != nil {
		// Between reconnect attempts the client refuses to disconnect and
		// Connect would keep retrying, so don't wait for it
		c.log.Warn().Err(err).Msg("disconnect failed")
		return ctx.Err()
	}
	<-done

	return ctx.Err()
}

// toPlatformMessage converts an IRC PRIVMSG into the pipeline's shape
func toPlatformMessage(botUsername string, msg twitch.PrivateMessage) ingest.PlatformMessage {
	name := msg.User.DisplayName
	if name == "" {
		name = msg.User.Name
	}

	return ingest.PlatformMessage{
		Platform: Platform,
		Channel:  strings.TrimPrefix(msg.Channel, "#"),
		UserID:   msg.User.ID,
		Username: name,
		Content:  msg.Message,
		Self:     strings.EqualFold(msg.User.Name, botUsername),
		Badges:   formatBadges(msg.User.Badges),
	}
}

// formatBadges converts the badge map into display badges, ordered by name
func formatBadges(badges map[string]int) []message.Badge {
	if len(badges) == 0 {
		return nil
	}

	names := make([]string, 0, len(badges))
	for name := range badges {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]message.Badge, 0, len(names))
	for _, name := range names {
		version := strconv.Itoa(badges[name])
		switch name {
		case "bits", "bits-leader":
			out = append(out, message.Badge{Icon: "💎", Text: version, Type: message.BadgeLevel})
		case "subscriber", "founder":
			out = append(out, message.Badge{Icon: "❤️", Text: version, Type: message.BadgeRank})
		default:
			out = append(out, message.Badge{Icon: "🎯", Text: name, Type: message.BadgeSpecial})
		}
	}
	return out
}

// normalizeOAuth adds the "oauth:" prefix IRC expects if it is missing
func normalizeOAuth(token string) string {
	if token == "" || strings.HasPrefix(token, "oauth:") {
		return token
	}
	return "oauth:" + token
}

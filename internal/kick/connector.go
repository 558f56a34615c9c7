package kick

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	kickchat "github.com/johanvandegriff/kick-chat-wrapper"
	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/ingest"
	"github.com/john/livefeed/internal/message"
)

// Platform is the name reported to the pipeline
const Platform = "kick"

// ChannelConfig is a Kick channel with an optional pre-resolved chatroom ID
type ChannelConfig struct {
	Slug       string
	ChatroomID int // 0 means resolve through the API
}

// Connector manages Kick chat connections
type Connector struct {
	channels []ChannelConfig
	avatar   string
	resolver *Resolver
	idToSlug map[int]string
	client   *kickchat.Client
	log      zerolog.Logger
}

// New creates a Kick connector. Kick messages carry no avatar, so every
// sender is shown with the given avatar URL.
func New(channels []ChannelConfig, avatar string, resolver *Resolver, logger zerolog.Logger) *Connector {
	if resolver == nil {
		resolver = NewResolver("")
	}
	return &Connector{
		channels: channels,
		avatar:   avatar,
		resolver: resolver,
		idToSlug: make(map[int]string),
		log:      logger.With().Str("platform", Platform).Logger(),
	}
}

// Start listens to Kick chat and forwards messages to sink until ctx is cancelled
func (c *Connector) Start(ctx context.Context, sink ingest.PlatformSink) error {
	c.resolveAll(ctx)
	if len(c.idToSlug) == 0 {
		sink.SetConnected(Platform, false)
		return fmt.Errorf("no valid Kick channels could be resolved")
	}

	client, err := kickchat.NewClient()
	if err != nil {
		sink.SetConnected(Platform, false)
		return fmt.Errorf("failed to create Kick client: %w", err)
	}
	c.client = client
	sink.SetConnected(Platform, true)
	c.log.Info().Msg("connected to Kick WebSocket")

	for chatroomID, slug := range c.idToSlug {
		if err := c.client.JoinChannelByID(chatroomID); err != nil {
			c.log.Warn().Err(err).Str("channel", slug).Int("chatroom_id", chatroomID).Msg("failed to join channel")
			continue
		}
		c.log.Info().Str("channel", slug).Msg("joined channel")
	}

	messages := c.client.ListenForMessages()

	go func() {
		for {
			select {
			case msg, ok := <-messages:
				if !ok {
					c.log.Info().Msg("Kick message channel closed")
					sink.SetConnected(Platform, false)
					return
				}

				pm, ok := c.convertMessage(msg)
				if !ok {
					continue
				}
				if _, err := sink.HandlePlatform(ctx, pm); err != nil && !errors.Is(err, ingest.ErrClosed) {
					c.log.Warn().Err(err).Msg("failed to ingest message")
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()

	c.log.Info().Msg("disconnecting from Kick chat...")
	c.client.Close()
	sink.SetConnected(Platform, false)

	return ctx.Err()
}

// resolveAll fills idToSlug, skipping channels that cannot be resolved
func (c *Connector) resolveAll(ctx context.Context) {
	for _, channel := range c.channels {
		if channel.ChatroomID > 0 {
			c.idToSlug[channel.ChatroomID] = channel.Slug
			c.log.Info().Str("channel", channel.Slug).Int("chatroom_id", channel.ChatroomID).Msg("using pre-configured channel")
			continue
		}

		chatroomID, slug, err := c.resolver.Resolve(ctx, channel.Slug)
		if err != nil {
			c.log.Warn().Err(err).Str("channel", channel.Slug).Msg("failed to resolve channel, skipping")
			continue
		}
		c.idToSlug[chatroomID] = slug
		c.log.Info().Str("channel", slug).Int("chatroom_id", chatroomID).Msg("resolved channel")
	}
}

// convertMessage converts a Kick chat message to the pipeline's shape
func (c *Connector) convertMessage(msg kickchat.ChatMessage) (ingest.PlatformMessage, bool) {
	slug, ok := c.idToSlug[msg.ChatroomID]
	if !ok {
		c.log.Warn().Int("chatroom_id", msg.ChatroomID).Msg("message from unknown chatroom")
		return ingest.PlatformMessage{}, false
	}

	return ingest.PlatformMessage{
		Platform: Platform,
		Channel:  slug,
		UserID:   strconv.Itoa(msg.Sender.ID),
		Username: msg.Sender.Username,
		Content:  msg.Content,
		Badges:   formatBadges(msg.Sender.Identity.Badges),
		Avatar:   c.avatar,
	}, true
}

// formatBadges converts Kick badges to display badges
func formatBadges(badges []kickchat.Badge) []message.Badge {
	if len(badges) == 0 {
		return nil
	}

	out := make([]message.Badge, 0, len(badges))
	for _, badge := range badges {
		b := message.Badge{Icon: "🎯", Text: badge.Text, Type: message.BadgeSpecial}
		switch badge.Type {
		case "subscriber", "og", "founder":
			b.Icon = "❤️"
			b.Type = message.BadgeRank
		case "sub_gifter":
			b.Icon = "💎"
			b.Type = message.BadgeLevel
		}
		if b.Text == "" {
			b.Text = badge.Type
		}
		out = append(out, b)
	}
	return out
}

package ingest

import (
	"context"

	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/message"
)

// PlatformMessage is a chat message received from an external chat platform
type PlatformMessage struct {
	Platform string
	Channel  string
	UserID   string
	Username string
	Content  string
	// Self marks echoes of messages sent by our own account
	Self   bool
	Badges []message.Badge
	// Avatar skips the lookup when already known
	Avatar string
}

// PlatformSink receives messages and connection changes from platform clients
type PlatformSink interface {
	HandlePlatform(ctx context.Context, msg PlatformMessage) (bool, error)
	SetConnected(platform string, connected bool)
}

// HandlePlatform resolves the sender's avatar, drops self echoes and
// duplicates, and appends the rest to the feed.
func (p *Pipeline) HandlePlatform(ctx context.Context, msg PlatformMessage) (bool, error) {
	if !p.cfg.PlatformEnabled {
		return false, ErrPlatformDisabled
	}
	if msg.Self {
		return false, nil
	}

	// The lookup may block on the network, so it runs before taking the lock
	avatarURL := msg.Avatar
	if avatarURL == "" {
		avatarURL = p.avatars.Resolve(ctx, msg.UserID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrClosed
	}

	if !p.dedup.Admit(msg.Username, msg.Content) {
		p.log.Debug().
			Str("platform", msg.Platform).
			Str("username", msg.Username).
			Msg("suppressed duplicate platform message")
		return false, nil
	}

	content := p.externalContent(msg.Content)
	if content == "" {
		return false, nil
	}

	p.store.AddComment(content, feed.CommentOptions{
		User:   msg.Username,
		Avatar: avatarURL,
		Badges: msg.Badges,
		Type:   message.TypeRegular,
	})
	p.store.TriggerLike()
	p.forceCooldown()

	return true, nil
}

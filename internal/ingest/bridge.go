package ingest

import (
	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/message"
)

// EventNewChatData is the only bridge event type that carries chat content
const EventNewChatData = "NEW_CHAT_DATA"

// BridgeEvent is a structured posting delivered over the cross-window bridge
type BridgeEvent struct {
	Type    string               `json:"type"`
	Payload *message.ChatMessage `json:"payload"`
}

// WellFormed reports whether ev is a chat event with every payload field present
func (ev BridgeEvent) WellFormed() bool {
	if ev.Type != EventNewChatData || ev.Payload == nil {
		return false
	}
	p := ev.Payload
	return p.Username != "" && p.ChatContent != "" && p.Timestamp != "" && p.Avatar != ""
}

// BridgeSink receives events from the cross-window bridge transport
type BridgeSink interface {
	HandleBridge(ev BridgeEvent) (bool, error)
}

// HandleBridge appends a well-formed bridge event to the feed. Malformed and
// foreign events are dropped without a notice and report false.
func (p *Pipeline) HandleBridge(ev BridgeEvent) (bool, error) {
	if !p.cfg.BridgeEnabled {
		return false, ErrBridgeDisabled
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrClosed
	}

	if !ev.WellFormed() {
		p.log.Debug().Str("type", ev.Type).Msg("dropping malformed bridge event")
		return false, nil
	}

	content := p.externalContent(ev.Payload.ChatContent)
	if content == "" {
		p.log.Debug().Str("username", ev.Payload.Username).Msg("dropping empty bridge message")
		return false, nil
	}

	p.store.AddComment(content, feed.CommentOptions{
		User:   ev.Payload.Username,
		Avatar: ev.Payload.Avatar,
		Type:   message.TypeRegular,
	})
	p.store.TriggerLike()
	p.forceCooldown()

	return true, nil
}

package ingest

import (
	"fmt"
	"strings"

	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/message"
	"github.com/john/livefeed/internal/validate"
)

// Status is the result of a local submit
type Status string

const (
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusRateLimited Status = "rate_limited"
)

// Outcome describes what a local submit did. Exactly one of Message and
// Notice is set.
type Outcome struct {
	Status  Status                  `json:"status"`
	Message *message.DisplayMessage `json:"message,omitempty"`
	Notice  *message.SystemNotice   `json:"notice,omitempty"`
}

// SubmitLocal posts text typed by the viewer. Rejections are reported as an
// Outcome with a notice, never as an error.
func (p *Pipeline) SubmitLocal(text string) (Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Outcome{}, ErrClosed
	}

	trimmed := strings.TrimSpace(text)

	result := p.validator.Validate(trimmed)
	if !result.Valid {
		return p.reject(result.Reason), nil
	}

	// Markup-only input passes the length check but leaves nothing to show
	clean := validate.Sanitize(trimmed)
	if clean == "" {
		return p.reject(""), nil
	}

	if ok, left := p.limiter.Allow(); !ok {
		n := p.notices.Push(fmt.Sprintf("Please wait %d seconds before sending..", left))
		p.log.Debug().Int("seconds_left", left).Msg("local message rate limited")
		return Outcome{Status: StatusRateLimited, Notice: &n}, nil
	}

	entry := p.store.AddComment(clean, feed.CommentOptions{})
	p.limiter.Trigger()

	return Outcome{Status: StatusAccepted, Message: &entry}, nil
}

func (p *Pipeline) reject(reason string) Outcome {
	if reason == "" {
		reason = DefaultInvalidMessage
	}
	n := p.notices.Push(reason)
	p.log.Debug().Str("reason", reason).Msg("local message rejected")
	return Outcome{Status: StatusRejected, Notice: &n}
}

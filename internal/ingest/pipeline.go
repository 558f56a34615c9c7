// Package ingest merges local, bridged and platform chat messages into the feed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"github.com/john/livefeed/internal/avatar"
	"github.com/john/livefeed/internal/cooldown"
	"github.com/john/livefeed/internal/dedup"
	"github.com/john/livefeed/internal/feed"
	"github.com/john/livefeed/internal/message"
	"github.com/john/livefeed/internal/notice"
	"github.com/john/livefeed/internal/validate"
)

// DefaultInvalidMessage is shown when the validator rejects text without a reason
const DefaultInvalidMessage = "Invalid message"

var (
	// ErrClosed is returned for any message handled after Close
	ErrClosed = errors.New("ingest pipeline closed")
	// ErrBridgeDisabled is returned when a bridge event arrives while the bridge is off
	ErrBridgeDisabled = errors.New("cross-window bridge disabled")
	// ErrPlatformDisabled is returned when a platform message arrives while platform clients are off
	ErrPlatformDisabled = errors.New("platform client disabled")
)

// Validator decides whether locally typed text may be posted
type Validator interface {
	Validate(text string) validate.Result
}

// AvatarResolver looks up a profile image for a platform user id.
// It returns a usable URL in every case, falling back to a default.
type AvatarResolver interface {
	Resolve(ctx context.Context, userID string) string
}

// Config selects which producers are wired and how external messages are treated
type Config struct {
	BridgeEnabled   bool
	PlatformEnabled bool
	// SanitizeExternal runs bridge and platform content through the sanitizer
	SanitizeExternal bool
	// ExternalCooldownSeconds is forced onto the local limiter by every
	// external message; zero leaves the limiter alone
	ExternalCooldownSeconds int
}

// Deps are the collaborators the pipeline drives
type Deps struct {
	Store     *feed.Store
	Limiter   *cooldown.Limiter
	Notices   *notice.Queue
	Dedup     *dedup.Filter
	Validator Validator
	Avatars   AvatarResolver
	Clock     clock.Clock
	Logger    zerolog.Logger
}

// Pipeline serializes every producer into single-step feed mutations
type Pipeline struct {
	cfg       Config
	store     *feed.Store
	limiter   *cooldown.Limiter
	notices   *notice.Queue
	dedup     *dedup.Filter
	validator Validator
	avatars   AvatarResolver
	clock     clock.Clock
	log       zerolog.Logger

	// mu stands in for the single event loop: one handled event at a time
	mu     sync.Mutex
	closed bool

	statusMu sync.RWMutex
	status   map[string]bool
}

// New creates a pipeline. Store, Limiter, Notices, Dedup and Validator are
// required; without Avatars every platform sender gets the default avatar.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Store == nil || deps.Limiter == nil || deps.Notices == nil || deps.Dedup == nil || deps.Validator == nil {
		return nil, fmt.Errorf("ingest: missing required dependency")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Avatars == nil {
		deps.Avatars = avatar.Static(avatar.DefaultURL)
	}

	return &Pipeline{
		cfg:       cfg,
		store:     deps.Store,
		limiter:   deps.Limiter,
		notices:   deps.Notices,
		dedup:     deps.Dedup,
		validator: deps.Validator,
		avatars:   deps.Avatars,
		clock:     deps.Clock,
		log:       deps.Logger,
		status:    make(map[string]bool),
	}, nil
}

// Run prunes expired notices once per second until ctx is done
func (p *Pipeline) Run(ctx context.Context) error {
	ticker := p.clock.Ticker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick()
		case <-ctx.Done():
			p.Close()
			return ctx.Err()
		}
	}
}

func (p *Pipeline) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	if n := p.notices.Prune(); n > 0 {
		p.log.Debug().Int("count", n).Msg("pruned expired notices")
	}
}

// Close stops the pipeline from accepting further messages. Producers whose
// callbacks fire after teardown get ErrClosed and nothing is appended.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Cooldown returns the local send limiter state
func (p *Pipeline) Cooldown() cooldown.State {
	return p.limiter.State()
}

// Notices returns the live system notices
func (p *Pipeline) Notices() []message.SystemNotice {
	return p.notices.Snapshot()
}

// SetConnected records a platform client's connection state
func (p *Pipeline) SetConnected(platform string, connected bool) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status[platform] = connected
}

// Status returns the connection state of every platform client seen so far
func (p *Pipeline) Status() map[string]bool {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()

	out := make(map[string]bool, len(p.status))
	for k, v := range p.status {
		out[k] = v
	}
	return out
}

// forceCooldown applies the external-message side effect on the local limiter
func (p *Pipeline) forceCooldown() {
	if p.cfg.ExternalCooldownSeconds > 0 {
		p.limiter.Force(p.cfg.ExternalCooldownSeconds)
	}
}

func (p *Pipeline) externalContent(content string) string {
	content = strings.TrimSpace(content)
	if p.cfg.SanitizeExternal {
		content = validate.Sanitize(content)
	}
	return content
}

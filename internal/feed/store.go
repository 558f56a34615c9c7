// Package feed owns the ordered, capped sequence of chat entries shown to the viewer.
package feed

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/john/livefeed/internal/message"
)

const (
	// DefaultCapacity is the number of entries retained when none is configured
	DefaultCapacity = 100
	// DefaultBurstWindow is the sliding window used for the like multiplier
	DefaultBurstWindow = 5 * time.Second
	// DefaultBurstThreshold is the burst size at which the multiplier is shown
	DefaultBurstThreshold = 5
)

// Renderer is the single consumer notified of feed changes
type Renderer interface {
	// ScrollToBottom is called after every append with the new tail entry
	ScrollToBottom(last message.DisplayMessage)
	// LikeTriggered is called after the like counter changes
	LikeTriggered(state LikeState)
}

// Identity is the name and avatar used for entries that do not supply their own
type Identity struct {
	Name   string
	Avatar string
}

// Options configures a Store
type Options struct {
	Capacity       int
	BurstWindow    time.Duration
	BurstThreshold int
	Viewer         Identity
	Clock          clock.Clock
	Renderer       Renderer
}

// LikeState is what the renderer animates against
type LikeState struct {
	Count             int   `json:"count"`
	LastLikeTimestamp int64 `json:"lastLikeTimestamp"` // Unix milliseconds, 0 before the first like
	Burst             int   `json:"burst"`
	ShowMultiplier    bool  `json:"showMultiplier"`
}

// Snapshot is a consistent copy of the store
type Snapshot struct {
	Messages []message.DisplayMessage `json:"messages"`
	Likes    LikeState                `json:"likes"`
}

// Store is an append-only feed with a fixed capacity
type Store struct {
	capacity int
	viewer   Identity
	clock    clock.Clock
	renderer Renderer
	burst    *burstCounter

	mu       sync.RWMutex
	messages []message.DisplayMessage
	likes    LikeState
}

// New creates an empty store
func New(opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.BurstWindow <= 0 {
		opts.BurstWindow = DefaultBurstWindow
	}
	if opts.BurstThreshold <= 0 {
		opts.BurstThreshold = DefaultBurstThreshold
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &Store{
		capacity: opts.Capacity,
		viewer:   opts.Viewer,
		clock:    opts.Clock,
		renderer: opts.Renderer,
		burst:    newBurstCounter(opts.BurstWindow, opts.BurstThreshold),
		messages: make([]message.DisplayMessage, 0, opts.Capacity),
	}
}

// CommentOptions describes an entry built by AddComment
type CommentOptions struct {
	User     string
	Avatar   string
	IsSystem bool
	Badges   []message.Badge
	Type     message.MessageType
	Metadata *message.Metadata
}

// AddComment builds an entry for text, appends it and returns the stored copy.
// Empty User and Avatar fall back to the viewer identity.
func (s *Store) AddComment(text string, opts CommentOptions) message.DisplayMessage {
	entry := message.DisplayMessage{
		User:        opts.User,
		Message:     text,
		Avatar:      opts.Avatar,
		IsSystem:    opts.IsSystem,
		Badges:      opts.Badges,
		MessageType: opts.Type,
		Metadata:    opts.Metadata,
	}
	if entry.User == "" {
		entry.User = s.viewer.Name
	}
	if entry.Avatar == "" {
		entry.Avatar = s.viewer.Avatar
	}
	if entry.MessageType == "" {
		entry.MessageType = message.TypeRegular
		if entry.IsSystem {
			entry.MessageType = message.TypeSystem
		}
	}
	return s.Append(entry)
}

// Append adds entry to the tail, evicting the oldest entries beyond capacity.
// A missing ID or timestamp is filled in. The stored copy is returned.
func (s *Store) Append(entry message.DisplayMessage) message.DisplayMessage {
	entry = entry.Clone()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == 0 {
		entry.Timestamp = s.clock.Now().UnixMilli()
	}
	if entry.MessageType == "" {
		entry.MessageType = message.TypeRegular
	}

	s.mu.Lock()
	start := 0
	if len(s.messages)+1 > s.capacity {
		start = len(s.messages) + 1 - s.capacity
	}
	// Build a new slice so readers holding the previous one never see a partial update
	next := make([]message.DisplayMessage, 0, s.capacity)
	next = append(next, s.messages[start:]...)
	next = append(next, entry)
	s.messages = next
	s.mu.Unlock()

	if s.renderer != nil {
		s.renderer.ScrollToBottom(entry.Clone())
	}
	return entry.Clone()
}

// TriggerLike increments the shared like counter and stamps the like time
func (s *Store) TriggerLike() LikeState {
	now := s.clock.Now()

	s.mu.Lock()
	s.likes.Count++
	s.likes.LastLikeTimestamp = now.UnixMilli()
	state := s.likes
	s.mu.Unlock()

	if s.renderer != nil {
		s.renderer.LikeTriggered(state)
	}
	return state
}

// Tap records a press of the like button: the press counts toward the burst
// multiplier and triggers a like.
func (s *Store) Tap() LikeState {
	now := s.clock.Now()

	s.mu.Lock()
	burst, show := s.burst.record(now)
	s.likes.Burst = burst
	s.likes.ShowMultiplier = show
	s.mu.Unlock()

	return s.TriggerLike()
}

// Likes returns the current like state with the burst recomputed for now
func (s *Store) Likes() LikeState {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.likes.Burst, s.likes.ShowMultiplier = s.burst.count(now)
	return s.likes
}

// Messages returns a copy of the feed, oldest first
func (s *Store) Messages() []message.DisplayMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.messages)
}

// Len returns the number of retained entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Snapshot returns messages and like state taken under one lock
func (s *Store) Snapshot() Snapshot {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.likes.Burst, s.likes.ShowMultiplier = s.burst.count(now)
	return Snapshot{
		Messages: cloneAll(s.messages),
		Likes:    s.likes,
	}
}

func cloneAll(in []message.DisplayMessage) []message.DisplayMessage {
	out := make([]message.DisplayMessage, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

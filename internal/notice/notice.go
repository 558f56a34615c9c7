// Package notice holds short-lived local warnings shown next to the chat input.
package notice

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/john/livefeed/internal/message"
)

// DefaultTTL is how long a notice stays visible after creation
const DefaultTTL = 2 * time.Second

type entry struct {
	notice    message.SystemNotice
	createdAt time.Time
}

// Queue is an uncapped list of notices that expire TTL after creation
type Queue struct {
	clock clock.Clock
	ttl   time.Duration

	mu      sync.Mutex
	entries []entry
}

// New creates a notice queue. A zero ttl uses DefaultTTL.
func New(clk clock.Clock, ttl time.Duration) *Queue {
	if clk == nil {
		clk = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{clock: clk, ttl: ttl}
}

// Push creates a notice with the given text and returns it
func (q *Queue) Push(text string) message.SystemNotice {
	now := q.clock.Now()
	n := message.SystemNotice{
		ID:        uuid.NewString(),
		Message:   text,
		IsSystem:  true,
		Timestamp: now.UnixMilli(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	// Replace rather than append in place so earlier snapshots stay intact
	next := make([]entry, len(q.entries), len(q.entries)+1)
	copy(next, q.entries)
	q.entries = append(next, entry{notice: n, createdAt: now})

	return n
}

// Prune drops expired notices and returns how many were removed
func (q *Queue) Prune() int {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	live := make([]entry, 0, len(q.entries))
	for _, e := range q.entries {
		if q.alive(e, now) {
			live = append(live, e)
		}
	}

	removed := len(q.entries) - len(live)
	if removed > 0 {
		q.entries = live
	}
	return removed
}

// Snapshot returns the notices still alive, oldest first. Expired notices
// are never returned even if Prune has not run yet.
func (q *Queue) Snapshot() []message.SystemNotice {
	now := q.clock.Now()

	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]message.SystemNotice, 0, len(q.entries))
	for _, e := range q.entries {
		if q.alive(e, now) {
			out = append(out, e.notice)
		}
	}
	return out
}

// Len returns the number of stored notices, including expired ones not yet pruned
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *Queue) alive(e entry, now time.Time) bool {
	return now.Sub(e.createdAt) < q.ttl
}

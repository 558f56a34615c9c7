// Package cooldown gates local sends behind a per-second countdown.
package cooldown

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultSeconds is the configured cooldown after a local send unless overridden
const DefaultSeconds = 1

// State is a read-only view of the limiter
type State struct {
	CanSend          bool `json:"canSend"`
	SecondsRemaining int  `json:"cooldownRemainingSeconds"`
}

// Limiter is a READY/COOLING state machine. The countdown is armed from the
// moment of Trigger or Force and loses one second per elapsed second.
type Limiter struct {
	seconds int
	clock   clock.Clock

	mu    sync.Mutex
	until time.Time
}

// New creates a limiter in the READY state. A zero seconds value disables
// the cooldown after local sends.
func New(clk clock.Clock, seconds int) *Limiter {
	if clk == nil {
		clk = clock.New()
	}
	if seconds < 0 {
		seconds = 0
	}
	return &Limiter{seconds: seconds, clock: clk}
}

// State returns the current limiter state
func (l *Limiter) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

// Allow reports whether a send may proceed and, if not, how long remains
func (l *Limiter) Allow() (bool, int) {
	s := l.State()
	return s.CanSend, s.SecondsRemaining
}

// Trigger moves the limiter into COOLING after a successful local send
func (l *Limiter) Trigger() {
	l.arm(l.seconds)
}

// Force moves the limiter into COOLING with an explicit countdown, replacing
// any countdown in progress. Externally sourced messages use this without
// being gated themselves.
func (l *Limiter) Force(seconds int) {
	l.arm(seconds)
}

func (l *Limiter) arm(seconds int) {
	if seconds <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.until = l.clock.Now().Add(time.Duration(seconds) * time.Second)
}

// stateLocked rounds the time left up to whole seconds, so it reaches zero
// exactly when the deadline passes and the limiter is READY in that instant
func (l *Limiter) stateLocked() State {
	left := l.until.Sub(l.clock.Now())
	if left <= 0 {
		return State{CanSend: true}
	}
	secs := int((left + time.Second - 1) / time.Second)
	return State{CanSend: false, SecondsRemaining: secs}
}

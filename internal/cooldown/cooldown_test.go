package cooldown

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	return clk
}

func TestLimiterStartsReady(t *testing.T) {
	l := New(newMockClock(), 1)
	assert.Equal(t, State{CanSend: true, SecondsRemaining: 0}, l.State())

	ok, left := l.Allow()
	assert.True(t, ok)
	assert.Equal(t, 0, left)
}

func TestLimiterCountsDownFromTrigger(t *testing.T) {
	clk := newMockClock()
	l := New(clk, 3)
	l.Trigger()
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 3}, l.State())

	clk.Add(999 * time.Millisecond)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 3}, l.State())

	clk.Add(time.Millisecond)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 2}, l.State())

	clk.Add(time.Second)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 1}, l.State())

	// Reaching zero makes the limiter ready in the same instant
	clk.Add(time.Second)
	assert.Equal(t, State{CanSend: true, SecondsRemaining: 0}, l.State())

	clk.Add(time.Hour)
	assert.Equal(t, State{CanSend: true, SecondsRemaining: 0}, l.State())
}

func TestLimiterCountdownStartsAtTrigger(t *testing.T) {
	clk := newMockClock()
	l := New(clk, 1)

	// A send just before a whole second still waits a full second
	clk.Add(900 * time.Millisecond)
	l.Trigger()
	clk.Add(100 * time.Millisecond)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 1}, l.State())

	clk.Add(899 * time.Millisecond)
	assert.False(t, l.State().CanSend)

	clk.Add(time.Millisecond)
	assert.True(t, l.State().CanSend)
}

func TestLimiterRejectsWhileCooling(t *testing.T) {
	l := New(newMockClock(), 1)
	l.Trigger()

	ok, left := l.Allow()
	assert.False(t, ok)
	assert.Equal(t, 1, left)

	// Allow never changes the countdown
	ok, left = l.Allow()
	assert.False(t, ok)
	assert.Equal(t, 1, left)
}

func TestLimiterForce(t *testing.T) {
	clk := newMockClock()
	l := New(clk, 5)

	l.Force(1)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 1}, l.State())

	l.Force(0)
	assert.Equal(t, 1, l.State().SecondsRemaining, "zero force is ignored")

	clk.Add(time.Second)
	assert.True(t, l.State().CanSend)
}

func TestLimiterForceRearms(t *testing.T) {
	clk := newMockClock()
	l := New(clk, 3)
	l.Trigger()

	clk.Add(2500 * time.Millisecond)
	l.Force(1)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 1}, l.State())

	clk.Add(999 * time.Millisecond)
	assert.False(t, l.State().CanSend)
	clk.Add(time.Millisecond)
	assert.True(t, l.State().CanSend)
}

func TestLimiterZeroSecondsDisablesCooldown(t *testing.T) {
	l := New(newMockClock(), 0)
	l.Trigger()
	assert.Equal(t, State{CanSend: true, SecondsRemaining: 0}, l.State())

	l.Force(2)
	assert.Equal(t, State{CanSend: false, SecondsRemaining: 2}, l.State(), "external cooldown still applies")
}

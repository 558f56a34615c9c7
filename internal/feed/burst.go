package feed

import "time"

// burstCounter keeps the timestamps of recent like presses within a sliding window
type burstCounter struct {
	window    time.Duration
	threshold int
	presses   []time.Time
}

func newBurstCounter(window time.Duration, threshold int) *burstCounter {
	return &burstCounter{window: window, threshold: threshold}
}

// record adds a press at now and returns the burst size and whether it reaches the threshold
func (b *burstCounter) record(now time.Time) (int, bool) {
	b.evict(now)
	b.presses = append(b.presses, now)
	return len(b.presses), len(b.presses) >= b.threshold
}

// count returns the burst size at now without recording a press
func (b *burstCounter) count(now time.Time) (int, bool) {
	b.evict(now)
	return len(b.presses), len(b.presses) >= b.threshold
}

func (b *burstCounter) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	keep := b.presses[:0]
	for _, t := range b.presses {
		if t.After(cutoff) {
			keep = append(keep, t)
		}
	}
	b.presses = keep
}

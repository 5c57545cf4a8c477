// FilePath: internal/dedup/dedup.go

// Package dedup suppresses repeat alerts for the same source and parameter
// inside a cooldown window. State is memory-resident and per-process; two
// instances of the service keep independent state and can double-alert,
// a documented limitation of the deployment model.
package dedup

import (
	"math"
	"sync"
	"time"
)

const (
	// DefaultCooldown is the minimum gap between alerts for one
	// (source, parameter) key.
	DefaultCooldown = 15 * time.Minute
	// DefaultEscalationDelta is how far the value must move from the last
	// notified one to break through the cooldown.
	DefaultEscalationDelta = 2.0
)

type entry struct {
	lastSentAt time.Time
	lastValue  float64
}

// Deduplicator tracks the last sent alert per (source, parameter) key.
// Safe for concurrent use by per-source check goroutines.
type Deduplicator struct {
	mu       sync.Mutex
	cooldown time.Duration
	delta    float64
	sent     map[string]entry
	now      func() time.Time
}

// New creates a Deduplicator. Non-positive cooldown or negative delta fall
// back to the defaults.
func New(cooldown time.Duration, delta float64) *Deduplicator {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if delta < 0 {
		delta = DefaultEscalationDelta
	}
	return &Deduplicator{
		cooldown: cooldown,
		delta:    delta,
		sent:     make(map[string]entry),
		now:      time.Now,
	}
}

func key(sourceID, parameter string) string {
	return sourceID + "|" + parameter
}

// ShouldNotify reports whether an alert for the key may be sent now, and
// records the send when it returns true.
//
// A repeat inside the cooldown window is suppressed unless the value has
// moved at least the escalation delta from the previously notified value;
// an escalation notifies immediately and resets the window.
func (d *Deduplicator) ShouldNotify(sourceID, parameter string, value float64) bool {
	k := key(sourceID, parameter)
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	prev, seen := d.sent[k]
	if seen && now.Sub(prev.lastSentAt) < d.cooldown {
		if math.Abs(value-prev.lastValue) < d.delta {
			return false
		}
	}

	d.sent[k] = entry{lastSentAt: now, lastValue: value}
	return true
}

// Reset clears all recorded sends.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = make(map[string]entry)
}

// SetClock overrides the time source, for tests.
func (d *Deduplicator) SetClock(now func() time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.now = now
}

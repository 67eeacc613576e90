// Package throttle provides keyed time windows on an injected monotonic clock.
package throttle

import (
	"sync"
	"time"
)

// Gate arms named windows and reports when they have elapsed.
type Gate struct {
	mu    sync.Mutex
	now   func() time.Duration
	until map[string]time.Duration
}

// New returns a gate reading time from now, which must be monotonic.
func New(now func() time.Duration) *Gate {
	return &Gate{
		now:   now,
		until: make(map[string]time.Duration),
	}
}

// Throttle arms the window for key to last d and returns true, unless a window
// for key is still open, in which case it returns false and changes nothing.
func (g *Gate) Throttle(key string, d time.Duration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if until, ok := g.until[key]; ok && now < until {
		return false
	}
	g.until[key] = now + d
	return true
}

// Check returns true once the window for key has elapsed, or if it was never armed.
func (g *Gate) Check(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.until[key]
	return !ok || g.now() >= until
}

// Remaining returns how long the window for key stays open.
func (g *Gate) Remaining(key string) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.until[key]
	if !ok {
		return 0
	}
	if left := until - g.now(); left > 0 {
		return left
	}
	return 0
}

// Reset forgets the window for key.
func (g *Gate) Reset(key string) {
	g.mu.Lock()
	delete(g.until, key)
	g.mu.Unlock()
}

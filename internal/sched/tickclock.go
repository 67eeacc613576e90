// internal/sched/tickclock.go

package sched

import (
	"sync"
	"sync/atomic"
	"time"
)

// Subscriber receives one call per tick with the clock's monotonic reading.
type Subscriber interface {
	Tick(now time.Duration)
}

// FrameClock drives subscribers once per tick.
// Subscribe and Unsubscribe may be called from inside a Tick callback.
type FrameClock interface {
	Subscribe(sub Subscriber)
	Unsubscribe(sub Subscriber)
	Now() time.Duration
}

// subscribers is the subscription set shared by the clock implementations.
type subscribers struct {
	mu   sync.Mutex
	subs []Subscriber
}

func (s *subscribers) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.subs {
		if have == sub {
			return
		}
	}
	s.subs = append(s.subs, sub)
}

func (s *subscribers) Unsubscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, have := range s.subs {
		if have == sub {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Subscribed reports whether sub currently receives ticks.
func (s *subscribers) Subscribed(sub Subscriber) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, have := range s.subs {
		if have == sub {
			return true
		}
	}
	return false
}

// fire calls every subscriber outside the lock, so callbacks may (un)subscribe.
func (s *subscribers) fire(now time.Duration) {
	s.mu.Lock()
	snapshot := append([]Subscriber(nil), s.subs...)
	s.mu.Unlock()

	for _, sub := range snapshot {
		sub.Tick(now)
	}
}

// TickClock emits ticks from a time.Ticker and counts them atomically.
type TickClock struct {
	subscribers
	start    time.Time
	count    atomic.Int64
	started  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewTickClock creates a clock. Ticks begin with Start.
func NewTickClock() *TickClock {
	return &TickClock{
		start: time.Now(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Start begins emitting ticks at the given interval on a dedicated goroutine.
// Subscribers are always called from that goroutine, one tick at a time.
func (c *TickClock) Start(interval time.Duration) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.count.Add(1)
				c.fire(c.Now())
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop signals the clock to stop emitting ticks and waits for the tick in
// progress to return. Calling Stop more than once is a no-op. Stop must not be
// called from a subscriber.
func (c *TickClock) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	if c.started.Load() {
		<-c.done
	}
}

// Count returns the current tick count atomically.
func (c *TickClock) Count() int64 {
	return c.count.Load()
}

// Now returns the monotonic time elapsed since the clock was created.
func (c *TickClock) Now() time.Duration {
	return time.Since(c.start)
}

// ManualClock is advanced by its owner, for hosts that run their own frame loop.
type ManualClock struct {
	subscribers
	clockMu sync.Mutex
	now     time.Duration
	count   int64
}

func NewManualClock() *ManualClock {
	return &ManualClock{}
}

// Advance moves the clock forward by d and delivers one tick.
func (c *ManualClock) Advance(d time.Duration) {
	c.clockMu.Lock()
	c.now += d
	c.count++
	now := c.now
	c.clockMu.Unlock()

	c.fire(now)
}

func (c *ManualClock) Now() time.Duration {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	return c.now
}

// Count returns the number of ticks delivered so far.
func (c *ManualClock) Count() int64 {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	return c.count
}

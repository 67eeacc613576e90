package sched

import (
	"sync"

	"github.com/emirpasic/gods/sets/linkedhashset"
)

// Registry tracks live schedulers so the embedding application can dispose
// them all at teardown. Schedulers join it through WithRegistry and leave it
// when disposed.
type Registry struct {
	mu   sync.Mutex
	live *linkedhashset.Set
}

func NewRegistry() *Registry {
	return &Registry{live: linkedhashset.New()}
}

func (r *Registry) add(s *Scheduler) {
	r.mu.Lock()
	r.live.Add(s)
	r.mu.Unlock()
}

func (r *Registry) remove(s *Scheduler) {
	r.mu.Lock()
	r.live.Remove(s)
	r.mu.Unlock()
}

// Len returns the number of live schedulers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live.Size()
}

// DisposeAll disposes every live scheduler in registration order.
func (r *Registry) DisposeAll() {
	r.mu.Lock()
	values := r.live.Values()
	r.mu.Unlock()

	for _, v := range values {
		v.(*Scheduler).Dispose()
	}
}

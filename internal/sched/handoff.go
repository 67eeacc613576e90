package sched

import (
	"sync"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// submission is one Enqueue or Insert waiting to be merged into the queues.
type submission struct {
	task  *Task
	front bool
}

// handoff buffers submissions from any goroutine until the tick drains them.
type handoff struct {
	mu sync.Mutex
	q  *linkedlistqueue.Queue
}

func newHandoff() *handoff {
	return &handoff{q: linkedlistqueue.New()}
}

// push appends the submissions as one batch, so no other producer interleaves.
func (h *handoff) push(subs ...submission) {
	h.mu.Lock()
	for i := range subs {
		h.q.Enqueue(subs[i])
	}
	h.mu.Unlock()
}

// drain removes and returns every buffered submission in arrival order.
func (h *handoff) drain() []submission {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]submission, 0, h.q.Size())
	for {
		v, ok := h.q.Dequeue()
		if !ok {
			break
		}
		out = append(out, v.(submission))
	}
	return out
}

func (h *handoff) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.q.Size()
}

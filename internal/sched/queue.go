package sched

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
)

// weightedQueue is the FIFO of tasks sharing one weight.
type weightedQueue struct {
	weight int
	tasks  *doublylinkedlist.List
}

func (q *weightedQueue) len() int { return q.tasks.Size() }

// drain empties the queue and returns its tasks in order.
func (q *weightedQueue) drain() []*Task {
	out := make([]*Task, 0, q.tasks.Size())
	for _, v := range q.tasks.Values() {
		out = append(out, v.(*Task))
	}
	q.tasks.Clear()
	return out
}

// queueSet holds one weightedQueue per weight, ordered by ascending weight.
// It is not safe for concurrent use; the scheduler guards it.
type queueSet struct {
	tree   *redblacktree.Tree // weight -> *weightedQueue
	queued int                // tasks across all queues
}

func newQueueSet() *queueSet {
	return &queueSet{tree: redblacktree.NewWith(utils.IntComparator)}
}

// get returns the queue for weight, creating it when create is set.
func (qs *queueSet) get(weight int, create bool) *weightedQueue {
	if v, found := qs.tree.Get(weight); found {
		return v.(*weightedQueue)
	}
	if !create {
		return nil
	}
	q := &weightedQueue{weight: weight, tasks: doublylinkedlist.New()}
	qs.tree.Put(weight, q)
	return q
}

func (qs *queueSet) pushBack(t *Task) {
	qs.get(t.weight, true).tasks.Add(t)
	qs.queued++
}

func (qs *queueSet) pushFront(t *Task) {
	qs.get(t.weight, true).tasks.Prepend(t)
	qs.queued++
}

// popNext removes the head of the lowest-weight non-empty queue.
func (qs *queueSet) popNext() *Task {
	it := qs.tree.Iterator()
	for it.Next() {
		q := it.Value().(*weightedQueue)
		if q.len() == 0 {
			continue
		}
		v, _ := q.tasks.Get(0)
		q.tasks.Remove(0)
		qs.queued--
		return v.(*Task)
	}
	return nil
}

// remove deletes the queue for weight and returns the tasks it held.
func (qs *queueSet) remove(weight int) ([]*Task, bool) {
	q := qs.get(weight, false)
	if q == nil {
		return nil, false
	}
	tasks := q.drain()
	qs.queued -= len(tasks)
	qs.tree.Remove(weight)
	return tasks, true
}

// clear empties the queue for weight but keeps it.
func (qs *queueSet) clear(weight int) []*Task {
	q := qs.get(weight, false)
	if q == nil {
		return nil
	}
	tasks := q.drain()
	qs.queued -= len(tasks)
	return tasks
}

// removeFirstN takes up to n tasks from the head of the queue for weight.
func (qs *queueSet) removeFirstN(weight, n int) []*Task {
	q := qs.get(weight, false)
	if q == nil || n <= 0 {
		return nil
	}
	if n > q.len() {
		n = q.len()
	}
	out := make([]*Task, 0, n)
	for i := 0; i < n; i++ {
		v, _ := q.tasks.Get(0)
		q.tasks.Remove(0)
		out = append(out, v.(*Task))
	}
	qs.queued -= len(out)
	return out
}

// removeLast takes the tail of the queue for weight.
func (qs *queueSet) removeLast(weight int) *Task {
	q := qs.get(weight, false)
	if q == nil || q.len() == 0 {
		return nil
	}
	last := q.len() - 1
	v, _ := q.tasks.Get(last)
	q.tasks.Remove(last)
	qs.queued--
	return v.(*Task)
}

// clearAll empties every queue, keeping the queues themselves.
func (qs *queueSet) clearAll() []*Task {
	var out []*Task
	for _, v := range qs.tree.Values() {
		out = append(out, v.(*weightedQueue).drain()...)
	}
	qs.queued = 0
	return out
}

// len returns the number of tasks queued at weight.
func (qs *queueSet) len(weight int) int {
	if q := qs.get(weight, false); q != nil {
		return q.len()
	}
	return 0
}

// weights lists the existing queues in drain order.
func (qs *queueSet) weights() []int {
	keys := qs.tree.Keys()
	out := make([]int, 0, len(keys))
	for _, k := range keys {
		out = append(out, k.(int))
	}
	return out
}

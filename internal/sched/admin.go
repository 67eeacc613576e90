package sched

// Queue administration. Every call first merges buffered submissions, so it
// sees the same queues the next tick would.

// AddQueue creates the queue for weight if it does not exist yet.
func (s *Scheduler) AddQueue(weight int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	s.queues.get(weight, true)
}

// RemoveQueue deletes the queue for weight and drops its tasks.
// It reports whether the queue existed.
func (s *Scheduler) RemoveQueue(weight int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	tasks, ok := s.queues.remove(weight)
	s.drop(tasks, "queue removed")
	return ok
}

// ClearQueue drops every task queued at weight and returns how many there were.
func (s *Scheduler) ClearQueue(weight int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	tasks := s.queues.clear(weight)
	s.drop(tasks, "queue cleared")
	return len(tasks)
}

// RemoveFirst drops the head of the queue for weight.
func (s *Scheduler) RemoveFirst(weight int) bool {
	return s.RemoveFirstN(weight, 1) == 1
}

// RemoveFirstN drops up to n tasks from the head of the queue for weight and
// returns how many were dropped.
func (s *Scheduler) RemoveFirstN(weight, n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	tasks := s.queues.removeFirstN(weight, n)
	s.drop(tasks, "removed from head")
	return len(tasks)
}

// RemoveLast drops the tail of the queue for weight.
func (s *Scheduler) RemoveLast(weight int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	t := s.queues.removeLast(weight)
	if t == nil {
		return false
	}
	s.drop([]*Task{t}, "removed from tail")
	return true
}

// QueueLen returns the number of tasks waiting at weight.
func (s *Scheduler) QueueLen(weight int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	return s.queues.len(weight)
}

// Weights lists the existing queues in the order they are drained.
func (s *Scheduler) Weights() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sync()
	return s.queues.weights()
}

// drop releases removed tasks. Caller holds mu.
func (s *Scheduler) drop(tasks []*Task, reason string) {
	if len(tasks) == 0 {
		return
	}
	now := s.clock.Now()
	for _, t := range tasks {
		t.release()
		s.emit(taskEvent(EventRemove, t, now, reason))
	}
	s.logger.Info("tasks removed", "count", len(tasks), "reason", reason)
}

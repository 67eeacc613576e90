package sched

import (
	"fmt"
	"time"
)

// DelayNext queues a pause of d: work queued after it at the same weight, and
// everything at higher weights, waits until d has elapsed. The pause is two
// tasks against the gate, one arming the window for key and one polling it.
// An empty key uses a key private to this scheduler.
func (s *Scheduler) DelayNext(key string, d time.Duration, opts ...TaskOption) {
	arm, wait := s.delayTasks(key, d, opts)
	s.submit(submission{task: arm}, submission{task: wait})
}

// InsertDelayNext puts the pause at the head of its weight's queue.
func (s *Scheduler) InsertDelayNext(key string, d time.Duration, opts ...TaskOption) {
	arm, wait := s.delayTasks(key, d, opts)
	// inserted in reverse so arm stays ahead of wait
	s.submit(submission{task: wait, front: true}, submission{task: arm, front: true})
}

func (s *Scheduler) delayTasks(key string, d time.Duration, opts []TaskOption) (arm, wait *Task) {
	if key == "" {
		key = "delay." + s.id
	}
	s.mu.Lock()
	global := s.timeout
	s.mu.Unlock()

	armOpts := append([]TaskOption{WithName(fmt.Sprintf("Throttle(%s, %s)", key, d))}, opts...)
	arm = newTask(s.ctx, SyncStep(func() (bool, error) {
		return s.gate.Throttle(key, d), nil
	}), armOpts)

	// the wait must outlive the window itself
	waitOpts := []TaskOption{WithName(fmt.Sprintf("Check(%s)", key))}
	if global > 0 {
		waitOpts = append(waitOpts, WithTimeout(d+global))
	}
	waitOpts = append(waitOpts, opts...)
	wait = newTask(s.ctx, SyncStep(func() (bool, error) {
		return s.gate.Check(key), nil
	}), waitOpts)

	return arm, wait
}

// internal/sched/scheduler.go

package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ticksched/internal/throttle"
)

// Gate is the time-window collaborator behind DelayNext.
type Gate interface {
	Throttle(key string, d time.Duration) bool
	Check(key string) bool
}

// Scheduler drains weighted task queues one task at a time, driven by a frame clock.
//
// Tasks may be submitted from any goroutine. Submissions are buffered and merged
// into the queues at the start of the next tick, before any task is promoted.
// The scheduler subscribes to its clock while it has work and unsubscribes once idle.
type Scheduler struct {
	// Scheduler-related
	mu              sync.Mutex          // protects the scheduler state
	queues          *queueSet           // pending work ordered by weight
	current         *Task               // task being stepped, nil when idle
	inflight        map[*Task]*asyncRun // launched async tasks
	timeout         time.Duration       // default task timeout, <= 0 disables
	timeoutBehavior AbortBehavior
	errorBehavior   AbortBehavior
	pending         *handoff // submissions not merged yet

	// registration-related
	regMu      sync.Mutex // orders submissions against clock (un)subscription
	registered bool
	disposed   atomic.Bool
	debug      atomic.Bool

	id       string
	clock    FrameClock
	gate     Gate
	logger   *slog.Logger
	observer Observer
	registry *Registry
	ctx      context.Context // parent of every async task context
	cancel   context.CancelFunc
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithLogger sets the logger. The default writes text to stderr.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithGate replaces the throttle gate used by DelayNext.
func WithGate(g Gate) Option {
	return func(s *Scheduler) { s.gate = g }
}

// WithRegistry adds the scheduler to r until it is disposed.
func WithRegistry(r *Registry) Option {
	return func(s *Scheduler) { s.registry = r }
}

// WithObserver receives every scheduler event. It may be called from the tick
// and from submitting goroutines, so it must be safe for concurrent use.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// New creates a scheduler bound to clock.
func New(clock FrameClock, cfg Config, opts ...Option) (*Scheduler, error) {
	if clock == nil {
		return nil, errors.New("sched: nil frame clock")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		queues:          newQueueSet(),
		inflight:        make(map[*Task]*asyncRun),
		timeout:         cfg.Timeout(),
		timeoutBehavior: cfg.TimeoutBehavior,
		errorBehavior:   cfg.ErrorBehavior,
		pending:         newHandoff(),
		id:              uuid.NewString(),
		clock:           clock,
		ctx:             ctx,
		cancel:          cancel,
	}
	s.debug.Store(cfg.Debug)
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	s.logger = s.logger.With("component", "scheduler", "scheduler_id", s.id)
	if s.gate == nil {
		s.gate = throttle.New(clock.Now)
	}
	if s.registry != nil {
		s.registry.add(s)
	}
	return s, nil
}

// ID returns the generated identifier of the scheduler.
func (s *Scheduler) ID() string { return s.id }

// Enqueue appends a sync step to the tail of its weight's queue.
func (s *Scheduler) Enqueue(step SyncStep, opts ...TaskOption) *Task {
	t := newTask(s.ctx, step, opts)
	s.submit(submission{task: t})
	return t
}

// EnqueueAsync appends an async operation to the tail of its weight's queue.
func (s *Scheduler) EnqueueAsync(fn AsyncStep, opts ...TaskOption) *Task {
	t := newTask(s.ctx, fn, opts)
	s.submit(submission{task: t})
	return t
}

// Insert puts a sync step at the head of its weight's queue.
func (s *Scheduler) Insert(step SyncStep, opts ...TaskOption) *Task {
	t := newTask(s.ctx, step, opts)
	s.submit(submission{task: t, front: true})
	return t
}

// InsertAsync puts an async operation at the head of its weight's queue.
func (s *Scheduler) InsertAsync(fn AsyncStep, opts ...TaskOption) *Task {
	t := newTask(s.ctx, fn, opts)
	s.submit(submission{task: t, front: true})
	return t
}

// submit hands tasks to the next tick and makes sure the clock will deliver one.
func (s *Scheduler) submit(subs ...submission) {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	if s.disposed.Load() {
		for _, sub := range subs {
			sub.task.release()
			s.logger.Warn("scheduler disposed, task dropped", "task", sub.task.String(), "task_id", sub.task.id)
		}
		return
	}

	s.pending.push(subs...)
	now := s.clock.Now()
	for _, sub := range subs {
		kind := EventEnqueue
		if sub.front {
			kind = EventInsert
		}
		s.emit(taskEvent(kind, sub.task, now, ""))
	}

	if !s.registered {
		s.clock.Subscribe(s)
		s.registered = true
	}
}

// Tick runs one scheduling iteration. The frame clock calls it once per tick.
// It never blocks on task work and resolves task failures itself.
func (s *Scheduler) Tick(now time.Duration) {
	s.mu.Lock()
	if s.disposed.Load() {
		s.mu.Unlock()
		return
	}

	// 1) merge submissions from other goroutines
	s.sync()

	// 2) idle case: promote the head of the lowest non-empty weight
	if s.current == nil {
		s.promote(now)
	}

	// 3) step the current task
	if t := s.current; t != nil {
		switch p := t.payload.(type) {
		case SyncStep:
			s.stepSync(t, p, now)
		case AsyncStep:
			s.stepAsync(t, p, now)
		default:
			panic(fmt.Sprintf("sched: unknown payload %T", p))
		}
	}
	s.mu.Unlock()

	// 4) leave the clock once nothing is left to do
	s.settle()
}

// sync merges buffered submissions into the queues in arrival order. Caller holds mu.
func (s *Scheduler) sync() {
	for _, sub := range s.pending.drain() {
		if sub.front {
			s.queues.pushFront(sub.task)
		} else {
			s.queues.pushBack(sub.task)
		}
	}
}

func (s *Scheduler) promote(now time.Duration) {
	t := s.queues.popNext()
	if t == nil {
		return
	}
	t.startedAt = now
	s.current = t
	s.trace("task started", t)
	s.emit(taskEvent(EventStart, t, now, ""))
}

// stepSync calls the step with mu released, so the step may use the scheduler.
func (s *Scheduler) stepSync(t *Task, step SyncStep, now time.Duration) {
	s.mu.Unlock()
	done, err := invoke(step)
	s.mu.Lock()

	if s.current != t {
		// aborted or disposed while the step ran
		return
	}
	switch {
	case err != nil:
		s.fail(t, EventFault, err, now)
	case done:
		s.finish(t, now)
	default:
		s.checkTimeout(t, now)
	}
}

func (s *Scheduler) stepAsync(t *Task, fn AsyncStep, now time.Duration) {
	run, launched := s.inflight[t]
	if !launched {
		s.inflight[t] = launch(t.ctx, fn)
		s.trace("async task launched", t)
		s.emit(taskEvent(EventLaunch, t, now, ""))
		return
	}

	if !run.settled() {
		s.checkTimeout(t, now)
		return
	}

	switch {
	case errors.Is(run.err, context.Canceled):
		s.fail(t, EventCancel, fmt.Errorf("%w: %w", ErrCancelled, run.err), now)
	case run.err != nil:
		s.fail(t, EventFault, run.err, now)
	case run.ok:
		s.finish(t, now)
	default:
		// the attempt ended without completing; relaunch on the next tick
		delete(s.inflight, t)
		s.checkTimeout(t, now)
	}
}

// finish clears a completed task. The in-flight entry is removed with the
// reference taken before current is cleared.
func (s *Scheduler) finish(t *Task, now time.Duration) {
	delete(s.inflight, t)
	s.current = nil
	t.release()
	s.trace("task completed", t, "elapsed", now-t.startedAt)
	s.emit(taskEvent(EventFinish, t, now, ""))
}

func (s *Scheduler) checkTimeout(t *Task, now time.Duration) {
	limit := t.effectiveTimeout(s.timeout)
	if limit <= 0 {
		return
	}
	elapsed := now - t.startedAt
	if elapsed <= limit {
		return
	}

	behavior := resolve(t.timeoutBehavior, s.timeoutBehavior)
	reason := fmt.Sprintf("task %s timed out after %s (limit %s)", t, elapsed, limit)
	s.logger.Warn("task timed out",
		"task", t.String(),
		"task_id", t.id,
		"elapsed", elapsed,
		"limit", limit,
		"behavior", behavior.String(),
	)
	s.emit(taskEvent(EventTimeout, t, now, reason))
	s.apply(behavior, now, reason)
}

func (s *Scheduler) fail(t *Task, kind EventKind, err error, now time.Duration) {
	behavior := resolve(t.errorBehavior, s.errorBehavior)
	reason := fmt.Sprintf("task %s failed: %v", t, err)
	s.logger.Warn("task failed",
		"task", t.String(),
		"task_id", t.id,
		"error", err,
		"behavior", behavior.String(),
	)
	s.emit(taskEvent(kind, t, now, reason))
	s.apply(behavior, now, reason)
}

// apply runs an abort behavior. Caller holds mu.
func (s *Scheduler) apply(b AbortBehavior, now time.Duration, reason string) {
	switch b {
	case AbortAll:
		s.abortAll(now, reason)
	case AbortCurrent:
		s.abortCurrent()
	default:
		panic(fmt.Sprintf("sched: invalid abort behavior %d", int(b)))
	}
}

func (s *Scheduler) abortCurrent() {
	t := s.current
	if t == nil {
		return
	}
	delete(s.inflight, t)
	s.current = nil
	t.release()
}

func (s *Scheduler) abortAll(now time.Duration, reason string) {
	dropped := s.dropAll()
	s.logger.Warn("aborted all tasks", "dropped", dropped, "reason", reason)
	s.emit(Event{Time: now, Kind: EventAbort, Reason: reason})
}

// dropAll releases every task the scheduler holds and returns how many there were.
func (s *Scheduler) dropAll() int {
	dropped := 0
	for _, sub := range s.pending.drain() {
		sub.task.release()
		dropped++
	}
	for _, t := range s.queues.clearAll() {
		t.release()
		dropped++
	}
	for t := range s.inflight {
		t.release()
	}
	clear(s.inflight)
	if s.current != nil {
		s.current.release()
		s.current = nil
		dropped++
	}
	return dropped
}

// settle unsubscribes from the clock when no work remains. A submission that
// races in afterwards subscribes again.
func (s *Scheduler) settle() {
	s.regMu.Lock()
	defer s.regMu.Unlock()

	if !s.registered || s.IsBusy() {
		return
	}
	s.clock.Unsubscribe(s)
	s.registered = false
	if s.debug.Load() {
		s.logger.Debug("scheduler idle")
	}
}

// Abort drops all queued, pending and running work immediately.
func (s *Scheduler) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.abortAll(s.clock.Now(), "abort requested")
}

// Dispose unsubscribes from the clock, cancels every task and leaves the
// registry. Calling it again is a no-op.
func (s *Scheduler) Dispose() {
	s.regMu.Lock()
	if s.disposed.Load() {
		s.regMu.Unlock()
		return
	}
	s.disposed.Store(true)
	if s.registered {
		s.clock.Unsubscribe(s)
		s.registered = false
	}
	s.regMu.Unlock()

	s.mu.Lock()
	dropped := s.dropAll()
	s.cancel()
	s.mu.Unlock()

	if s.registry != nil {
		s.registry.remove(s)
	}
	s.emit(Event{Time: s.clock.Now(), Kind: EventDispose})
	s.logger.Info("scheduler disposed", "dropped", dropped)
}

// Disposed reports whether Dispose has been called.
func (s *Scheduler) Disposed() bool { return s.disposed.Load() }

// IsBusy reports whether any work is pending, queued, running or in flight.
func (s *Scheduler) IsBusy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil || s.queues.queued > 0 || s.pending.len() > 0 || len(s.inflight) > 0
}

// Count returns queued plus pending tasks, plus one while a task is current.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.queues.queued + s.pending.len()
	if s.current != nil {
		n++
	}
	return n
}

// CurrentTaskName returns the name of the running task, or "" when idle.
func (s *Scheduler) CurrentTaskName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ""
	}
	return s.current.String()
}

// SetTimeout changes the default task timeout. Zero or negative disables it.
func (s *Scheduler) SetTimeout(d time.Duration) {
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
}

// SetTimeoutBehavior changes the default timeout behavior.
func (s *Scheduler) SetTimeoutBehavior(b AbortBehavior) error {
	if err := checkDefault(b); err != nil {
		return err
	}
	s.mu.Lock()
	s.timeoutBehavior = b
	s.mu.Unlock()
	return nil
}

// SetErrorBehavior changes the default behavior for faults and cancellations.
func (s *Scheduler) SetErrorBehavior(b AbortBehavior) error {
	if err := checkDefault(b); err != nil {
		return err
	}
	s.mu.Lock()
	s.errorBehavior = b
	s.mu.Unlock()
	return nil
}

// SetDebug toggles task lifecycle logging.
func (s *Scheduler) SetDebug(on bool) {
	s.debug.Store(on)
}

func (s *Scheduler) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}

// trace logs task lifecycle at debug level when enabled.
func (s *Scheduler) trace(msg string, t *Task, args ...any) {
	if !s.debug.Load() {
		return
	}
	attrs := append([]any{"task", t.String(), "task_id", t.id, "weight", t.weight}, args...)
	s.logger.Debug(msg, attrs...)
}

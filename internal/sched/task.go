package sched

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Payload is the work carried by a Task. It is either a SyncStep or an AsyncStep.
type Payload interface {
	payload()
}

// SyncStep is polled once per tick. It returns true when done and false to be
// polled again on the next tick. A non-nil error is a fault.
type SyncStep func() (bool, error)

// AsyncStep runs on its own goroutine and must honor ctx. Returning true
// completes the task; false relaunches it on the next tick.
type AsyncStep func(ctx context.Context) (bool, error)

func (SyncStep) payload()  {}
func (AsyncStep) payload() {}

// Do adapts a function without a result into a step that is done after one call.
func Do(fn func()) SyncStep {
	return func() (bool, error) {
		fn()
		return true, nil
	}
}

// Poll adapts a predicate into a step that is done once the predicate holds.
func Poll(fn func() bool) SyncStep {
	return func() (bool, error) {
		return fn(), nil
	}
}

// Task represents one queued unit of work.
type Task struct {
	id      string
	name    string
	weight  int
	payload Payload

	timeout         time.Duration   // <= 0 defers to the scheduler
	timeoutBehavior AbortBehavior   // AbortInherit defers to the scheduler
	errorBehavior   AbortBehavior   // AbortInherit defers to the scheduler
	startedAt       time.Duration   // clock reading at promotion
	ctx             context.Context // async tasks only
	cancel          context.CancelFunc
	released        atomic.Bool
}

// TaskOption customizes a Task at submission.
type TaskOption func(*Task)

// WithName sets the diagnostic name of a task.
func WithName(name string) TaskOption {
	return func(t *Task) { t.name = name }
}

// WithTimeout overrides the scheduler timeout for a task. Zero or negative keeps the default.
func WithTimeout(d time.Duration) TaskOption {
	return func(t *Task) { t.timeout = d }
}

// WithTimeoutBehavior overrides what happens when the task times out.
func WithTimeoutBehavior(b AbortBehavior) TaskOption {
	mustBeTaskBehavior(b)
	return func(t *Task) { t.timeoutBehavior = b }
}

// WithErrorBehavior overrides what happens when the task faults or is cancelled.
func WithErrorBehavior(b AbortBehavior) TaskOption {
	mustBeTaskBehavior(b)
	return func(t *Task) { t.errorBehavior = b }
}

// WithWeight places the task in the queue for weight w. Lower weights run first.
func WithWeight(w int) TaskOption {
	return func(t *Task) { t.weight = w }
}

// newTask builds a task. Async payloads get a context derived from parent.
func newTask(parent context.Context, p Payload, opts []TaskOption) *Task {
	t := &Task{
		id:      uuid.NewString(),
		payload: p,
	}
	for _, opt := range opts {
		opt(t)
	}
	if _, ok := p.(AsyncStep); ok {
		t.ctx, t.cancel = context.WithCancel(parent)
	}
	return t
}

// ID returns the generated identifier of the task.
func (t *Task) ID() string { return t.id }

// Name returns the diagnostic name, which may be empty.
func (t *Task) Name() string { return t.name }

// Weight returns the weight the task was submitted with.
func (t *Task) Weight() int { return t.weight }

// Async reports whether the task runs on its own goroutine.
func (t *Task) Async() bool {
	_, ok := t.payload.(AsyncStep)
	return ok
}

// Cancelled reports whether the task has been released. For async tasks this
// means its context is done.
func (t *Task) Cancelled() bool { return t.released.Load() }

// Done returns the context channel of an async task, or nil for sync tasks.
func (t *Task) Done() <-chan struct{} {
	if t.ctx == nil {
		return nil
	}
	return t.ctx.Done()
}

func (t *Task) String() string {
	if t.name != "" {
		return t.name
	}
	return "task-" + t.id[:8]
}

// release cancels the task context. Safe to call from any exit path; only the
// first call has an effect.
func (t *Task) release() {
	if !t.released.CompareAndSwap(false, true) {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}
}

// effectiveTimeout resolves the task timeout against the scheduler default.
func (t *Task) effectiveTimeout(def time.Duration) time.Duration {
	if t.timeout > 0 {
		return t.timeout
	}
	return def
}

// invoke runs a sync step, turning a panic into a fault.
func invoke(step SyncStep) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done, err = false, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return step()
}

// asyncRun is the handle of a launched AsyncStep. ok and err are valid once done is closed.
type asyncRun struct {
	done chan struct{}
	ok   bool
	err  error
}

func launch(ctx context.Context, fn AsyncStep) *asyncRun {
	r := &asyncRun{done: make(chan struct{})}
	go func() {
		defer close(r.done)
		defer func() {
			if p := recover(); p != nil {
				r.ok, r.err = false, fmt.Errorf("%w: %v", ErrPanic, p)
			}
		}()
		r.ok, r.err = fn(ctx)
	}()
	return r
}

// settled reports whether the run has finished without blocking.
func (r *asyncRun) settled() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

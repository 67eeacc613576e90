package sched_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticksched/internal/logging"
	"ticksched/internal/sched"
)

const frame = 10 * time.Millisecond

// newScheduler returns a scheduler on a manual clock with default config
// adjusted by mutate.
func newScheduler(t *testing.T, mutate func(*sched.Config), opts ...sched.Option) (*sched.Scheduler, *sched.ManualClock) {
	t.Helper()
	clock := sched.NewManualClock()
	cfg := sched.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	opts = append([]sched.Option{sched.WithLogger(logging.Discard())}, opts...)
	s, err := sched.New(clock, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(s.Dispose)
	return s, clock
}

// drain ticks until the scheduler is idle.
func drain(t *testing.T, s *sched.Scheduler, clock *sched.ManualClock, maxTicks int) {
	t.Helper()
	for i := 0; i < maxTicks && s.IsBusy(); i++ {
		clock.Advance(frame)
	}
	require.False(t, s.IsBusy(), "scheduler did not drain in %d ticks", maxTicks)
}

// recorder collects the names of steps in the order they ran.
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) step(name string) sched.SyncStep {
	return sched.Do(func() {
		r.mu.Lock()
		r.ran = append(r.ran, name)
		r.mu.Unlock()
	})
}

func (r *recorder) order() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func never() (bool, error) { return false, nil }

// safeBuffer is a bytes.Buffer shared by the log handler and the test.
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *safeBuffer) Reset() {
	b.mu.Lock()
	b.buf.Reset()
	b.mu.Unlock()
}

func TestWeightOrdering(t *testing.T) {
	for _, lowFirst := range []bool{true, false} {
		t.Run(fmt.Sprintf("lowFirst=%v", lowFirst), func(t *testing.T) {
			s, clock := newScheduler(t, nil)
			rec := &recorder{}

			if lowFirst {
				s.Enqueue(rec.step("B"), sched.WithWeight(-5))
				s.Enqueue(rec.step("A"), sched.WithWeight(0))
			} else {
				s.Enqueue(rec.step("A"), sched.WithWeight(0))
				s.Enqueue(rec.step("B"), sched.WithWeight(-5))
			}

			drain(t, s, clock, 10)
			assert.Equal(t, []string{"B", "A"}, rec.order())
		})
	}
}

func TestFIFOWithinWeight(t *testing.T) {
	s, clock := newScheduler(t, nil)
	rec := &recorder{}

	s.Enqueue(rec.step("T1"))
	s.Enqueue(rec.step("T2"))
	s.Enqueue(rec.step("T3"))

	drain(t, s, clock, 10)
	assert.Equal(t, []string{"T1", "T2", "T3"}, rec.order())
}

func TestInsertJumpsQueue(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		s, clock := newScheduler(t, nil)
		rec := &recorder{}

		s.Enqueue(rec.step("T1"))
		s.Enqueue(rec.step("T2"))
		s.Insert(rec.step("T3"))

		drain(t, s, clock, 10)
		assert.Equal(t, []string{"T3", "T1", "T2"}, rec.order())
	})

	t.Run("merged", func(t *testing.T) {
		s, clock := newScheduler(t, nil)
		rec := &recorder{}

		s.Enqueue(rec.step("T1"))
		s.Enqueue(rec.step("T2"))
		require.Equal(t, 2, s.QueueLen(0))
		s.Insert(rec.step("T3"))

		drain(t, s, clock, 10)
		assert.Equal(t, []string{"T3", "T1", "T2"}, rec.order())
	})

	t.Run("other weight untouched", func(t *testing.T) {
		s, clock := newScheduler(t, nil)
		rec := &recorder{}

		s.Enqueue(rec.step("low"), sched.WithWeight(-1))
		s.Insert(rec.step("jump"), sched.WithWeight(2))
		s.Enqueue(rec.step("mid"))

		drain(t, s, clock, 10)
		assert.Equal(t, []string{"low", "mid", "jump"}, rec.order())
	})
}

func TestTimeoutAbortAll(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.TimeoutBehavior = sched.AbortAll
	})

	stuck := s.Enqueue(never, sched.WithName("stuck"), sched.WithTimeout(50*time.Millisecond))
	same := s.Enqueue(never, sched.WithName("same-weight"))
	later := s.Enqueue(never, sched.WithName("later"), sched.WithWeight(3))
	async := s.EnqueueAsync(func(ctx context.Context) (bool, error) {
		return true, nil
	}, sched.WithWeight(3))

	// promoted at 10ms; 60ms elapsed is still within the limit
	for i := 0; i < 6; i++ {
		clock.Advance(frame)
	}
	require.True(t, s.IsBusy())
	assert.Equal(t, "stuck", s.CurrentTaskName())

	clock.Advance(frame)
	assert.False(t, s.IsBusy())
	assert.Zero(t, s.Count())
	assert.Zero(t, s.QueueLen(0))
	assert.Zero(t, s.QueueLen(3))
	assert.Empty(t, s.CurrentTaskName())
	for _, task := range []*sched.Task{stuck, same, later, async} {
		assert.True(t, task.Cancelled(), task.String())
	}
	assert.False(t, clock.Subscribed(s), "idle scheduler left the clock")
}

func TestTimeoutAbortCurrentKeepsQueue(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.TimeoutBehavior = sched.AbortAll
	})
	rec := &recorder{}

	s.Enqueue(never, sched.WithName("stuck"),
		sched.WithTimeout(20*time.Millisecond),
		sched.WithTimeoutBehavior(sched.AbortCurrent))
	s.Enqueue(rec.step("next"))

	drain(t, s, clock, 20)
	assert.Equal(t, []string{"next"}, rec.order())
}

func TestGlobalTimeoutApplies(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.TimeoutMS = 30
	})

	task := s.Enqueue(never)
	drain(t, s, clock, 10)
	assert.True(t, task.Cancelled())
}

func TestTimeoutDisabled(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.TimeoutMS = 0
	})

	s.Enqueue(never, sched.WithName("forever"))
	for i := 0; i < 100; i++ {
		clock.Advance(time.Second)
	}
	assert.Equal(t, "forever", s.CurrentTaskName())

	s.Abort()
	assert.False(t, s.IsBusy())
}

func TestExceptionAbortCurrent(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.ErrorBehavior = sched.AbortCurrent
	})
	rec := &recorder{}

	bad := s.Enqueue(func() (bool, error) {
		return false, errors.New("boom")
	}, sched.WithName("bad"))
	s.Enqueue(rec.step("good"))

	clock.Advance(frame)
	assert.True(t, bad.Cancelled())
	assert.Empty(t, rec.order(), "good runs on a later tick")

	clock.Advance(frame)
	assert.Equal(t, []string{"good"}, rec.order())
	assert.False(t, s.IsBusy())
}

func TestPanicIsFault(t *testing.T) {
	var events []sched.Event
	s, clock := newScheduler(t, nil, sched.WithObserver(func(ev sched.Event) {
		events = append(events, ev)
	}))
	rec := &recorder{}

	s.Enqueue(func() (bool, error) {
		panic("step exploded")
	}, sched.WithName("panicky"))
	s.Enqueue(rec.step("after"))

	assert.NotPanics(t, func() { drain(t, s, clock, 10) })
	assert.Equal(t, []string{"after"}, rec.order())

	var faults int
	for _, ev := range events {
		if ev.Kind == sched.EventFault {
			faults++
			assert.Equal(t, "panicky", ev.Name)
			assert.Contains(t, ev.Reason, "step exploded")
		}
	}
	assert.Equal(t, 1, faults)
}

func TestExceptionAbortAllOverride(t *testing.T) {
	s, clock := newScheduler(t, nil)
	rec := &recorder{}

	s.Enqueue(func() (bool, error) {
		return false, errors.New("boom")
	}, sched.WithErrorBehavior(sched.AbortAll))
	dropped := s.Enqueue(rec.step("dropped"))

	clock.Advance(frame)
	assert.False(t, s.IsBusy())
	assert.True(t, dropped.Cancelled())
	assert.Empty(t, rec.order())
}

func TestSyncStepPolledUntilDone(t *testing.T) {
	s, clock := newScheduler(t, nil)

	calls := 0
	s.Enqueue(sched.Poll(func() bool {
		calls++
		return calls == 4
	}))

	drain(t, s, clock, 10)
	assert.Equal(t, 4, calls)
}

func TestAsyncCompletes(t *testing.T) {
	s, clock := newScheduler(t, nil)

	var ran bool
	task := s.EnqueueAsync(func(ctx context.Context) (bool, error) {
		ran = true
		return true, nil
	}, sched.WithName("io"))
	assert.True(t, task.Async())

	require.Eventually(t, func() bool {
		clock.Advance(frame)
		return !s.IsBusy()
	}, time.Second, time.Millisecond)
	assert.True(t, ran)
	assert.True(t, task.Cancelled(), "context released on completion")
}

func TestAsyncRelaunchedUntilDone(t *testing.T) {
	s, clock := newScheduler(t, nil)

	var mu sync.Mutex
	attempts := 0
	s.EnqueueAsync(func(ctx context.Context) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return attempts == 3, nil
	})

	require.Eventually(t, func() bool {
		clock.Advance(frame)
		return !s.IsBusy()
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, attempts)
}

func TestAsyncTimeoutCancelsContext(t *testing.T) {
	s, clock := newScheduler(t, nil)
	rec := &recorder{}

	observed := make(chan error, 1)
	task := s.EnqueueAsync(func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		observed <- ctx.Err()
		return false, ctx.Err()
	}, sched.WithName("slow"), sched.WithTimeout(50*time.Millisecond))
	s.Enqueue(rec.step("next"))

	drain(t, s, clock, 20)
	assert.True(t, task.Cancelled())
	assert.Equal(t, []string{"next"}, rec.order())

	select {
	case err := <-observed:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("async task never saw cancellation")
	}
}

func TestAsyncCancellationIsFault(t *testing.T) {
	var mu sync.Mutex
	var kinds []sched.EventKind
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.ErrorBehavior = sched.AbortAll
	}, sched.WithObserver(func(ev sched.Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	}))

	s.EnqueueAsync(func(ctx context.Context) (bool, error) {
		return false, fmt.Errorf("gave up: %w", context.Canceled)
	})
	dropped := s.Enqueue(never)

	require.Eventually(t, func() bool {
		clock.Advance(frame)
		return !s.IsBusy()
	}, time.Second, time.Millisecond)
	assert.True(t, dropped.Cancelled())

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, kinds, sched.EventCancel)
	assert.Contains(t, kinds, sched.EventAbort)
}

func TestAsyncFaultAndPanic(t *testing.T) {
	for name, fn := range map[string]sched.AsyncStep{
		"error": func(ctx context.Context) (bool, error) { return false, errors.New("io failed") },
		"panic": func(ctx context.Context) (bool, error) { panic("io exploded") },
	} {
		t.Run(name, func(t *testing.T) {
			s, clock := newScheduler(t, nil)
			rec := &recorder{}

			task := s.EnqueueAsync(fn)
			s.Enqueue(rec.step("next"))

			require.Eventually(t, func() bool {
				clock.Advance(frame)
				return !s.IsBusy()
			}, time.Second, time.Millisecond)
			assert.True(t, task.Cancelled())
			assert.Equal(t, []string{"next"}, rec.order())
		})
	}
}

func TestIdempotentDispose(t *testing.T) {
	reg := sched.NewRegistry()
	var disposals int
	s, clock := newScheduler(t, nil,
		sched.WithRegistry(reg),
		sched.WithObserver(func(ev sched.Event) {
			if ev.Kind == sched.EventDispose {
				disposals++
			}
		}))
	require.Equal(t, 1, reg.Len())

	block := func(ctx context.Context) (bool, error) {
		<-ctx.Done()
		return false, ctx.Err()
	}
	running := s.EnqueueAsync(block)
	clock.Advance(frame) // launches running
	queued := s.EnqueueAsync(block, sched.WithWeight(1))
	require.Equal(t, 1, s.QueueLen(1))
	pending := s.EnqueueAsync(block, sched.WithWeight(2))

	assert.NotPanics(t, func() {
		s.Dispose()
		s.Dispose()
	})

	for _, task := range []*sched.Task{running, queued, pending} {
		assert.True(t, task.Cancelled())
		select {
		case <-task.Done():
		default:
			t.Fatalf("context of %s not cancelled", task)
		}
	}
	assert.Equal(t, 1, disposals)
	assert.Zero(t, reg.Len())
	assert.True(t, s.Disposed())
	assert.False(t, s.IsBusy())
	assert.False(t, clock.Subscribed(s))

	late := s.Enqueue(never)
	assert.True(t, late.Cancelled(), "submissions after dispose are dropped")
	assert.False(t, s.IsBusy())
}

func TestRegistryDisposeAll(t *testing.T) {
	reg := sched.NewRegistry()
	a, _ := newScheduler(t, nil, sched.WithRegistry(reg))
	b, _ := newScheduler(t, nil, sched.WithRegistry(reg))
	require.Equal(t, 2, reg.Len())

	reg.DisposeAll()
	assert.True(t, a.Disposed())
	assert.True(t, b.Disposed())
	assert.Zero(t, reg.Len())
}

func TestCrossGoroutineSubmissionOrder(t *testing.T) {
	s, clock := newScheduler(t, nil)

	var mu sync.Mutex
	ran := make(map[int][]int) // producer -> sequence numbers in run order
	var inner []string

	// submitted from inside a tick
	s.Enqueue(sched.Do(func() {
		s.Enqueue(sched.Do(func() { inner = append(inner, "inner-1") }))
		s.Enqueue(sched.Do(func() { inner = append(inner, "inner-2") }))
	}))
	clock.Advance(frame)

	const producers, perProducer = 6, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				s.Enqueue(sched.Do(func() {
					mu.Lock()
					ran[p] = append(ran[p], i)
					mu.Unlock()
				}), sched.WithWeight(p%3))
			}
		}(p)
	}

	submitted := make(chan struct{})
	go func() {
		wg.Wait()
		close(submitted)
	}()
	for waiting := true; waiting; {
		select {
		case <-submitted:
			waiting = false
		default:
			clock.Advance(frame)
		}
	}
	drain(t, s, clock, producers*perProducer+10)

	assert.Equal(t, []string{"inner-1", "inner-2"}, inner)
	mu.Lock()
	defer mu.Unlock()
	for p := 0; p < producers; p++ {
		require.Len(t, ran[p], perProducer, "producer %d", p)
		for i, seq := range ran[p] {
			assert.Equal(t, i, seq, "producer %d ran out of order", p)
		}
	}
}

func TestDelayNextScenario(t *testing.T) {
	s, clock := newScheduler(t, nil)

	markDone := false
	s.DelayNext("gate", 100*time.Millisecond)
	s.Enqueue(sched.Do(func() { markDone = true }))

	for i := 0; i < 9; i++ {
		clock.Advance(frame)
	}
	require.Less(t, clock.Now(), 100*time.Millisecond)
	assert.False(t, markDone)

	for i := 0; i < 20 && !markDone; i++ {
		clock.Advance(frame)
	}
	assert.True(t, markDone)
	assert.GreaterOrEqual(t, clock.Now(), 100*time.Millisecond)
	assert.False(t, s.IsBusy())
}

func TestDelayNextOutlivesGlobalTimeout(t *testing.T) {
	s, clock := newScheduler(t, func(c *sched.Config) {
		c.TimeoutMS = 30
		c.TimeoutBehavior = sched.AbortAll
	})

	markDone := false
	s.DelayNext("", 200*time.Millisecond)
	s.Enqueue(sched.Do(func() { markDone = true }))

	drain(t, s, clock, 40)
	assert.True(t, markDone)
}

func TestInsertDelayNext(t *testing.T) {
	s, clock := newScheduler(t, nil)

	var ranAt time.Duration
	s.Enqueue(sched.Do(func() { ranAt = clock.Now() }))
	require.Equal(t, 1, s.QueueLen(0))
	s.InsertDelayNext("pause", 50*time.Millisecond)
	assert.Equal(t, 3, s.QueueLen(0))

	drain(t, s, clock, 20)
	assert.GreaterOrEqual(t, ranAt, 50*time.Millisecond)
}

func TestClockRegistration(t *testing.T) {
	s, clock := newScheduler(t, nil)
	assert.False(t, clock.Subscribed(s))

	s.Enqueue(sched.Do(func() {}))
	assert.True(t, clock.Subscribed(s))

	clock.Advance(frame)
	assert.False(t, s.IsBusy())
	assert.False(t, clock.Subscribed(s))

	// work submitted from the last step keeps the scheduler subscribed
	s.Enqueue(sched.Do(func() {
		s.Enqueue(sched.Do(func() {}))
	}))
	clock.Advance(frame)
	assert.True(t, clock.Subscribed(s))
	clock.Advance(frame)
	assert.False(t, clock.Subscribed(s))
}

func TestQueueAdministration(t *testing.T) {
	s, _ := newScheduler(t, nil)

	tasks := make([]*sched.Task, 5)
	for i := range tasks {
		tasks[i] = s.Enqueue(never, sched.WithName(fmt.Sprintf("t%d", i)), sched.WithWeight(1))
	}
	assert.Equal(t, 5, s.QueueLen(1))
	assert.Equal(t, 5, s.Count())

	assert.True(t, s.RemoveFirst(1))
	assert.True(t, tasks[0].Cancelled())
	assert.True(t, s.RemoveLast(1))
	assert.True(t, tasks[4].Cancelled())
	assert.Equal(t, 2, s.RemoveFirstN(1, 2))
	assert.True(t, tasks[1].Cancelled())
	assert.True(t, tasks[2].Cancelled())
	assert.False(t, tasks[3].Cancelled())
	assert.Equal(t, 1, s.QueueLen(1))

	s.AddQueue(-3)
	assert.Equal(t, []int{-3, 1}, s.Weights())

	assert.Equal(t, 1, s.ClearQueue(1))
	assert.True(t, tasks[3].Cancelled())
	assert.Equal(t, []int{-3, 1}, s.Weights(), "cleared queue still exists")

	assert.True(t, s.RemoveQueue(1))
	assert.False(t, s.RemoveQueue(1))
	assert.Equal(t, []int{-3}, s.Weights())

	assert.False(t, s.RemoveFirst(7))
	assert.False(t, s.RemoveLast(7))
	assert.Zero(t, s.RemoveFirstN(-3, 4))
	assert.Zero(t, s.ClearQueue(7))
	assert.False(t, s.IsBusy())
}

func TestStatus(t *testing.T) {
	s, clock := newScheduler(t, nil)

	s.Enqueue(never, sched.WithName("running"))
	s.Enqueue(never)
	clock.Advance(frame)
	s.Enqueue(never, sched.WithWeight(4))

	assert.Equal(t, "running", s.CurrentTaskName())
	assert.Equal(t, 3, s.Count(), "current + queued + pending")
	assert.True(t, s.IsBusy())
}

func TestAbortClearsEverything(t *testing.T) {
	s, clock := newScheduler(t, nil)

	s.Enqueue(never)
	clock.Advance(frame)
	s.Enqueue(never, sched.WithWeight(1))
	require.Equal(t, 1, s.QueueLen(1))
	pending := s.Insert(never, sched.WithWeight(2))

	s.Abort()
	assert.False(t, s.IsBusy())
	assert.Zero(t, s.Count())
	assert.True(t, pending.Cancelled())

	// the next tick unsubscribes
	clock.Advance(frame)
	assert.False(t, clock.Subscribed(s))
}

func TestAbortFromInsideStep(t *testing.T) {
	s, clock := newScheduler(t, nil)
	rec := &recorder{}

	s.Enqueue(func() (bool, error) {
		s.Abort()
		return false, nil
	})
	s.Enqueue(rec.step("never"))

	assert.NotPanics(t, func() { clock.Advance(frame) })
	assert.False(t, s.IsBusy())
	assert.Empty(t, rec.order())
}

func TestEventSequence(t *testing.T) {
	var kinds []sched.EventKind
	s, clock := newScheduler(t, nil, sched.WithObserver(func(ev sched.Event) {
		kinds = append(kinds, ev.Kind)
	}))

	s.Enqueue(sched.Do(func() {}), sched.WithName("one"))
	s.Insert(sched.Do(func() {}), sched.WithName("two"))
	drain(t, s, clock, 5)

	assert.Equal(t, []sched.EventKind{
		sched.EventEnqueue, sched.EventInsert,
		sched.EventStart, sched.EventFinish,
		sched.EventStart, sched.EventFinish,
	}, kinds)
}

func TestConfigurationErrors(t *testing.T) {
	clock := sched.NewManualClock()

	cfg := sched.DefaultConfig()
	cfg.TimeoutBehavior = sched.AbortInherit
	_, err := sched.New(clock, cfg)
	assert.ErrorIs(t, err, sched.ErrInvalidAbortBehavior)

	cfg = sched.DefaultConfig()
	cfg.ErrorBehavior = sched.AbortBehavior(42)
	_, err = sched.New(clock, cfg)
	assert.ErrorIs(t, err, sched.ErrInvalidAbortBehavior)

	_, err = sched.New(nil, sched.DefaultConfig())
	assert.Error(t, err)

	s, _ := newScheduler(t, nil)
	assert.ErrorIs(t, s.SetTimeoutBehavior(sched.AbortInherit), sched.ErrInvalidAbortBehavior)
	assert.ErrorIs(t, s.SetErrorBehavior(sched.AbortBehavior(-1)), sched.ErrInvalidAbortBehavior)
	assert.NoError(t, s.SetErrorBehavior(sched.AbortAll))

	assert.Panics(t, func() { sched.WithTimeoutBehavior(sched.AbortBehavior(9)) })
	assert.Panics(t, func() { sched.WithErrorBehavior(sched.AbortBehavior(9)) })
	assert.NotPanics(t, func() { sched.WithErrorBehavior(sched.AbortInherit) })
}

func TestDebugTraceLogging(t *testing.T) {
	var buf safeBuffer
	clock := sched.NewManualClock()
	cfg := sched.DefaultConfig()
	cfg.Debug = true
	s, err := sched.New(clock, cfg, sched.WithLogger(logging.NewLoggerWithWriter(slog.LevelDebug, "text", &buf)))
	require.NoError(t, err)
	defer s.Dispose()

	s.Enqueue(sched.Do(func() {}), sched.WithName("traced"))
	clock.Advance(frame)

	out := buf.String()
	assert.Contains(t, out, "task started")
	assert.Contains(t, out, "task completed")
	assert.Contains(t, out, "task=traced")
	assert.Contains(t, out, "component=scheduler")

	buf.Reset()
	s.SetDebug(false)
	s.Enqueue(sched.Do(func() {}), sched.WithName("quiet"))
	clock.Advance(frame)
	assert.NotContains(t, buf.String(), "quiet")
}

func TestFailureLogNamesTask(t *testing.T) {
	var buf safeBuffer
	clock := sched.NewManualClock()
	s, err := sched.New(clock, sched.DefaultConfig(), sched.WithLogger(logging.NewLoggerWithWriter(slog.LevelInfo, "text", &buf)))
	require.NoError(t, err)
	defer s.Dispose()

	s.Enqueue(never, sched.WithName("sluggish"), sched.WithTimeout(time.Millisecond))
	clock.Advance(frame)
	clock.Advance(frame)

	assert.Contains(t, buf.String(), "task timed out")
	assert.Contains(t, buf.String(), "task=sluggish")
}

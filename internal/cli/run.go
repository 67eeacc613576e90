package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"ticksched/internal/job"
	"ticksched/internal/sched"
)

type runOptions struct {
	tasks   int
	sleepMS int64
	delay   time.Duration
	csvPath string
	maxWait time.Duration
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drain a demo workload on a real tick clock",
		Long: `Enqueue countdown steps and sleeping async tasks across two weights,
followed by a DelayNext gate, and tick until the scheduler is idle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().IntVar(&opts.tasks, "tasks", 4, "Number of sync/async task pairs")
	cmd.Flags().Int64Var(&opts.sleepMS, "sleep", 20, "Sleep per async task in milliseconds")
	cmd.Flags().DurationVar(&opts.delay, "delay", 100*time.Millisecond, "DelayNext gate before the final task")
	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "Write scheduler events to this CSV file")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", 30*time.Second, "Abort if the queue has not drained by then")

	return cmd
}

func runDemo(ctx context.Context, out io.Writer, cfg sched.Config, opts runOptions) error {
	counts := &eventCounter{byKind: make(map[sched.EventKind]int)}
	observe := counts.Record

	if opts.csvPath != "" {
		rec, err := sched.CreateCSVRecorder(opts.csvPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		observe = func(ev sched.Event) {
			counts.Record(ev)
			rec.Record(ev)
		}
	}

	clock := sched.NewTickClock()
	clock.Start(cfg.TickInterval())
	defer clock.Stop()

	reg := sched.NewRegistry()
	defer reg.DisposeAll()

	s, err := sched.New(clock, cfg,
		sched.WithLogger(logger),
		sched.WithRegistry(reg),
		sched.WithObserver(observe),
	)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	for i := 0; i < opts.tasks; i++ {
		weight := i % 2
		s.Enqueue(job.Countdown(i+1),
			sched.WithName(fmt.Sprintf("countdown-%d", i)),
			sched.WithWeight(weight))
		s.EnqueueAsync(job.SleepWork(opts.sleepMS),
			sched.WithName(fmt.Sprintf("sleep-%d", i)),
			sched.WithWeight(weight))
	}
	s.DelayNext("demo", opts.delay, sched.WithWeight(1))
	s.Enqueue(sched.Do(func() {
		logger.Info("demo workload finished")
	}), sched.WithName("final"), sched.WithWeight(1))

	ctx, cancel := context.WithTimeout(ctx, opts.maxWait)
	defer cancel()

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()
	for s.IsBusy() {
		select {
		case <-ctx.Done():
			s.Abort()
			return fmt.Errorf("demo did not drain within %s: %w", opts.maxWait, ctx.Err())
		case <-ticker.C:
		}
	}

	fmt.Fprintf(out, "drained in %d ticks: %s\n", clock.Count(), counts)
	return nil
}

// eventCounter tallies events by kind.
type eventCounter struct {
	mu     sync.Mutex
	byKind map[sched.EventKind]int
}

func (c *eventCounter) Record(ev sched.Event) {
	c.mu.Lock()
	c.byKind[ev.Kind]++
	c.mu.Unlock()
}

func (c *eventCounter) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	kinds := []sched.EventKind{
		sched.EventEnqueue, sched.EventStart, sched.EventFinish,
		sched.EventTimeout, sched.EventFault, sched.EventCancel,
	}
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", strings.ToLower(k.String()), c.byKind[k]))
	}
	return strings.Join(parts, " ")
}

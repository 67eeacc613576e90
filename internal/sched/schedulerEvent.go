// internal/sched/schedulerEvent.go

package sched

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"
)

// EventKind represents the type of scheduler event
type EventKind int

const (
	EventEnqueue EventKind = iota
	EventInsert
	EventStart
	EventLaunch
	EventFinish
	EventTimeout
	EventFault
	EventCancel
	EventRemove
	EventAbort
	EventDispose
)

// Event is emitted on every task transition.
type Event struct {
	Time   time.Duration // frame clock reading
	Kind   EventKind
	TaskID string
	Name   string
	Weight int
	Reason string
}

// Observer receives scheduler events synchronously. It must not call back
// into the scheduler.
type Observer func(Event)

func (k EventKind) String() string {
	switch k {
	case EventEnqueue:
		return "Enqueue"
	case EventInsert:
		return "Insert"
	case EventStart:
		return "Start"
	case EventLaunch:
		return "Launch"
	case EventFinish:
		return "Finish"
	case EventTimeout:
		return "Timeout"
	case EventFault:
		return "Fault"
	case EventCancel:
		return "Cancel"
	case EventRemove:
		return "Remove"
	case EventAbort:
		return "Abort"
	case EventDispose:
		return "Dispose"
	default:
		return "Unknown"
	}
}

func taskEvent(kind EventKind, t *Task, now time.Duration, reason string) Event {
	return Event{
		Time:   now,
		Kind:   kind,
		TaskID: t.id,
		Name:   t.name,
		Weight: t.weight,
		Reason: reason,
	}
}

// CSVRecorder writes events as CSV rows.
type CSVRecorder struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
	err    error
}

// NewCSVRecorder writes the header row to w and returns a recorder.
func NewCSVRecorder(w io.Writer) (*CSVRecorder, error) {
	cw := csv.NewWriter(w)

	// write header
	if err := cw.Write([]string{"time_ms", "event", "task_id", "name", "weight", "reason"}); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return &CSVRecorder{w: cw}, nil
}

// CreateCSVRecorder creates the file at path and records into it. Close releases the file.
func CreateCSVRecorder(path string) (*CSVRecorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create event log: %w", err)
	}
	r, err := NewCSVRecorder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("write event log header: %w", err)
	}
	r.closer = f
	return r, nil
}

// Record appends one row. It has the Observer signature.
func (r *CSVRecorder) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	rec := []string{
		strconv.FormatInt(ev.Time.Milliseconds(), 10),
		ev.Kind.String(),
		ev.TaskID,
		ev.Name,
		strconv.Itoa(ev.Weight),
		ev.Reason,
	}
	if err := r.w.Write(rec); err != nil {
		r.err = err
		return
	}
	r.w.Flush()
	r.err = r.w.Error()
}

// Err returns the first write error, if any.
func (r *CSVRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes pending rows and closes the underlying file when the recorder owns one.
func (r *CSVRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.w.Flush()
	if r.closer != nil {
		if err := r.closer.Close(); err != nil {
			return err
		}
		r.closer = nil
	}
	return r.w.Error()
}

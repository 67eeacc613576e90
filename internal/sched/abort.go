package sched

import (
	"errors"
	"fmt"
	"strings"

	yaml "github.com/goccy/go-yaml"
)

var (
	// ErrInvalidAbortBehavior is returned for abort behavior values outside the known set.
	ErrInvalidAbortBehavior = errors.New("sched: invalid abort behavior")

	// ErrPanic wraps a value recovered from a panicking step.
	ErrPanic = errors.New("sched: step panicked")

	// ErrCancelled marks an async task whose operation ended by cancellation.
	ErrCancelled = errors.New("sched: task cancelled")
)

// AbortBehavior selects how the scheduler recovers from a timed out or failed task.
type AbortBehavior int

const (
	// AbortInherit is only meaningful on a task and defers to the scheduler default.
	AbortInherit AbortBehavior = iota
	// AbortAll drops every queued, pending and running task.
	AbortAll
	// AbortCurrent drops the current task and keeps the rest.
	AbortCurrent
)

func (b AbortBehavior) String() string {
	switch b {
	case AbortInherit:
		return "inherit"
	case AbortAll:
		return "abort_all"
	case AbortCurrent:
		return "abort_current"
	default:
		return fmt.Sprintf("AbortBehavior(%d)", int(b))
	}
}

// ParseAbortBehavior accepts the names produced by String, case-insensitively.
func ParseAbortBehavior(s string) (AbortBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "inherit", "":
		return AbortInherit, nil
	case "abort_all", "all":
		return AbortAll, nil
	case "abort_current", "current":
		return AbortCurrent, nil
	default:
		return AbortInherit, fmt.Errorf("%w: %q", ErrInvalidAbortBehavior, s)
	}
}

// MarshalYAML writes the behavior by name.
func (b AbortBehavior) MarshalYAML() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalYAML reads a behavior name.
func (b *AbortBehavior) UnmarshalYAML(data []byte) error {
	var s string
	if err := yaml.Unmarshal(data, &s); err != nil {
		return err
	}
	v, err := ParseAbortBehavior(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// validDefault reports whether b can be a scheduler-wide default.
func (b AbortBehavior) validDefault() bool {
	return b == AbortAll || b == AbortCurrent
}

func checkDefault(b AbortBehavior) error {
	if !b.validDefault() {
		return fmt.Errorf("%w: %s", ErrInvalidAbortBehavior, b)
	}
	return nil
}

// mustBeTaskBehavior panics on values that cannot be a task override.
func mustBeTaskBehavior(b AbortBehavior) {
	if b != AbortInherit && !b.validDefault() {
		panic(fmt.Sprintf("sched: invalid abort behavior %d", int(b)))
	}
}

// resolve picks the task override unless it defers to the default.
func resolve(override, def AbortBehavior) AbortBehavior {
	if override == AbortInherit {
		return def
	}
	return override
}

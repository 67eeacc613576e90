// Package sched runs weighted task queues cooperatively on a frame clock.
//
// A Scheduler promotes at most one task at a time, taken from the head of the
// lowest-weight non-empty queue, and steps it once per tick until it finishes,
// times out or fails. Sync steps run on the tick goroutine; async steps run on
// their own goroutine and are polled without blocking.
//
// # Thread Safety
//
// Enqueue, Insert, DelayNext and the administration methods may be called from
// any goroutine, including from inside a running step. Submissions from other
// goroutines are merged at the start of the next tick in the order they were
// made.
package sched

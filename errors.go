// Package gather error types, with cause chain support via errors.Unwrap.
package gather

import (
	"errors"
	"fmt"
)

// ErrScanCanceled is a sentinel for a scan stopped before exhaustion.
// GatherCore.Next does not return it: after FinishEarly or Shutdown, Next
// reports end-of-stream (ok=false) with a nil error.
var ErrScanCanceled = errors.New("gather: scan canceled")

// ChildPlanError wraps a failure surfaced by a running copy of the child
// plan, whether it ran in a worker goroutine or locally in the leader.
// WorkerID is 0 for the leader's own local copy.
type ChildPlanError struct {
	WorkerID int
	Cause    error
}

// Error implements the error interface.
func (e *ChildPlanError) Error() string {
	if e.WorkerID == 0 {
		return fmt.Sprintf("gather: local child plan: %v", e.Cause)
	}
	return fmt.Sprintf("gather: worker %d child plan: %v", e.WorkerID, e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *ChildPlanError) Unwrap() error {
	return e.Cause
}

// QueueTransportError reports a failure on a worker's tuple queue. The
// harness returns it for a worker whose Push onto its queue was canceled;
// the reading side never produces it.
type QueueTransportError struct {
	WorkerID int
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *QueueTransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("gather: queue transport (worker %d): %s", e.WorkerID, e.Message)
	}
	return fmt.Sprintf("gather: queue transport (worker %d): %s: %v", e.WorkerID, e.Message, e.Cause)
}

// Unwrap returns the underlying cause for use with errors.Is and errors.As.
func (e *QueueTransportError) Unwrap() error {
	return e.Cause
}

// AggregateWorkerError collects the terminal errors of more than one
// worker, surfaced together when a scan ends with multiple failed workers.
type AggregateWorkerError struct {
	Errors []error
}

// Error implements the error interface.
func (e *AggregateWorkerError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	s := fmt.Sprintf("gather: %d workers failed:", len(e.Errors))
	for _, err := range e.Errors {
		s += " " + err.Error() + ";"
	}
	return s
}

// Unwrap returns the wrapped errors for multi-error unwrapping, enabling
// errors.Is / errors.As to check against every contained error.
func (e *AggregateWorkerError) Unwrap() []error {
	return e.Errors
}

// Is reports whether target is an *AggregateWorkerError, independent of
// its contents; per-error matching is already handled by Unwrap() []error.
func (e *AggregateWorkerError) Is(target error) bool {
	var aggTarget *AggregateWorkerError
	return errors.As(target, &aggTarget)
}

// WrapError wraps cause with a message, preserving it for errors.Is/As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// RangeError reports a configuration value outside its accepted range,
// returned by GatherOption constructors such as WithQueueCapacity.
type RangeError struct {
	Message string
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return "gather: " + e.Message
}

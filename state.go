package gather

import (
	"sync/atomic"
)

// ScanState represents the current state of a GatherCore's scan.
//
// State Machine:
//
//	ScanFresh (0) → ScanInitialized (1)  [first Next launches workers]
//	ScanInitialized (1) → ScanDraining (2) [workers exhausted, local plan still live]
//	ScanInitialized (1) → ScanTerminal (3) [last tuple returned / error / Shutdown]
//	ScanDraining (2) → ScanTerminal (3)
//	ScanTerminal (3) → (terminal; Rescan resets to ScanFresh)
type ScanState uint64

const (
	// ScanFresh indicates the operator has been constructed but Next has not
	// yet been called; workers have not been launched.
	ScanFresh ScanState = 0
	// ScanInitialized indicates workers are launched and the operator is
	// actively pulling tuples from the worker set and/or the local plan.
	ScanInitialized ScanState = 1
	// ScanDraining indicates every worker has reported end-of-data and only
	// the local child plan copy (if running) remains live.
	ScanDraining ScanState = 2
	// ScanTerminal indicates the scan is over: exhausted, errored, or shut
	// down. No further tuples will be produced.
	ScanTerminal ScanState = 3
)

// String returns a human-readable representation of the state.
func (s ScanState) String() string {
	switch s {
	case ScanFresh:
		return "Fresh"
	case ScanInitialized:
		return "Initialized"
	case ScanDraining:
		return "Draining"
	case ScanTerminal:
		return "Terminal"
	default:
		return "Unknown"
	}
}

// WorkerState represents the lifecycle of a single worker goroutine running
// a copy of the child plan.
type WorkerState uint64

const (
	// WorkerPending indicates the worker goroutine has not yet been started.
	WorkerPending WorkerState = 0
	// WorkerRunning indicates the worker is actively pulling from its child
	// plan copy and writing to its queue.
	WorkerRunning WorkerState = 1
	// WorkerDone indicates the worker's child plan reported end-of-data and
	// the worker goroutine has exited cleanly.
	WorkerDone WorkerState = 2
	// WorkerFailed indicates the worker's child plan returned an error and
	// the worker goroutine has exited.
	WorkerFailed WorkerState = 3
)

// String returns a human-readable representation of the worker state.
func (s WorkerState) String() string {
	switch s {
	case WorkerPending:
		return "Pending"
	case WorkerRunning:
		return "Running"
	case WorkerDone:
		return "Done"
	case WorkerFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// fastStateKind is the constraint satisfied by any uint64-backed state enum
// usable with FastState: ScanState and WorkerState both qualify.
type fastStateKind interface {
	~uint64
}

// cacheLineBytes is the padding budget assumed for FastState: large enough
// to cover both a 64-byte x86-64 line and a 128-byte Apple Silicon/ARM64
// line, verified against golang.org/x/sys/cpu in state_test.go.
const cacheLineBytes = 128

// atomicUint64Bytes is unsafe.Sizeof(atomic.Uint64{}), verified in
// state_test.go so the padding below stays correct if that ever changes.
const atomicUint64Bytes = 8

// FastState is a lock-free state machine with cache-line padding on both
// sides of its value, shared by the operator's scan state
// (FastState[ScanState]) and each worker's lifecycle state
// (FastState[WorkerState]). Padding avoids false sharing when many worker
// states are allocated close together, as ParallelHarness does.
type FastState[S fastStateKind] struct { // betteralign:ignore
	_ [cacheLineBytes]byte                    // leading padding //nolint:unused
	v atomic.Uint64                           // state value
	_ [cacheLineBytes - atomicUint64Bytes]byte // trailing padding //nolint:unused
}

// NewFastState creates a new state machine initialized to initial.
func NewFastState[S fastStateKind](initial S) *FastState[S] {
	s := &FastState[S]{}
	s.v.Store(uint64(initial))
	return s
}

// Load returns the current state atomically.
func (s *FastState[S]) Load() S {
	return S(s.v.Load())
}

// Store atomically stores a new state, bypassing transition validation.
func (s *FastState[S]) Store(state S) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically transition from one state to another.
// Returns true if the transition was successful.
func (s *FastState[S]) TryTransition(from, to S) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

// TransitionAny attempts to transition from any valid source state to the
// target state, returning true if one of them succeeded.
func (s *FastState[S]) TransitionAny(validFrom []S, to S) bool {
	for _, from := range validFrom {
		if s.v.CompareAndSwap(uint64(from), uint64(to)) {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the current state equals terminal.
func (s *FastState[S]) IsTerminal(terminal S) bool {
	return s.Load() == terminal
}

package gather

import (
	"context"
	"errors"
	"sync"
	"time"
)

// errUnsupportedWakeFD is returned by createPlatformWakeFD on platforms with
// no eventfd/self-pipe equivalent (see wakefd_other.go).
var errUnsupportedWakeFD = errors.New("gather: platform wake fd not supported")

// latchPollIntervalMs is the default poll interval, in milliseconds, between
// checks of ctx.Done() when parked on the platform-native wake fd. It trades
// a small amount of wakeup latency for guaranteed, prompt cancellation.
// Overridden per-instance via WithLatchPollInterval.
const latchPollIntervalMs = 50

// Latch is a one-shot, settable wakeup primitive, analogous to PostgreSQL's
// process latch: any goroutine may call Set, a parked Wait unblocks exactly
// once per Set, and Reset re-arms it for the next wait. It is the operator's
// only blocking suspension point besides a child plan call and the wait for
// worker exit in ParallelHarness.Finish.
type Latch struct {
	mu         sync.Mutex
	set        bool
	wake       chan struct{}
	pollMillis int

	fd *wakeFD // non-nil on Linux/Darwin; nil (channel-only) elsewhere
}

// wakeFD wraps a platform-native eventfd/self-pipe pair used to make Wait
// interruptible by real I/O readiness rather than a bare channel, mirroring
// how the teacher event loop parks on its wake pipe instead of spinning.
type wakeFD struct {
	readFD, writeFD int
}

func newWakeFD() *wakeFD {
	if !isWakeFdSupported() {
		return nil
	}
	r, w, err := createPlatformWakeFD()
	if err != nil {
		return nil
	}
	return &wakeFD{readFD: r, writeFD: w}
}

func (f *wakeFD) signal() {
	var buf [8]byte
	buf[0] = 1
	_, _ = writeFD(f.writeFD, buf[:])
}

func (f *wakeFD) drain() {
	var buf [8]byte
	for {
		n, err := readFD(f.readFD, buf[:])
		if err != nil || n <= 0 {
			return
		}
	}
}

func (f *wakeFD) close() error {
	if f.writeFD != f.readFD {
		_ = closeFD(f.writeFD)
	}
	return closeFD(f.readFD)
}

// NewLatch creates a latch in the unset (cleared) state, polling the
// platform wake fd (if any) at the given interval.
func NewLatch(pollInterval time.Duration) *Latch {
	millis := int(pollInterval / time.Millisecond)
	if millis <= 0 {
		millis = latchPollIntervalMs
	}
	return &Latch{
		wake:       make(chan struct{}, 1),
		fd:         newWakeFD(),
		pollMillis: millis,
	}
}

// Set arms the latch, waking any parked Wait. Idempotent: setting an
// already-set latch is a no-op, matching WL_LATCH_SET semantics.
func (l *Latch) Set() {
	l.mu.Lock()
	already := l.set
	l.set = true
	l.mu.Unlock()
	if already {
		return
	}
	select {
	case l.wake <- struct{}{}:
	default:
	}
	if l.fd != nil {
		l.fd.signal()
	}
}

// Reset clears the latch so the next Wait blocks until the next Set.
func (l *Latch) Reset() {
	l.mu.Lock()
	l.set = false
	l.mu.Unlock()
	select {
	case <-l.wake:
	default:
	}
	if l.fd != nil {
		l.fd.drain()
	}
}

// Wait blocks until Set is called or ctx is done, whichever comes first.
// It does not Reset the latch; callers should call Reset once they have
// consumed the reason for the wakeup, matching wait_latch + reset_latch.
func (l *Latch) Wait(ctx context.Context) error {
	l.mu.Lock()
	alreadySet := l.set
	l.mu.Unlock()
	if alreadySet {
		return nil
	}

	if l.fd == nil {
		select {
		case <-l.wake:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		select {
		case <-l.wake:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		readable, err := pollReadable(l.fd.readFD, l.pollMillis)
		if err != nil {
			// Fall back to the channel path; the fd is no longer trustworthy.
			select {
			case <-l.wake:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if readable {
			l.fd.drain()
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Close releases the platform wake fd, if any. Safe to call once, after the
// latch is no longer in use.
func (l *Latch) Close() error {
	if l.fd != nil {
		return l.fd.close()
	}
	return nil
}

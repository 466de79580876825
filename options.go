package gather

import "time"

// gatherOptions holds resolved configuration for a GatherCore.
type gatherOptions struct {
	singleCopy        bool
	parallelSend      bool
	statisticsEnabled bool
	queueCapacity     int
	logger            Logger
	latchPollInterval time.Duration
	projection        Projection
}

// GatherOption configures a GatherCore at construction time.
type GatherOption interface {
	applyGather(*gatherOptions) error
}

// gatherOptionImpl implements GatherOption.
type gatherOptionImpl struct {
	applyFunc func(*gatherOptions) error
}

func (o *gatherOptionImpl) applyGather(opts *gatherOptions) error {
	return o.applyFunc(opts)
}

// WithSingleCopy puts the gather into single-copy mode: exactly one worker
// copy of the child plan is launched, and the leader runs the plan locally
// only if that worker could not be launched. This is for plans with only one
// possible copy (e.g. a child already holding an exclusive resource), not a
// performance knob.
func WithSingleCopy(enabled bool) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		opts.singleCopy = enabled
		return nil
	}}
}

// WithParallelSend puts the gather into leader-bypass mode: the first call
// to Next tears down any launched workers and returns the empty sentinel
// immediately, without running the merge loop or the local plan at all. It
// models a caller that has workers deliver tuples directly to a downstream
// consumer instead of through Next. Disabled by default.
func WithParallelSend(enabled bool) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		opts.parallelSend = enabled
		return nil
	}}
}

// WithStatistics enables tuple-count and read-latency tracking, exposed via
// GatherCore.Stats. Adds per-tuple bookkeeping overhead; leave disabled on
// hot paths that don't consume the statistics.
func WithStatistics(enabled bool) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		opts.statisticsEnabled = enabled
		return nil
	}}
}

// WithQueueCapacity sets the per-worker tuple queue capacity. Must be a
// power of two; values that aren't are rounded up. Default is 1024.
func WithQueueCapacity(capacity int) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		if capacity <= 0 {
			return &RangeError{Message: "queue capacity must be positive"}
		}
		opts.queueCapacity = nextPowerOfTwo(capacity)
		return nil
	}}
}

// WithLogger stores logger in this GatherCore's configuration and hands it to
// its ParallelHarness. The package-level log helpers (LogWorkerLaunched,
// LogQueueDropped, ...) write through the global logger set by
// SetStructuredLogger, so no entries are routed to this logger.
func WithLogger(logger Logger) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		if logger == nil {
			logger = NewNoOpLogger()
		}
		opts.logger = logger
		return nil
	}}
}

// WithLatchPollInterval overrides the wakeup latch's platform-wake-fd poll
// interval, trading cancellation latency for fewer wakeups. Default 50ms.
func WithLatchPollInterval(d time.Duration) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		if d <= 0 {
			return &RangeError{Message: "latch poll interval must be positive"}
		}
		opts.latchPollInterval = d
		return nil
	}}
}

// WithProjection sets the projection applied to each tuple before it is
// returned from Next. The identity projection is used if omitted.
func WithProjection(p Projection) GatherOption {
	return &gatherOptionImpl{func(opts *gatherOptions) error {
		opts.projection = p
		return nil
	}}
}

// resolveGatherOptions applies GatherOptions over the default configuration.
func resolveGatherOptions(opts []GatherOption) (*gatherOptions, error) {
	cfg := &gatherOptions{
		queueCapacity:     1024,
		logger:            NewNoOpLogger(),
		latchPollInterval: latchPollIntervalMs * time.Millisecond,
		projection:        identityProjection{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyGather(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// nextPowerOfTwo rounds n up to the next power of two, or returns n if it
// already is one.
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

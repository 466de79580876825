package gather

import (
	"context"
	"sync/atomic"
	"time"
)

// scanIDSeq assigns a monotonically increasing, process-wide scan ID to
// each GatherCore for log correlation; it carries no other meaning.
var scanIDSeq atomic.Int64

// GatherCore is the Gather operator: it lazily launches worker copies of a
// child plan through a ParallelHarness on the first Next call, merges their
// output with a WorkerSet, optionally helps out by also running the child
// plan locally in the leader, and exposes the usual scan lifecycle (Next,
// Rescan, Shutdown) plus FinishEarly for early scan termination.
type GatherCore struct {
	factory    ChildPlanFactory
	numWorkers int
	opts       *gatherOptions

	scanID int64
	state  *FastState[ScanState]
	latch  *Latch
	stats  *gatherStatsCollector

	harness *ParallelHarness
	workers *WorkerSet

	needToScanLocally bool
	localPlan         ChildPlan
}

// NewGatherCore constructs an operator over numWorkers requested copies of
// the plan produced by factory. Workers are not launched until the first
// call to Next.
func NewGatherCore(factory ChildPlanFactory, numWorkers int, opts ...GatherOption) (*GatherCore, error) {
	cfg, err := resolveGatherOptions(opts)
	if err != nil {
		return nil, err
	}
	g := &GatherCore{
		factory:    factory,
		numWorkers: numWorkers,
		opts:       cfg,
		scanID:     scanIDSeq.Add(1),
		state:      NewFastState(ScanFresh),
		latch:      NewLatch(cfg.latchPollInterval),
	}
	if cfg.statisticsEnabled {
		g.stats = newGatherStatsCollector()
	}
	if cfg.singleCopy {
		g.needToScanLocally = false
	} else {
		g.needToScanLocally = true
	}
	return g, nil
}

// targetWorkerCount is the number of workers the harness should attempt to
// launch: exactly one in single-copy mode when any were requested, the
// requested count otherwise.
func (g *GatherCore) targetWorkerCount() int {
	if g.opts.singleCopy && g.numWorkers > 0 {
		return 1
	}
	return g.numWorkers
}

// initialize performs the first-call setup described by the operator's
// state machine: launch workers (unless none were requested), decide
// whether the leader must also scan locally, and transition out of Fresh.
func (g *GatherCore) initialize(ctx context.Context) error {
	if g.targetWorkerCount() > 0 {
		if g.harness == nil {
			g.harness = NewParallelHarness(g.factory, g.targetWorkerCount(), g.opts.queueCapacity, g.latch, g.opts.logger, g.scanID)
		} else {
			g.harness.Reinitialize()
		}

		launched, readers, err := g.harness.Launch(ctx)
		if err != nil {
			return err
		}
		if launched > 0 {
			g.workers = NewWorkerSet(readers, g.scanID)
		} else if err := g.shutdownWorkers(ctx); err != nil {
			return err
		}
	}

	if g.opts.singleCopy {
		g.needToScanLocally = g.workers == nil
	} else {
		g.needToScanLocally = true
	}

	if g.needToScanLocally && g.localPlan == nil {
		plan, err := g.factory()
		if err != nil {
			return err
		}
		g.localPlan = plan
	}

	g.state.Store(ScanInitialized)
	return nil
}

// Next returns the next projected tuple, or ok=false at end-of-stream. Once
// it has returned ok=false, every subsequent call also returns ok=false
// until Rescan runs (terminal absorption).
func (g *GatherCore) Next(ctx context.Context) (Tuple, bool, error) {
	if g.state.IsTerminal(ScanTerminal) {
		return nil, false, nil
	}
	if g.state.Load() == ScanFresh {
		if err := g.initialize(ctx); err != nil {
			g.state.Store(ScanTerminal)
			return nil, false, err
		}
	}

	if g.opts.parallelSend {
		err := g.shutdownWorkers(ctx)
		g.state.Store(ScanTerminal)
		return nil, false, err
	}

	for g.workers != nil || g.needToScanLocally {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		if g.workers != nil {
			start := time.Time{}
			if g.stats != nil {
				start = time.Now()
			}
			outcome, tuple, err := g.workers.PollOne(ctx, g.needToScanLocally)
			if err != nil {
				_ = g.shutdownWorkers(ctx)
				g.state.Store(ScanTerminal)
				return nil, false, err
			}
			switch outcome {
			case PollTuple:
				return g.emit(tuple, start)
			case PollExhaustedAll:
				g.workers = nil
				g.state.Store(ScanDraining)
				if err := g.finishHarness(ctx); err != nil {
					g.state.Store(ScanTerminal)
					return nil, false, err
				}
				continue
			case PollYieldToLocal:
				// fall through to the local attempt below
			case PollWait:
				LogLatchWait(g.scanID, g.workers.Len())
				if err := g.latch.Wait(ctx); err != nil {
					return nil, false, err
				}
				g.latch.Reset()
				continue
			}
		}

		if g.needToScanLocally {
			start := time.Time{}
			if g.stats != nil {
				start = time.Now()
			}
			tuple, ok, err := g.localPlan.Next(ctx)
			if err != nil {
				g.state.Store(ScanTerminal)
				return nil, false, &ChildPlanError{WorkerID: 0, Cause: err}
			}
			if ok {
				return g.emit(tuple, start)
			}
			g.needToScanLocally = false
		}
	}

	g.state.Store(ScanTerminal)
	return nil, false, nil
}

// emit applies the configured projection to tuple, records statistics if
// enabled, and returns the projected result.
func (g *GatherCore) emit(tuple Tuple, readStart time.Time) (Tuple, bool, error) {
	if g.stats != nil && !readStart.IsZero() {
		g.stats.record(time.Since(readStart))
	}
	projected, err := g.opts.projection.Apply(tuple)
	if err != nil {
		g.state.Store(ScanTerminal)
		return nil, false, err
	}
	return projected, true, nil
}

// shutdownWorkers destroys the WorkerSet (if any) and finishes the harness
// (if any), collecting worker statistics and errors. Idempotent.
func (g *GatherCore) shutdownWorkers(ctx context.Context) error {
	if g.workers != nil {
		g.workers.Shutdown()
		g.workers = nil
	}
	return g.finishHarness(ctx)
}

// finishHarness runs harness.Finish exactly once per launch cycle; safe to
// call when no harness exists.
func (g *GatherCore) finishHarness(ctx context.Context) error {
	if g.harness == nil || g.harness.finished {
		return nil
	}
	return g.harness.Finish(ctx)
}

// Rescan tears down workers and the local plan's position, keeping the
// harness allocated, and resets the state machine to Fresh so the next
// Next call relaunches everything.
func (g *GatherCore) Rescan(ctx context.Context) error {
	if err := g.shutdownWorkers(ctx); err != nil {
		return err
	}
	if g.harness != nil {
		g.harness.Reinitialize()
	}
	if g.localPlan != nil {
		if err := g.localPlan.Rescan(ctx); err != nil {
			return err
		}
	}
	g.needToScanLocally = !g.opts.singleCopy
	g.latch.Reset()
	g.state.Store(ScanFresh)
	LogScanRescanned(g.scanID)
	return nil
}

// Shutdown is terminal: it tears down workers, finishes and cleans up the
// harness, shuts down the local plan copy, and releases the latch.
func (g *GatherCore) Shutdown(ctx context.Context) error {
	err := g.shutdownWorkers(ctx)
	if g.harness != nil {
		g.harness.Cleanup()
		g.harness = nil
	}
	if g.localPlan != nil {
		_ = g.localPlan.Shutdown(ctx)
		g.localPlan = nil
	}
	_ = g.latch.Close()
	g.state.Store(ScanTerminal)
	return err
}

// FinishEarly asks any running workers to stop pulling from their child
// plan copies, then drains Next until the scan reports end-of-stream. Used
// when the parent operator (e.g. a satisfied LIMIT) needs no more rows.
func (g *GatherCore) FinishEarly(ctx context.Context) error {
	if g.harness != nil {
		g.harness.RequestFinishEarly()
	}
	for {
		_, ok, err := g.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// Stats returns a snapshot of tuple throughput and read latency. The zero
// value is returned if WithStatistics was not enabled.
func (g *GatherCore) Stats() GatherStats {
	if g.stats == nil {
		return GatherStats{}
	}
	return g.stats.snapshot()
}

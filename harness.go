package gather

import (
	"context"
	"sync/atomic"
)

// workerHandle tracks one launched worker goroutine's lifecycle and its
// terminal outcome.
type workerHandle struct {
	id    int
	state *FastState[WorkerState]
	queue *TupleQueue[Tuple]
	done  chan struct{}

	tuplesProduced int64
	err            error
}

// ParallelHarness launches worker goroutines that each run an independent
// copy of the child plan and push tuples into their own queue, then reaps
// them. It plays the role the planner's parallel-context subsystem plays in
// a real executor: allocate, launch, finish, cleanup.
type ParallelHarness struct {
	factory       ChildPlanFactory
	numWorkers    int
	queueCapacity int
	latch         *Latch
	logger        Logger
	scanID        int64

	workers      []*workerHandle
	executorDone atomic.Bool
	finished     bool
}

// NewParallelHarness constructs a harness for up to numWorkers copies of the
// plan produced by factory. Workers are not started until Launch is called.
func NewParallelHarness(factory ChildPlanFactory, numWorkers, queueCapacity int, latch *Latch, logger Logger, scanID int64) *ParallelHarness {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &ParallelHarness{
		factory:       factory,
		numWorkers:    numWorkers,
		queueCapacity: queueCapacity,
		latch:         latch,
		logger:        logger,
		scanID:        scanID,
	}
}

// Launch starts up to numWorkers worker goroutines, returning how many
// actually started and a QueueReader for each. A worker that fails to
// obtain a child-plan copy from the factory is skipped, not fatal: Gather
// degrades to however many did launch.
func (h *ParallelHarness) Launch(ctx context.Context) (launched int, readers []QueueReader, err error) {
	h.executorDone.Store(false)
	h.finished = false
	h.workers = h.workers[:0]

	for i := 0; i < h.numWorkers; i++ {
		id := i + 1
		plan, ferr := h.factory()
		if ferr != nil {
			LogWorkerFailedToLaunch(h.scanID, int64(id), ferr)
			continue
		}
		wh := &workerHandle{
			id:    id,
			state: NewFastState(WorkerPending),
			queue: NewTupleQueue[Tuple](h.queueCapacity, h.latch),
			done:  make(chan struct{}),
		}
		h.workers = append(h.workers, wh)
		LogWorkerLaunched(h.scanID, int64(id))
		go h.runWorker(ctx, wh, plan)
	}

	readers = make([]QueueReader, len(h.workers))
	for i, wh := range h.workers {
		readers[i] = newTupleQueueReader(wh.id, wh.queue)
	}
	return len(h.workers), readers, nil
}

// runWorker drives one worker's child plan copy to exhaustion, to error, or
// until RequestFinishEarly is observed, pushing every tuple to its queue.
func (h *ParallelHarness) runWorker(ctx context.Context, wh *workerHandle, plan ChildPlan) {
	wh.state.Store(WorkerRunning)
	defer close(wh.done)
	defer wh.queue.Close()

	for {
		if h.executorDone.Load() {
			break
		}
		if err := ctx.Err(); err != nil {
			wh.err = err
			break
		}

		tuple, ok, err := plan.Next(ctx)
		if err != nil {
			wh.err = &ChildPlanError{WorkerID: wh.id, Cause: err}
			break
		}
		if !ok {
			break
		}

		if err := wh.queue.Push(ctx, tuple); err != nil {
			wh.err = &QueueTransportError{WorkerID: wh.id, Message: "push canceled", Cause: err}
			break
		}
		wh.tuplesProduced++
	}

	_ = plan.Shutdown(context.Background())

	if wh.err != nil {
		wh.state.Store(WorkerFailed)
	} else {
		wh.state.Store(WorkerDone)
	}
	LogWorkerDone(h.scanID, int64(wh.id), wh.tuplesProduced, wh.err)
}

// RequestFinishEarly asks every running worker to stop pulling from its
// child plan as soon as it next checks, used by GatherCore.FinishEarly.
func (h *ParallelHarness) RequestFinishEarly() {
	h.executorDone.Store(true)
}

// Finish blocks until every launched worker has exited, then aggregates
// their terminal errors (if any). This is the memory-fence point: no
// worker statistics may be read before Finish returns.
func (h *ParallelHarness) Finish(ctx context.Context) error {
	for _, wh := range h.workers {
		select {
		case <-wh.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	h.finished = true

	var errs []error
	for _, wh := range h.workers {
		if wh.err != nil {
			errs = append(errs, wh.err)
		}
	}
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &AggregateWorkerError{Errors: errs}
	}
}

// Reinitialize prepares the harness for another launch cycle on rescan,
// keeping the harness itself allocated but discarding worker handles from
// the prior scan.
func (h *ParallelHarness) Reinitialize() {
	h.workers = nil
	h.executorDone.Store(false)
	h.finished = false
}

// Cleanup releases the harness's resources entirely. Called only from
// GatherCore.Shutdown, never from Rescan.
func (h *ParallelHarness) Cleanup() {
	h.workers = nil
}

// TuplesProduced sums tuples produced across all workers from the most
// recently finished scan; only meaningful after Finish has returned.
func (h *ParallelHarness) TuplesProduced() int64 {
	var total int64
	for _, wh := range h.workers {
		total += wh.tuplesProduced
	}
	return total
}

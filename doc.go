// Package gather implements the Gather operator of a parallel query
// execution engine: a fan-in node that runs N copies of a child plan in
// worker goroutines and merges their output tuples into a single stream,
// optionally also running the child plan locally in the leader to avoid
// starving the pipeline when workers are slow or unavailable.
//
// # Architecture
//
// [GatherCore] is the operator. On first [GatherCore.Next] it lazily launches
// workers through a [ParallelHarness], wrapping their [QueueReader]s in a
// [WorkerSet]. Each subsequent call drains one tuple from the worker set or,
// when permitted, from the local [ChildPlan] copy running in the leader,
// applies [Projection], and returns it. [GatherCore.Rescan] tears workers
// down and re-launches them on the next call; [GatherCore.Shutdown] is
// terminal.
//
// # Concurrency model
//
// The operator itself runs on a single goroutine (the caller's). Workers run
// on their own goroutines, each writing to one [TupleQueue] that the leader
// polls without blocking. When every surviving queue is empty after a full
// round-robin lap and the leader cannot help locally, the operator blocks on
// a [Latch] until a worker wakes it.
//
// # Platform support
//
// [Latch] uses a platform-native wake fd — eventfd on Linux, a self-pipe
// on Darwin — and a buffered channel on Windows. The package builds only on
// Linux, Darwin and Windows: the fd helpers are not defined elsewhere.
//
// # Error types
//
// [ChildPlanError] wraps a failure from the child plan or a worker-delivered
// error. [QueueTransportError] reports a worker whose push onto its queue
// was canceled. [AggregateWorkerError] collects more than one worker's terminal
// error. All satisfy errors.Unwrap / errors.Is / errors.As.
//
// # Usage
//
//	core, err := gather.NewGatherCore(childPlanFactory, 4,
//	    gather.WithProjection(projectFn),
//	    gather.WithStatistics(true),
//	)
//	if err != nil {
//	    return err
//	}
//	defer core.Shutdown(ctx)
//
//	for {
//	    tuple, ok, err := core.Next(ctx)
//	    if err != nil {
//	        return err
//	    }
//	    if !ok {
//	        break
//	    }
//	    consume(tuple)
//	}
package gather

package gather

import "context"

// PollOutcome is the result of one WorkerSet.PollOne call.
type PollOutcome int

const (
	// PollTuple indicates a tuple was read; see WorkerSet.PollOne's second
	// return value.
	PollTuple PollOutcome = iota
	// PollExhaustedAll indicates the last surviving reader just reported
	// end-of-stream; WorkerSet should be dropped by the caller.
	PollExhaustedAll
	// PollYieldToLocal indicates a full unproductive lap completed and the
	// leader should attempt a local pull instead of blocking.
	PollYieldToLocal
	// PollWait indicates a full unproductive lap completed and no local
	// fallback is available; the caller should block on the wakeup latch.
	PollWait
)

// WorkerSet owns the surviving QueueReaders for the current scan and
// performs the fair, sticky round-robin read described by the operator's
// per-call tuple production loop.
type WorkerSet struct {
	readers    []QueueReader
	nextReader int
	scanID     int64
}

// NewWorkerSet constructs a WorkerSet from at least one QueueReader, in
// launch order. scanID correlates queue retirement log entries with the
// owning scan.
func NewWorkerSet(readers []QueueReader, scanID int64) *WorkerSet {
	if len(readers) == 0 {
		panic("gather: NewWorkerSet requires at least one reader")
	}
	cp := make([]QueueReader, len(readers))
	copy(cp, readers)
	return &WorkerSet{readers: cp, scanID: scanID}
}

// Len reports the current survivor count.
func (w *WorkerSet) Len() int {
	return len(w.readers)
}

// PollOne performs one step of the multi-queue read loop: check for
// cancellation, try the reader at the cursor, retire it on end-of-stream,
// stay sticky on a productive read, and otherwise advance until a full lap
// completes.
func (w *WorkerSet) PollOne(ctx context.Context, leaderParticipating bool) (PollOutcome, Tuple, error) {
	visited := 0
	for {
		if err := ctx.Err(); err != nil {
			return PollWait, nil, err
		}

		reader := w.readers[w.nextReader]
		tuple, done := reader.Read()
		if done {
			reader.Close()
			LogQueueDropped(w.scanID, int64(reader.ID()), "end of stream")
			w.readers = append(w.readers[:w.nextReader], w.readers[w.nextReader+1:]...)
			if w.nextReader >= len(w.readers) {
				w.nextReader = 0
			}
			if len(w.readers) == 0 {
				return PollExhaustedAll, nil, nil
			}
			continue // a done-reader does not count as a visit
		}

		if tuple != nil {
			// sticky: do not advance nextReader on a productive read
			return PollTuple, tuple, nil
		}

		w.nextReader = (w.nextReader + 1) % len(w.readers)
		visited++
		if visited >= len(w.readers) {
			if leaderParticipating {
				return PollYieldToLocal, nil, nil
			}
			return PollWait, nil, nil
		}
	}
}

// Shutdown destroys every remaining reader. Idempotent.
func (w *WorkerSet) Shutdown() {
	for _, r := range w.readers {
		r.Close()
	}
	w.readers = nil
	w.nextReader = 0
}

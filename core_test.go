package gather

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceChildPlan is a ChildPlan that replays a fixed slice of tuples, then
// reports exhaustion. It records how many times each method was called so
// tests can assert on the leader-fallback and single-copy invariants.
type sliceChildPlan struct {
	tuples    []Tuple
	pos       int
	nextCalls int
	rescans   int
	shutdowns int
}

func (p *sliceChildPlan) Next(ctx context.Context) (Tuple, bool, error) {
	p.nextCalls++
	if p.pos >= len(p.tuples) {
		return nil, false, nil
	}
	t := p.tuples[p.pos]
	p.pos++
	return t, true, nil
}

func (p *sliceChildPlan) Rescan(ctx context.Context) error {
	p.pos = 0
	p.rescans++
	return nil
}

func (p *sliceChildPlan) Shutdown(ctx context.Context) error {
	p.shutdowns++
	return nil
}

// partitionedFactory returns a ChildPlanFactory that hands out the given
// partitions in order to the first len(partitions) callers (the workers,
// called in harness launch order), then an empty plan to every caller
// after that (the leader's local copy, when it participates).
func partitionedFactory(partitions ...[]Tuple) (ChildPlanFactory, *[]*sliceChildPlan) {
	var calls int64
	var made []*sliceChildPlan
	factory := func() (ChildPlan, error) {
		idx := int(atomic.AddInt64(&calls, 1)) - 1
		var p *sliceChildPlan
		if idx < len(partitions) {
			p = &sliceChildPlan{tuples: partitions[idx]}
		} else {
			p = &sliceChildPlan{}
		}
		made = append(made, p)
		return p, nil
	}
	return factory, &made
}

// cyclicPartitionedFactory is like partitionedFactory but reusable across
// one rescan: it repeats its pattern every len(partitions)+1 calls. The
// first scan makes exactly that many factory calls (one per worker, then
// one for the leader's local copy in normal mode); the scan after a rescan
// makes only len(partitions) calls, since the leader's copy is rescanned
// rather than rebuilt, and so again starts at the first partition.
func cyclicPartitionedFactory(partitions ...[]Tuple) ChildPlanFactory {
	period := int64(len(partitions) + 1)
	var calls int64
	return func() (ChildPlan, error) {
		idx := int(atomic.AddInt64(&calls, 1)-1) % int(period)
		if idx < len(partitions) {
			return &sliceChildPlan{tuples: partitions[idx]}, nil
		}
		return &sliceChildPlan{}, nil
	}
}

// failThenSucceedFactory fails the first failCount calls (simulating worker
// launch failure) and returns a fresh sliceChildPlan over tuples thereafter.
func failThenSucceedFactory(failCount int, tuples []Tuple) (ChildPlanFactory, *int32) {
	var calls int32
	factory := func() (ChildPlan, error) {
		n := atomic.AddInt32(&calls, 1)
		if int(n) <= failCount {
			return nil, errors.New("worker launch failed")
		}
		return &sliceChildPlan{tuples: tuples}, nil
	}
	return factory, &calls
}

func drainAll(t *testing.T, ctx context.Context, g *GatherCore) []Tuple {
	t.Helper()
	var out []Tuple
	for {
		tuple, ok, err := g.Next(ctx)
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, tuple)
	}
}

func asStrings(tuples []Tuple) []string {
	out := make([]string, len(tuples))
	for i, t := range tuples {
		out[i] = t.(string)
	}
	sort.Strings(out)
	return out
}

func TestGatherCore_LeaderOnlyWhenNoWorkersLaunch(t *testing.T) {
	factory, _ := failThenSucceedFactory(2, []Tuple{"a", "b", "c"})
	g, err := NewGatherCore(factory, 2)
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	got := drainAll(t, context.Background(), g)
	assert.Equal(t, []string{"a", "b", "c"}, asStrings(got))
}

func TestGatherCore_TwoWorkersProduceExactMultiset(t *testing.T) {
	factory, _ := partitionedFactory([]Tuple{"x1", "x2"}, []Tuple{"y1", "y2"})
	g, err := NewGatherCore(factory, 2)
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := drainAll(t, ctx, g)
	assert.Equal(t, []string{"x1", "x2", "y1", "y2"}, asStrings(got))
}

func TestGatherCore_TerminalAbsorption(t *testing.T) {
	factory, _ := failThenSucceedFactory(1, []Tuple{"only"})
	g, err := NewGatherCore(factory, 1)
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx := context.Background()
	_, ok, err := g.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = g.Next(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	for i := 0; i < 3; i++ {
		_, ok, err = g.Next(ctx)
		require.NoError(t, err)
		assert.False(t, ok, "Next must keep returning empty after end-of-stream until Rescan")
	}
}

func TestGatherCore_SingleCopyExclusivityWhenWorkerLaunches(t *testing.T) {
	factory, made := partitionedFactory([]Tuple{"p", "q"})
	g, err := NewGatherCore(factory, 1, WithSingleCopy(true))
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got := drainAll(t, ctx, g)
	assert.Equal(t, []string{"p", "q"}, asStrings(got))
	assert.Len(t, *made, 1, "local plan must never be constructed when the single worker launched")
}

func TestGatherCore_SingleCopyFallbackWhenLaunchFails(t *testing.T) {
	factory, calls := failThenSucceedFactory(1, []Tuple{"p", "q"})
	g, err := NewGatherCore(factory, 1, WithSingleCopy(true))
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	got := drainAll(t, context.Background(), g)
	assert.Equal(t, []string{"p", "q"}, asStrings(got))
	assert.EqualValues(t, 2, atomic.LoadInt32(calls), "exactly one failed worker attempt plus one local plan")
}

func TestGatherCore_RescanIdempotence(t *testing.T) {
	factory := cyclicPartitionedFactory([]Tuple{"x1", "x2"}, []Tuple{"y1", "y2"})
	g, err := NewGatherCore(factory, 2)
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first := drainAll(t, ctx, g)
	require.NoError(t, g.Rescan(ctx))
	second := drainAll(t, ctx, g)

	assert.Equal(t, []string{"x1", "x2", "y1", "y2"}, asStrings(first))
	assert.Equal(t, []string{"x1", "x2", "y1", "y2"}, asStrings(second))
}

func TestGatherCore_FinishEarlyTerminatesTheScan(t *testing.T) {
	factory, _ := partitionedFactory([]Tuple{"a", "b", "c", "d", "e"})
	g, err := NewGatherCore(factory, 1)
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Pull one tuple so the harness actually exists before asking it to
	// stop early.
	_, ok, err := g.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, g.FinishEarly(ctx))

	_, ok, err = g.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "scan must be terminal once FinishEarly returns")
}

func TestGatherCore_ParallelSendReturnsEmptyImmediately(t *testing.T) {
	factory, _ := partitionedFactory([]Tuple{"a", "b"})
	g, err := NewGatherCore(factory, 1, WithParallelSend(true))
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tuple, ok, err := g.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, tuple)
}

func TestGatherCore_StatisticsTracksTupleCount(t *testing.T) {
	factory, _ := partitionedFactory([]Tuple{"a", "b", "c"})
	g, err := NewGatherCore(factory, 1, WithStatistics(true))
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	drainAll(t, ctx, g)

	stats := g.Stats()
	assert.EqualValues(t, 3, stats.TupleCount)
}

func TestGatherCore_ProjectionAppliedToEveryTuple(t *testing.T) {
	factory, _ := partitionedFactory([]Tuple{"a", "b"})
	shout := ProjectionFunc(func(t Tuple) (Tuple, error) {
		return t.(string) + "!", nil
	})
	g, err := NewGatherCore(factory, 1, WithProjection(shout))
	require.NoError(t, err)
	defer g.Shutdown(context.Background())

	got := drainAll(t, context.Background(), g)
	assert.Equal(t, []string{"a!", "b!"}, asStrings(got))
}

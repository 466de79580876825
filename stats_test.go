package gather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGatherStatsCollector_EmptySnapshot(t *testing.T) {
	c := newGatherStatsCollector()
	snap := c.snapshot()
	assert.Zero(t, snap.TupleCount)
	assert.Zero(t, snap.TotalReadLatency)
	assert.Zero(t, snap.MeanReadLatency)
}

func TestGatherStatsCollector_TracksCountAndTotals(t *testing.T) {
	c := newGatherStatsCollector()
	c.record(10 * time.Millisecond)
	c.record(20 * time.Millisecond)
	c.record(30 * time.Millisecond)

	snap := c.snapshot()
	assert.EqualValues(t, 3, snap.TupleCount)
	assert.Equal(t, 60*time.Millisecond, snap.TotalReadLatency)
	assert.Equal(t, 20*time.Millisecond, snap.MeanReadLatency)
}

func TestGatherStatsCollector_P99WithinObservedRange(t *testing.T) {
	c := newGatherStatsCollector()
	for i := 1; i <= 200; i++ {
		c.record(time.Duration(i) * time.Millisecond)
	}

	snap := c.snapshot()
	assert.GreaterOrEqual(t, snap.P99ReadLatency, time.Duration(0))
	assert.LessOrEqual(t, snap.P99ReadLatency, 200*time.Millisecond)
}

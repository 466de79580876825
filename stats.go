package gather

import (
	"sync"
	"time"
)

// GatherStats is a point-in-time snapshot of a scan's tuple throughput and
// read-latency distribution, populated only when WithStatistics(true) is
// set.
type GatherStats struct {
	TupleCount       int64
	TotalReadLatency time.Duration
	MeanReadLatency  time.Duration
	P99ReadLatency   time.Duration
}

// gatherStatsCollector accumulates read-latency observations using a
// streaming P² estimator rather than retaining every sample, the same
// tradeoff the teacher makes for per-task latency percentiles.
type gatherStatsCollector struct {
	mu  sync.Mutex
	lat *readLatencyQuantile
}

// newGatherStatsCollector creates a collector tracking the p99.
func newGatherStatsCollector() *gatherStatsCollector {
	return &gatherStatsCollector{
		lat: newReadLatencyQuantile(),
	}
}

// record adds one tuple's read latency to the running statistics.
func (c *gatherStatsCollector) record(latency time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lat.Update(float64(latency))
}

// snapshot returns the current GatherStats.
func (c *gatherStatsCollector) snapshot() GatherStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := int64(c.lat.Count())
	total := time.Duration(c.lat.Sum())
	var mean time.Duration
	if count > 0 {
		mean = time.Duration(c.lat.Mean())
	}
	return GatherStats{
		TupleCount:       count,
		TotalReadLatency: total,
		MeanReadLatency:  mean,
		P99ReadLatency:   time.Duration(c.lat.P99()),
	}
}

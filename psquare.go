package gather

// readLatencyQuantile tracks the p99 of per-tuple read latency using the P²
// streaming algorithm (Jain and Chlamtac, 1985), which updates and queries
// in O(1) without retaining a single observation. Gather only ever needs one
// quantile, so unlike a general-purpose multi-percentile tracker this type
// hardcodes p99 and folds the running sum/count/mean bookkeeping in alongside
// the five P² markers, rather than layering a separate collection type over
// a slice of single-quantile estimators.
//
// Not safe for concurrent use; gatherStatsCollector serializes access.
type readLatencyQuantile struct {
	// q holds the five marker heights: observed min, ~p99/2, p99, ~(1+p99)/2,
	// observed max.
	q [5]float64
	// n holds the five markers' actual (integer) positions.
	n [5]int
	// np holds the five markers' ideal (fractional) positions.
	np [5]float64
	// dn holds the per-observation increment to each marker's ideal position.
	dn [5]float64

	count int
	sum   float64
	// seedBuf buffers the first five observations, sorted in place, to prime
	// the markers before the P² recurrence can run.
	seedBuf [5]float64
}

// p99Target is the only quantile Gather reports.
const p99Target = 0.99

// newReadLatencyQuantile constructs an estimator for the p99 read latency.
func newReadLatencyQuantile() *readLatencyQuantile {
	return &readLatencyQuantile{
		dn: [5]float64{0, p99Target / 2, p99Target, (1 + p99Target) / 2, 1},
	}
}

// Update folds one latency observation (in nanoseconds) into the estimator.
func (e *readLatencyQuantile) Update(nanos float64) {
	e.count++
	e.sum += nanos

	if e.count <= 5 {
		e.seedBuf[e.count-1] = nanos
		if e.count == 5 {
			e.seed()
		}
		return
	}

	var k int
	switch {
	case nanos < e.q[0]:
		e.q[0] = nanos
		k = 0
	case nanos >= e.q[4]:
		e.q[4] = nanos
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if e.q[k] <= nanos && nanos < e.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		e.n[i]++
	}
	for i := 0; i < 5; i++ {
		e.np[i] += e.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := e.np[i] - float64(e.n[i])
		if (d >= 1 && e.n[i+1]-e.n[i] > 1) || (d <= -1 && e.n[i-1]-e.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}
			adjusted := e.parabolic(i, sign)
			if e.q[i-1] < adjusted && adjusted < e.q[i+1] {
				e.q[i] = adjusted
			} else {
				e.q[i] = e.linear(i, sign)
			}
			e.n[i] += sign
		}
	}
}

// seed sorts the first five observations and uses them as the initial
// marker heights and positions.
func (e *readLatencyQuantile) seed() {
	for i := 1; i < 5; i++ {
		key := e.seedBuf[i]
		j := i - 1
		for j >= 0 && e.seedBuf[j] > key {
			e.seedBuf[j+1] = e.seedBuf[j]
			j--
		}
		e.seedBuf[j+1] = key
	}
	for i := 0; i < 5; i++ {
		e.q[i] = e.seedBuf[i]
		e.n[i] = i
	}
	e.np = [5]float64{0, 2 * p99Target, 4 * p99Target, 2 + 2*p99Target, 4}
}

// parabolic computes the P² parabolic marker adjustment.
func (e *readLatencyQuantile) parabolic(i, d int) float64 {
	df := float64(d)
	ni, niPrev, niNext := float64(e.n[i]), float64(e.n[i-1]), float64(e.n[i+1])
	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (e.q[i+1] - e.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (e.q[i] - e.q[i-1]) / (ni - niPrev)
	return e.q[i] + term1*(term2+term3)
}

// linear computes the P² linear marker adjustment, used when the parabolic
// estimate would violate marker ordering.
func (e *readLatencyQuantile) linear(i, d int) float64 {
	if d == 1 {
		return e.q[i] + (e.q[i+1]-e.q[i])/float64(e.n[i+1]-e.n[i])
	}
	return e.q[i] - (e.q[i]-e.q[i-1])/float64(e.n[i]-e.n[i-1])
}

// P99 returns the current p99 estimate in nanoseconds.
func (e *readLatencyQuantile) P99() float64 {
	if e.count == 0 {
		return 0
	}
	if e.count < 5 {
		sorted := append([]float64(nil), e.seedBuf[:e.count]...)
		for i := 1; i < len(sorted); i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		idx := int(float64(e.count-1) * p99Target)
		if idx >= e.count {
			idx = e.count - 1
		}
		return sorted[idx]
	}
	return e.q[2]
}

// Count returns the number of observations folded in so far.
func (e *readLatencyQuantile) Count() int {
	return e.count
}

// Sum returns the running total of every observation, in nanoseconds.
func (e *readLatencyQuantile) Sum() float64 {
	return e.sum
}

// Mean returns the arithmetic mean of every observation, in nanoseconds.
func (e *readLatencyQuantile) Mean() float64 {
	if e.count == 0 {
		return 0
	}
	return e.sum / float64(e.count)
}

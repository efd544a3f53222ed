package frameScheduler

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks runtime statistics for a Scheduler. All metrics are
// optional, low-overhead, and thread-safe; attach via WithMetrics.
//
// Example:
//
//	s, _ := New(WithMetrics(true))
//	go s.Run(ctx)
//	stats := s.Metrics()
//	fmt.Printf("FPS: %.2f, P99 task latency: %v\n", stats.FrameRate.FPS(), stats.Latency.P99)
type Metrics struct {
	Latency   LatencyMetrics
	StackDepth StackDepthMetrics
	FrameRate *FrameRateCounter
}

// NewMetrics constructs a Metrics with a default 10s/100ms frame-rate
// window.
func NewMetrics() *Metrics {
	return &Metrics{
		FrameRate: NewFrameRateCounter(10*time.Second, 100*time.Millisecond),
	}
}

// RecordTaskLatency records a single task's execution latency and bumps
// the frame-rate counter, exactly the way the worker loop calls it after
// every task execution (spec.md §4.6).
func (m *Metrics) RecordTaskLatency(d time.Duration) {
	m.Latency.Record(d)
	m.FrameRate.Increment()
}

// LatencyMetrics tracks task-execution latency distribution with
// percentiles, using the P-Square algorithm (psquare.go) for O(1)
// streaming percentile estimation.
type LatencyMetrics struct {
	psquare *pSquareMultiQuantile

	mu sync.RWMutex

	sampleIdx   int
	sampleCount int
	samples     [sampleSize]time.Duration

	P50 time.Duration
	P90 time.Duration
	P95 time.Duration
	P99 time.Duration
	Max time.Duration

	Mean time.Duration
	Sum  time.Duration
}

// sampleSize is the maximum number of latency samples retained in the
// exact-percentile fallback buffer.
const sampleSize = 1000

// Record records a latency sample, updating the P-Square estimator in
// O(1) and the rolling exact-sample buffer used for small sample counts.
func (l *LatencyMetrics) Record(duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.psquare == nil {
		l.psquare = newPSquareMultiQuantile(0.50, 0.90, 0.95, 0.99)
	}
	l.psquare.Update(float64(duration))

	if l.sampleCount >= sampleSize {
		old := l.samples[l.sampleIdx]
		l.Sum -= old
	}

	l.samples[l.sampleIdx] = duration
	l.Sum += duration
	l.sampleIdx++
	if l.sampleIdx >= sampleSize {
		l.sampleIdx = 0
	}
	if l.sampleCount < sampleSize {
		l.sampleCount++
	}
}

// Sample computes percentiles from collected samples, returning the
// sample count used. Below 5 samples it falls back to exact sorting.
func (l *LatencyMetrics) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.sampleCount
	if count == 0 {
		return 0
	}

	if count < 5 || l.psquare == nil {
		sorted := make([]time.Duration, count)
		copy(sorted, l.samples[:count])
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		l.P50 = sorted[percentileIndex(count, 50)]
		l.P90 = sorted[percentileIndex(count, 90)]
		l.P95 = sorted[percentileIndex(count, 95)]
		l.P99 = sorted[percentileIndex(count, 99)]
		l.Max = sorted[count-1]
		l.Mean = l.Sum / time.Duration(count)
		return count
	}

	l.P50 = time.Duration(l.psquare.Quantile(0))
	l.P90 = time.Duration(l.psquare.Quantile(1))
	l.P95 = time.Duration(l.psquare.Quantile(2))
	l.P99 = time.Duration(l.psquare.Quantile(3))
	l.Max = time.Duration(l.psquare.Max())
	l.Mean = l.Sum / time.Duration(count)
	return count
}

func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}

// StackDepthMetrics tracks per-stack task-count depth (spec.md §3 task
// stack size), one current/max/EMA triple per stack, in place of the
// teacher's three named queue depths.
type StackDepthMetrics struct {
	mu sync.RWMutex

	current [NumStacks]int
	max     [NumStacks]int
	avg     [NumStacks]float64
	seeded  [NumStacks]bool
}

// Update records a newly observed depth for the given stack, updating
// its running maximum and an alpha=0.1 exponential moving average.
func (q *StackDepthMetrics) Update(stack int, depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.current[stack] = depth
	if depth > q.max[stack] {
		q.max[stack] = depth
	}
	if !q.seeded[stack] {
		q.avg[stack] = float64(depth)
		q.seeded[stack] = true
	} else {
		q.avg[stack] = 0.9*q.avg[stack] + 0.1*float64(depth)
	}
}

// Snapshot returns the current/max/avg depth for the given stack.
func (q *StackDepthMetrics) Snapshot(stack int) (current, max int, avg float64) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.current[stack], q.max[stack], q.avg[stack]
}

// FrameRateCounter tracks task-execution throughput with a rolling
// window, the frame-based analogue of the teacher's transactions-per-
// second counter (spec.md §2 "total_executed").
//
// Configuration trade-offs: larger windows give a smoother rate at the
// cost of slower change detection; smaller buckets give finer precision
// at the cost of more bookkeeping per Increment.
type FrameRateCounter struct {
	lastRotation atomic.Value // time.Time
	buckets      []int64
	bucketSize   time.Duration
	windowSize   time.Duration
	mu           sync.Mutex
}

// NewFrameRateCounter creates a counter with the given rolling window
// and bucket granularity. Both must be positive, and bucketSize must not
// exceed windowSize.
func NewFrameRateCounter(windowSize, bucketSize time.Duration) *FrameRateCounter {
	if windowSize <= 0 {
		panic("frameScheduler: windowSize must be positive")
	}
	if bucketSize <= 0 {
		panic("frameScheduler: bucketSize must be positive")
	}
	if bucketSize > windowSize {
		panic("frameScheduler: bucketSize cannot exceed windowSize")
	}

	bucketCount := int(windowSize / bucketSize)
	c := &FrameRateCounter{
		buckets:    make([]int64, bucketCount),
		bucketSize: bucketSize,
		windowSize: windowSize,
	}
	c.lastRotation.Store(time.Now())
	return c
}

// Increment records one task execution.
func (c *FrameRateCounter) Increment() {
	c.rotate()
	c.mu.Lock()
	c.buckets[len(c.buckets)-1]++
	c.mu.Unlock()
}

func (c *FrameRateCounter) rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	lastRotation := c.lastRotation.Load().(time.Time)
	elapsed := now.Sub(lastRotation)

	bucketsToAdvanceInt64 := int64(elapsed) / int64(c.bucketSize)
	if bucketsToAdvanceInt64 < 0 {
		bucketsToAdvanceInt64 = int64(len(c.buckets))
	} else if bucketsToAdvanceInt64 > int64(len(c.buckets)) {
		bucketsToAdvanceInt64 = int64(len(c.buckets))
	}
	bucketsToAdvance := int(bucketsToAdvanceInt64)

	if bucketsToAdvance >= len(c.buckets) {
		for i := range c.buckets {
			c.buckets[i] = 0
		}
		c.lastRotation.Store(now)
		return
	}
	if bucketsToAdvance <= 0 {
		return
	}

	copy(c.buckets, c.buckets[bucketsToAdvance:])
	for i := len(c.buckets) - bucketsToAdvance; i < len(c.buckets); i++ {
		c.buckets[i] = 0
	}
	c.lastRotation.Store(lastRotation.Add(time.Duration(bucketsToAdvance) * c.bucketSize))
}

// FPS returns the current execution rate (frames, i.e. task executions,
// per second).
func (c *FrameRateCounter) FPS() float64 {
	c.rotate()

	c.mu.Lock()
	defer c.mu.Unlock()

	var sum int64
	for _, count := range c.buckets {
		sum += count
	}
	if sum == 0 {
		return 0
	}

	monitoredDuration := float64(len(c.buckets)) * c.bucketSize.Seconds()
	return float64(sum) / monitoredDuration
}

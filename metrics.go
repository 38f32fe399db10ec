// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks runtime statistics for a MainLoop, enabled via WithMetrics.
//
// Thread Safety: All Metrics methods are safe to call from any goroutine.
//
// Example:
//
//	loop, _ := mainloop.New(platform, mainloop.WithMetrics(true))
//	_ = loop.Run(ctx)
//	m := loop.Metrics()
//	m.Latency.Sample()
//	fmt.Printf("P99: %v, normal jobs: %+v\n",
//		m.Latency.P99, m.Jobs(mainloop.PriorityNormal))
type Metrics struct {
	// Latency is the distribution of job execution times.
	Latency LatencyMetrics

	// Queue is the pending job count, sampled at the start of each Drain.
	Queue QueueMetrics

	jobs [numPriorities]jobCounters
}

// JobCounts is a snapshot of the per-priority job counters.
type JobCounts struct {
	// Executed is the number of jobs run, including failed jobs.
	Executed uint64
	// Failed is the number of jobs that returned an error or panicked.
	Failed uint64
	// Preempted is the number of times a job was taken but not run, due to
	// pending native messages.
	Preempted uint64
	// Discarded is the number of preempted jobs dropped by PreemptDiscard.
	Discarded uint64
}

type jobCounters struct {
	executed  atomic.Uint64
	failed    atomic.Uint64
	preempted atomic.Uint64
	discarded atomic.Uint64
}

// Jobs returns the counters for the given priority.
func (m *Metrics) Jobs(priority Priority) (c JobCounts) {
	if !priority.Valid() {
		return
	}
	v := &m.jobs[priority]
	c.Executed = v.executed.Load()
	c.Failed = v.failed.Load()
	c.Preempted = v.preempted.Load()
	c.Discarded = v.discarded.Load()
	return
}

// Total returns the sum of the counters across all priorities.
func (m *Metrics) Total() (c JobCounts) {
	for p := PriorityIdle; p <= PrioritySend; p++ {
		v := m.Jobs(p)
		c.Executed += v.Executed
		c.Failed += v.Failed
		c.Preempted += v.Preempted
		c.Discarded += v.Discarded
	}
	return
}

func (m *Metrics) recordExecuted(priority Priority, d time.Duration, failed bool) {
	m.jobs[priority].executed.Add(1)
	if failed {
		m.jobs[priority].failed.Add(1)
	}
	m.Latency.Record(d)
}

func (m *Metrics) recordPreempted(priority Priority, discarded bool) {
	m.jobs[priority].preempted.Add(1)
	if discarded {
		m.jobs[priority].discarded.Add(1)
	}
}

// LatencyMetrics tracks latency distribution with percentiles.
type LatencyMetrics struct {
	sampleIdx   int
	sampleCount int
	samples     [sampleSize]time.Duration

	// Computed percentiles (cached after Sample() call)
	P50 time.Duration
	P90 time.Duration
	P99 time.Duration
	Max time.Duration

	Mean time.Duration
	Sum  time.Duration
	mu   sync.RWMutex
}

// sampleSize is the maximum number of latency samples to retain.
const sampleSize = 1000

// Record records a latency sample.
func (l *LatencyMetrics) Record(duration time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// if the buffer is full, subtract the sample being replaced
	if l.sampleCount >= sampleSize {
		l.Sum -= l.samples[l.sampleIdx]
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

// Sample computes percentiles from the retained samples, updating the
// exported fields. Returns the number of samples used.
func (l *LatencyMetrics) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := l.sampleCount
	if count == 0 {
		return 0
	}

	sorted := slices.Clone(l.samples[:count])
	slices.Sort(sorted)

	l.P50 = sorted[percentileIndex(count, 50)]
	l.P90 = sorted[percentileIndex(count, 90)]
	l.P99 = sorted[percentileIndex(count, 99)]
	l.Max = sorted[count-1]
	l.Mean = l.Sum / time.Duration(count)

	return count
}

// percentileIndex computes the index for a given percentile (0-100).
func percentileIndex(n, p int) int {
	index := (p * n) / 100
	if index >= n {
		return n - 1
	}
	return index
}

// QueueMetrics tracks queue depth statistics.
type QueueMetrics struct {
	mu sync.RWMutex

	Current int
	Max     int
	// Avg is an exponential moving average (alpha=0.1), initialized to the
	// first observed value.
	Avg float64

	emaInitialized bool
}

// Update records an observed queue depth.
func (q *QueueMetrics) Update(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.Current = depth
	if depth > q.Max {
		q.Max = depth
	}
	if !q.emaInitialized {
		q.Avg = float64(depth)
		q.emaInitialized = true
	} else {
		q.Avg = 0.9*q.Avg + 0.1*float64(depth)
	}
}

// Snapshot returns the current, max, and average depths.
func (q *QueueMetrics) Snapshot() (current, maxDepth int, avg float64) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.Current, q.Max, q.Avg
}

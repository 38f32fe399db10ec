// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
)

// chunkSize is the number of jobs per node in a jobList.
const chunkSize = 64

// jobQueue is the priority queue shared between producers and the loop.
//
// Jobs are held in one FIFO list per Priority, and are always taken from the
// highest non-empty tier. Within a tier, jobs are taken in the order they
// were added, except that a requeued job is taken before all others.
//
// All methods are safe for concurrent use. The lock is held only for the
// duration of each method, never while a job runs.
type jobQueue struct {
	mu     sync.Mutex
	tiers  [numPriorities]jobList
	length int
}

// add appends j to the back of its tier.
func (q *jobQueue) add(j *job) {
	q.mu.Lock()
	q.tiers[j.priority].pushBack(j)
	q.length++
	q.mu.Unlock()
}

// requeue pushes j to the front of its tier, such that it is the next job
// taken from that tier.
func (q *jobQueue) requeue(j *job) {
	q.mu.Lock()
	q.tiers[j.priority].pushFront(j)
	q.length++
	q.mu.Unlock()
}

// takeHighest removes and returns the oldest job of the highest priority,
// or false if the queue is empty.
func (q *jobQueue) takeHighest() (*job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.length == 0 {
		return nil, false
	}
	for i := len(q.tiers) - 1; i >= 0; i-- {
		if j, ok := q.tiers[i].popFront(); ok {
			q.length--
			return j, true
		}
	}
	return nil, false
}

// count returns the number of pending jobs. The value is advisory, and may
// be stale as soon as it is returned.
func (q *jobQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.length
}

// jobList is a chunked linked-list deque of jobs.
//
// Thread Safety: This struct is NOT thread-safe.
// The caller must provide external synchronization (jobQueue.mu).
//
// Valid jobs in each chunk occupy [readPos, pos).
type jobList struct {
	head   *chunk
	tail   *chunk
	length int
}

// chunkPool recycles exhausted chunks.
var chunkPool = sync.Pool{
	New: func() any {
		return &chunk{}
	},
}

// chunk is a fixed-size node in a jobList.
type chunk struct {
	jobs    [chunkSize]*job
	next    *chunk
	readPos int // first unread slot
	pos     int // first unused slot
}

func newChunk() *chunk {
	c := chunkPool.Get().(*chunk)
	c.pos = 0
	c.readPos = 0
	c.next = nil
	return c
}

// returnChunk returns an exhausted chunk to the pool, clearing any slots
// that may still reference jobs.
func returnChunk(c *chunk) {
	for i := range c.jobs {
		c.jobs[i] = nil
	}
	c.pos = 0
	c.readPos = 0
	c.next = nil
	chunkPool.Put(c)
}

func (l *jobList) pushBack(j *job) {
	if l.tail == nil {
		l.tail = newChunk()
		l.head = l.tail
	}

	if l.tail.pos == len(l.tail.jobs) {
		newTail := newChunk()
		l.tail.next = newTail
		l.tail = newTail
	}

	l.tail.jobs[l.tail.pos] = j
	l.tail.pos++
	l.length++
}

func (l *jobList) pushFront(j *job) {
	switch {
	case l.head == nil:
		l.pushBack(j)
		return

	case l.head.readPos == l.head.pos:
		// empty chunk (only possible for the sole chunk), reuse from the end
		l.head.readPos = len(l.head.jobs)
		l.head.pos = len(l.head.jobs)

	case l.head.readPos == 0:
		// no room before the head, prepend a chunk, filled from the end
		newHead := newChunk()
		newHead.readPos = len(newHead.jobs)
		newHead.pos = len(newHead.jobs)
		newHead.next = l.head
		l.head = newHead
	}

	l.head.readPos--
	l.head.jobs[l.head.readPos] = j
	l.length++
}

func (l *jobList) popFront() (*job, bool) {
	if l.length == 0 {
		return nil, false
	}

	j := l.head.jobs[l.head.readPos]
	l.head.jobs[l.head.readPos] = nil
	l.head.readPos++
	l.length--

	if l.head.readPos >= l.head.pos {
		if l.head == l.tail {
			// reset cursors for reuse
			l.head.pos = 0
			l.head.readPos = 0
		} else {
			oldHead := l.head
			l.head = l.head.next
			returnChunk(oldHead)
		}
	}

	return j, true
}

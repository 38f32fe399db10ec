// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
	"testing"
)

func testJob(priority Priority) *job {
	return newJob(nil, priority, false)
}

func TestJobList_fifo(t *testing.T) {
	for _, n := range []int{1, chunkSize - 1, chunkSize, chunkSize + 1, chunkSize*3 + 7} {
		var l jobList
		jobs := make([]*job, n)
		for i := range jobs {
			jobs[i] = testJob(PriorityNormal)
			l.pushBack(jobs[i])
		}
		if l.length != n {
			t.Fatalf("n=%d: length = %d", n, l.length)
		}
		for i := range jobs {
			j, ok := l.popFront()
			if !ok || j != jobs[i] {
				t.Fatalf("n=%d: unexpected job at %d", n, i)
			}
		}
		if _, ok := l.popFront(); ok {
			t.Fatalf("n=%d: expected empty", n)
		}
		if l.head != l.tail || l.head.pos != 0 || l.head.readPos != 0 {
			t.Fatalf("n=%d: expected a single reset chunk", n)
		}
	}
}

func TestJobList_pushFront(t *testing.T) {
	var l jobList

	// empty list
	a := testJob(PriorityNormal)
	l.pushFront(a)

	// empty sole chunk, after being drained
	if j, ok := l.popFront(); !ok || j != a {
		t.Fatal("expected a")
	}
	l.pushFront(a)

	// room before the head
	b := testJob(PriorityNormal)
	l.pushFront(b)

	// no room before the head
	for i := 0; i < chunkSize; i++ {
		l.pushBack(testJob(PriorityNormal))
	}
	var front []*job
	for i := 0; i < chunkSize+3; i++ {
		j := testJob(PriorityNormal)
		front = append([]*job{j}, front...)
		l.pushFront(j)
	}

	want := append(front, b, a)
	if l.length != len(want)+chunkSize {
		t.Fatalf("length = %d", l.length)
	}
	for i, w := range want {
		j, ok := l.popFront()
		if !ok || j != w {
			t.Fatalf("unexpected job at %d", i)
		}
	}
	for i := 0; i < chunkSize; i++ {
		if _, ok := l.popFront(); !ok {
			t.Fatalf("expected job at %d", i)
		}
	}
	if _, ok := l.popFront(); ok {
		t.Fatal("expected empty")
	}
}

func TestJobList_interleaved(t *testing.T) {
	var (
		l    jobList
		want []*job
	)
	for i := 0; i < 1000; i++ {
		j := testJob(PriorityNormal)
		switch i % 5 {
		case 0, 1, 2:
			l.pushBack(j)
			want = append(want, j)
		case 3:
			l.pushFront(j)
			want = append([]*job{j}, want...)
		case 4:
			got, ok := l.popFront()
			if !ok || got != want[0] {
				t.Fatalf("unexpected job at %d", i)
			}
			want = want[1:]
		}
	}
	for i, w := range want {
		j, ok := l.popFront()
		if !ok || j != w {
			t.Fatalf("unexpected job at %d", i)
		}
	}
}

func TestJobQueue_takeHighest(t *testing.T) {
	var q jobQueue
	if _, ok := q.takeHighest(); ok {
		t.Fatal("expected empty")
	}

	low1 := testJob(PriorityIdle)
	low2 := testJob(PriorityIdle)
	high := testJob(PrioritySend)
	mid := testJob(PriorityNormal)
	q.add(low1)
	q.add(low2)
	q.add(high)
	q.add(mid)
	if q.count() != 4 {
		t.Fatalf("count = %d", q.count())
	}

	for i, want := range []*job{high, mid, low1} {
		if j, ok := q.takeHighest(); !ok || j != want {
			t.Fatalf("unexpected job at %d", i)
		}
	}

	q.requeue(low1)
	if j, _ := q.takeHighest(); j != low1 {
		t.Fatal("expected requeued job first")
	}
	if j, _ := q.takeHighest(); j != low2 {
		t.Fatal("expected low2")
	}
	if q.count() != 0 {
		t.Fatalf("count = %d", q.count())
	}
}

func TestJobQueue_concurrent(t *testing.T) {
	const (
		producers = 8
		perWorker = 1000
	)

	var (
		q  jobQueue
		wg sync.WaitGroup
	)
	seen := make(map[*job]struct{}, producers*perWorker)
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(p Priority) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				q.add(testJob(p))
			}
		}(Priority(i % numPriorities))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	taken := 0
	for taken < producers*perWorker {
		j, ok := q.takeHighest()
		if !ok {
			select {
			case <-done:
				if q.count() == 0 {
					t.Fatalf("lost jobs: taken %d", taken)
				}
			default:
			}
			continue
		}
		if _, dup := seen[j]; dup {
			t.Fatal("duplicate job")
		}
		seen[j] = struct{}{}
		taken++
	}
	if q.count() != 0 {
		t.Fatalf("count = %d", q.count())
	}
}

func TestReturnChunk_clears(t *testing.T) {
	c := newChunk()
	c.jobs[3] = testJob(PriorityNormal)
	c.pos = 4
	c.readPos = 2
	c.next = newChunk()
	returnChunk(c)
	if c.jobs[3] != nil || c.pos != 0 || c.readPos != 0 || c.next != nil {
		t.Fatal("expected cleared chunk")
	}
}

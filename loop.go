// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// MainLoop is a single-goroutine priority job dispatcher, interleaving jobs
// submitted from any goroutine with the native messages of a Platform.
//
// Jobs run synchronously on the goroutine calling Run (or Drain), highest
// priority first, and in submission order within a priority. Jobs below
// PriorityInput yield to pending native messages, see Drain.
//
// Instances must be initialized using the New factory.
type MainLoop struct { // betteralign:ignore
	// Prevent copying
	_ [0]func()

	platform       Platform
	logger         *logiface.Logger[logiface.Event]
	preemptLimiter *catrate.Limiter
	metrics        *Metrics

	queue jobQueue
	state loopState

	// Goroutine tracking, non-zero while Run is active
	loopGoroutineID atomic.Uint64

	id         uint64
	preemption PreemptionPolicy
}

var loopIDCounter atomic.Uint64

// New initializes a MainLoop, which will process the native messages of the
// given platform, between jobs.
func New(platform Platform, opts ...LoopOption) (*MainLoop, error) {
	if platform == nil {
		return nil, ErrNilPlatform
	}

	cfg, err := resolveLoopOptions(opts)
	if err != nil {
		return nil, err
	}

	l := &MainLoop{
		platform:       platform,
		logger:         cfg.logger,
		preemptLimiter: cfg.preemptLimiter,
		preemption:     cfg.preemption,
		id:             loopIDCounter.Add(1),
	}
	if cfg.metricsEnabled {
		l.metrics = &Metrics{}
	}

	return l, nil
}

// Run alternates between draining jobs and processing native messages,
// until ctx is canceled, a job submitted via Post fails, or the platform
// fails to process a message.
//
// Cancellation is checked between iterations: Run never interrupts a job,
// and relies on Platform.Wake to interrupt a blocked ProcessMessage (which
// it calls once ctx is done). On cancellation, ctx.Err() is returned.
//
// The calling goroutine is locked to its OS thread until Run returns.
// Run may be called again after it returns, but not concurrently.
func (l *MainLoop) Run(ctx context.Context) (err error) {
	if l.isLoopThread() {
		return ErrReentrantRun
	}

	if !l.state.TryTransition(StateIdle, StateRunning) {
		return ErrLoopAlreadyRunning
	}
	defer l.state.Store(StateIdle)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	l.loopGoroutineID.Store(getGoroutineID())
	defer l.loopGoroutineID.Store(0)

	// wake the loop on cancellation, so it doesn't wait for the next native
	// message
	if done := ctx.Done(); done != nil {
		ctxDone := make(chan struct{})
		defer close(ctxDone)
		go func() {
			select {
			case <-done:
				if err := l.platform.Wake(); err != nil {
					l.logWakeFailed(err)
				}
			case <-ctxDone:
			}
		}()
	}

	l.logRunStarted()
	defer func() { l.logRunStopped(err) }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := l.drain(); err != nil {
			return err
		}

		l.state.TryTransition(StateRunning, StateSleeping)
		err := l.platform.ProcessMessage()
		l.state.TryTransition(StateSleeping, StateRunning)
		if err != nil {
			return fmt.Errorf("mainloop: process message: %w", err)
		}
	}
}

// Drain synchronously runs pending jobs, highest priority first, until the
// queue is empty, or a job is preempted.
//
// Each job is taken from the queue, then, if its priority is below
// PriorityInput, and the platform has pending native messages, draining
// stops. The preempted job is then requeued (the default, see
// PreemptRequeue), or dropped (see PreemptDiscard).
//
// A job submitted via Post is called directly: if it returns an error,
// draining stops and a *JobError is returned, and a panic is not recovered.
// A job submitted via Invoke never causes Drain to fail, as its outcome is
// delivered to its Completion.
//
// Drain is called by Run, but may also be used by a host to flush the queue
// outside of Run. While Run is active, Drain may only be called from the loop
// goroutine (e.g. from within a job or native message handler), and will
// return ErrNotLoopThread otherwise. If the queue is empty, Drain returns
// without calling the platform.
func (l *MainLoop) Drain() error {
	if l.state.IsRunning() && !l.isLoopThread() {
		return ErrNotLoopThread
	}
	return l.drain()
}

func (l *MainLoop) drain() error {
	if l.metrics != nil {
		l.metrics.Queue.Update(l.queue.count())
	}

	for {
		j, ok := l.queue.takeHighest()
		if !ok {
			return nil
		}

		// note: the job has already been taken, and must be either requeued
		// or discarded, if preempted
		if j.priority.Preemptible() && l.platform.HasPendingMessages() {
			l.preempt(j)
			return nil
		}

		if err := l.execute(j); err != nil {
			return err
		}
	}
}

func (l *MainLoop) preempt(j *job) {
	discard := l.preemption == PreemptDiscard
	if discard {
		j.discard()
	} else {
		l.queue.requeue(j)
	}
	if l.metrics != nil {
		l.metrics.recordPreempted(j.priority, discard)
	}
	l.logPreempted(j, discard)
}

func (l *MainLoop) execute(j *job) error {
	var start time.Time
	if l.metrics != nil {
		start = time.Now()
	}

	err := j.run()

	var (
		duration time.Duration
		failed   bool
	)
	if l.metrics != nil {
		duration = time.Since(start)
	}

	if j.completion != nil {
		if cause := j.completion.Err(); cause != nil {
			failed = true
			var panicErr PanicError
			if errors.As(cause, &panicErr) {
				l.logJobPanicked(j, cause, duration)
			}
		}
	} else if err != nil {
		failed = true
		l.logJobFailed(j, err)
		err = &JobError{Err: err, Priority: j.priority}
	}

	if l.metrics != nil {
		l.metrics.recordExecuted(j.priority, duration, failed)
	}

	return err
}

// Post submits a fire-and-forget job, which will run on the loop goroutine.
// Any error returned by action (or panic) escapes Drain, and so Run, see
// Drain for details. A nil action is a no-op job.
//
// Post is safe to call from any goroutine. It panics if priority is not
// valid.
func (l *MainLoop) Post(action func() error, priority Priority) {
	l.submit(newJob(action, priority, false))
}

// Invoke submits a job, which will run on the loop goroutine, returning a
// Completion that resolves once the job has run. The Completion fails with
// the error returned by action, or a PanicError if it panics, or
// ErrJobDiscarded if it is dropped by PreemptDiscard. A nil action is a
// no-op job.
//
// Invoke is safe to call from any goroutine. It panics if priority is not
// valid.
func (l *MainLoop) Invoke(action func() error, priority Priority) *Completion {
	j := newJob(action, priority, true)
	l.submit(j)
	return j.completion
}

func (l *MainLoop) submit(j *job) {
	l.queue.add(j)
	// note: the job is already queued, and will be run when the loop next
	// wakes for any other reason
	if err := l.platform.Wake(); err != nil {
		l.logWakeFailed(err)
	}
}

// Pending returns the number of queued jobs. The value is advisory.
func (l *MainLoop) Pending() int {
	return l.queue.count()
}

// State returns the current loop state.
func (l *MainLoop) State() LoopState {
	return l.state.Load()
}

// Metrics returns the loop's metrics, or nil if not enabled, see
// WithMetrics.
func (l *MainLoop) Metrics() *Metrics {
	return l.metrics
}

// isLoopThread checks if we're on the goroutine running Run.
func (l *MainLoop) isLoopThread() bool {
	loopID := l.loopGoroutineID.Load()
	if loopID == 0 {
		return false
	}
	return getGoroutineID() == loopID
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}

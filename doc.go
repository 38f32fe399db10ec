// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package mainloop provides a single-goroutine priority job dispatcher, of the
// kind used to run a UI (main) thread, which interleaves jobs posted from any
// goroutine with the native messages of a platform event source.
//
// # Architecture
//
// A [MainLoop] owns a priority queue of jobs, and an injected [Platform]. The
// goroutine calling [MainLoop.Run] (locked to its OS thread) repeatedly
// drains the queue, then blocks in [Platform.ProcessMessage], until a native
// message arrives, or a producer calls [Platform.Wake], after submitting a
// job.
//
// Platforms provided by this package:
//   - [ChanPlatform]: portable, native messages are funcs sent over a channel
//   - FDPlatform (Linux): epoll readiness of registered file descriptors,
//     woken via an eventfd
//
// # Priorities and Preemption
//
// Jobs run highest [Priority] first, and in submission order (FIFO) within a
// priority. Jobs below [PriorityInput] yield to pending native messages: if
// one is taken while [Platform.HasPendingMessages] reports true, draining
// stops, and the job is returned to the front of its priority (see
// [PreemptRequeue]), or dropped (see [PreemptDiscard]).
//
// # Submission
//
//   - [MainLoop.Post]: fire-and-forget. A failing job escapes [MainLoop.Drain]
//     (and so [MainLoop.Run]) as a [*JobError], and panics are not recovered.
//   - [MainLoop.Invoke]: returns a [Completion], which resolves exactly once,
//     with nil, the job's error, or a [PanicError].
//
// There are no retries, timeouts, or cancellation of a running job.
//
// # Usage
//
//	platform := mainloop.NewChanPlatform(0)
//	loop, err := mainloop.New(platform)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	go func() {
//	    c := loop.Invoke(func() error {
//	        fmt.Println("running on the loop goroutine")
//	        return nil
//	    }, mainloop.PriorityNormal)
//	    _ = c.Wait(context.Background())
//	    cancel()
//	}()
//
//	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    log.Fatal(err)
//	}
package mainloop

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"sync"
)

// Completion is a one-shot result slot, resolved exactly once, with either
// success (a nil error) or failure (the cause). It may be observed from any
// goroutine.
//
// Instances are returned by [MainLoop.Invoke].
type Completion struct {
	// only done may be accessed until done is closed
	err  error
	done chan struct{}
	once sync.Once
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done returns a channel that is closed once the completion is resolved.
func (x *Completion) Done() <-chan struct{} {
	return x.done
}

// Err returns the failure cause, or nil if the completion succeeded, or has
// not yet been resolved. Use Done to distinguish the latter.
func (x *Completion) Err() error {
	select {
	case <-x.done:
		return x.err
	default:
		return nil
	}
}

// Wait blocks until the completion resolves, returning the job's failure
// cause, or ctx.Err() if ctx is done first.
//
// WARNING: Calling Wait (with a context that never expires) from within a job
// running on the same loop will deadlock, as the job being waited on cannot
// run until the caller returns.
func (x *Completion) Wait(ctx context.Context) error {
	select {
	case <-x.done:
		return x.err
	default:
	}
	select {
	case <-x.done:
		return x.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolve sets the result, returning false if it was already resolved.
func (x *Completion) resolve(err error) (ok bool) {
	x.once.Do(func() {
		x.err = err
		close(x.done)
		ok = true
	})
	return ok
}

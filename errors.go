// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
	"fmt"
)

// Standard errors.
var (
	// ErrNilPlatform is returned by New if no Platform is provided.
	ErrNilPlatform = errors.New("mainloop: nil platform")

	// ErrLoopAlreadyRunning is returned when Run is called while another Run
	// is active.
	ErrLoopAlreadyRunning = errors.New("mainloop: loop is already running")

	// ErrReentrantRun is returned when Run is called from within the loop
	// itself.
	ErrReentrantRun = errors.New("mainloop: cannot call Run from within the loop")

	// ErrNotLoopThread is returned by Drain when it is called from a goroutine
	// other than the one running the loop.
	ErrNotLoopThread = errors.New("mainloop: drain called off the loop goroutine")

	// ErrJobDiscarded is the failure a Completion resolves with, if its job
	// was dropped by PreemptDiscard.
	ErrJobDiscarded = errors.New("mainloop: job discarded due to pending native messages")

	// ErrPlatformClosed is returned by platform operations after Close.
	ErrPlatformClosed = errors.New("mainloop: platform closed")
)

// JobError is returned by Drain (and so Run) when a job submitted via Post
// fails. It wraps the error returned by the job's action.
type JobError struct {
	Err      error
	Priority Priority
}

// Error implements the error interface.
func (e *JobError) Error() string {
	return fmt.Sprintf("mainloop: %s job failed: %v", e.Priority, e.Err)
}

// Unwrap returns the underlying cause for use with [errors.Is] and [errors.As].
func (e *JobError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a panicking job submitted via
// Invoke.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("mainloop: job panicked: %v", e.Value)
}

// Unwrap returns the panic value, if it is an error, otherwise nil.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

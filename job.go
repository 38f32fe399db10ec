// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"fmt"
)

// job is a unit of deferred work. It is queued exactly once and executed at
// most once. Jobs created for Invoke carry a completion, which is always
// resolved once the job is executed (or discarded).
type job struct {
	action     func() error
	completion *Completion
	priority   Priority
}

func newJob(action func() error, priority Priority, capture bool) *job {
	if !priority.Valid() {
		panic(fmt.Sprintf(`mainloop: invalid priority: %d`, priority))
	}
	j := job{
		action:   action,
		priority: priority,
	}
	if capture {
		j.completion = newCompletion()
	}
	return &j
}

// run executes the action. A job without a completion returns any error
// from its action, and doesn't recover panics. A job with a completion
// captures both, into the completion, always returning nil.
func (j *job) run() (err error) {
	action := j.action
	j.action = nil // executed at most once

	if j.completion == nil {
		if action != nil {
			err = action()
		}
		return err
	}

	var completed bool
	defer func() {
		if !completed {
			// note: recover returns nil for runtime.Goexit, and also for
			// panic(nil) prior to Go 1.21
			j.completion.resolve(PanicError{Value: recover()})
		}
	}()

	if action != nil {
		err = action()
	}
	completed = true
	j.completion.resolve(err)

	return nil
}

// discard drops the job without running it.
func (j *job) discard() {
	j.action = nil
	if j.completion != nil {
		j.completion.resolve(ErrJobDiscarded)
	}
}

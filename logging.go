// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"time"
)

// Structured logging helpers. All of these are no-ops if no logger was
// configured, see WithLogger.

func (l *MainLoop) logRunStarted() {
	l.logger.Debug().
		Uint64(`loop_id`, l.id).
		Log(`mainloop: run started`)
}

func (l *MainLoop) logRunStopped(err error) {
	l.logger.Debug().
		Uint64(`loop_id`, l.id).
		Err(err).
		Log(`mainloop: run stopped`)
}

// logPreempted is rate limited per priority, as it may otherwise be logged
// on every iteration, while native messages are arriving.
func (l *MainLoop) logPreempted(j *job, discarded bool) {
	b := l.logger.Debug()
	if !b.Enabled() {
		return
	}
	if _, ok := l.preemptLimiter.Allow(j.priority); !ok {
		b.Release()
		return
	}
	b.Uint64(`loop_id`, l.id).
		Stringer(`priority`, j.priority).
		Bool(`discarded`, discarded).
		Int(`pending`, l.queue.count()).
		Log(`mainloop: job preempted by pending native messages`)
}

func (l *MainLoop) logWakeFailed(err error) {
	l.logger.Warning().
		Uint64(`loop_id`, l.id).
		Err(err).
		Log(`mainloop: platform wake failed`)
}

func (l *MainLoop) logJobPanicked(j *job, err error, d time.Duration) {
	l.logger.Err().
		Uint64(`loop_id`, l.id).
		Stringer(`priority`, j.priority).
		Dur(`duration`, d).
		Err(err).
		Log(`mainloop: invoked job panicked`)
}

func (l *MainLoop) logJobFailed(j *job, err error) {
	l.logger.Err().
		Uint64(`loop_id`, l.id).
		Stringer(`priority`, j.priority).
		Err(err).
		Log(`mainloop: posted job failed`)
}

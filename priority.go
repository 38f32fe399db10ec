// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"strconv"
)

// Priority orders jobs within a MainLoop. Higher values run first.
//
// PriorityInput is the preemption threshold: jobs strictly below it yield to
// pending native messages, see [MainLoop.Drain].
type Priority int8

const (
	// PriorityIdle is for work that should only run when nothing else is
	// pending.
	PriorityIdle Priority = iota
	// PriorityBackground is for deferrable housekeeping.
	PriorityBackground
	// PriorityNormal is the default priority for application work.
	PriorityNormal
	// PriorityInput is the lowest priority that will run even while native
	// messages are pending.
	PriorityInput
	// PriorityRender is for work that must complete before the next frame.
	PriorityRender
	// PrioritySend is the highest priority, for work that must run next.
	PrioritySend

	numPriorities = int(PrioritySend) + 1
)

// String implements fmt.Stringer.
func (x Priority) String() string {
	switch x {
	case PriorityIdle:
		return "idle"
	case PriorityBackground:
		return "background"
	case PriorityNormal:
		return "normal"
	case PriorityInput:
		return "input"
	case PriorityRender:
		return "render"
	case PrioritySend:
		return "send"
	default:
		return strconv.FormatInt(int64(x), 10)
	}
}

// Valid returns true if x is one of the defined priorities.
func (x Priority) Valid() bool {
	return x >= PriorityIdle && x <= PrioritySend
}

// Preemptible returns true if jobs of this priority yield to pending native
// messages.
func (x Priority) Preemptible() bool {
	return x < PriorityInput
}

// ParsePriority parses the value returned by [Priority.String].
func ParsePriority(s string) (Priority, bool) {
	for p := PriorityIdle; p <= PrioritySend; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

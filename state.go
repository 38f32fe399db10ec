// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync/atomic"
)

// LoopState represents the current state of a MainLoop.
//
// State Machine:
//
//	StateIdle → StateRunning         [Run()]
//	StateRunning → StateSleeping     [before Platform.ProcessMessage]
//	StateSleeping → StateRunning     [after Platform.ProcessMessage]
//	StateRunning → StateIdle         [Run() returns]
//	StateSleeping → StateIdle        [Run() returns, ProcessMessage failed]
//
// A MainLoop may be run again after Run returns.
type LoopState uint32

const (
	// StateIdle indicates Run is not active.
	StateIdle LoopState = iota
	// StateRunning indicates the loop is draining jobs.
	StateRunning
	// StateSleeping indicates the loop is blocked in the platform's
	// ProcessMessage.
	StateSleeping
)

// String returns a human-readable representation of the state.
func (s LoopState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateSleeping:
		return "Sleeping"
	default:
		return "Unknown"
	}
}

// loopState is a lock-free state machine.
type loopState struct {
	v atomic.Uint32
}

func (s *loopState) Load() LoopState {
	return LoopState(s.v.Load())
}

func (s *loopState) Store(state LoopState) {
	s.v.Store(uint32(state))
}

// TryTransition attempts to atomically transition from one state to another.
func (s *loopState) TryTransition(from, to LoopState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}

// IsRunning returns true if Run is active.
func (s *loopState) IsRunning() bool {
	return s.Load() != StateIdle
}

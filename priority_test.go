// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"testing"
)

func TestPriority(t *testing.T) {
	for _, tc := range [...]struct {
		name        string
		priority    Priority
		valid       bool
		preemptible bool
	}{
		{`idle`, PriorityIdle, true, true},
		{`background`, PriorityBackground, true, true},
		{`normal`, PriorityNormal, true, true},
		{`input`, PriorityInput, true, false},
		{`render`, PriorityRender, true, false},
		{`send`, PrioritySend, true, false},
		{`-1`, -1, false, true},
		{`6`, 6, false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if v := tc.priority.String(); v != tc.name {
				t.Errorf("String() = %q, want %q", v, tc.name)
			}
			if v := tc.priority.Valid(); v != tc.valid {
				t.Errorf("Valid() = %v, want %v", v, tc.valid)
			}
			if v := tc.priority.Preemptible(); v != tc.preemptible {
				t.Errorf("Preemptible() = %v, want %v", v, tc.preemptible)
			}
			p, ok := ParsePriority(tc.name)
			if ok != tc.valid || (ok && p != tc.priority) {
				t.Errorf("ParsePriority(%q) = %v, %v", tc.name, p, ok)
			}
		})
	}
}

func TestLoopState(t *testing.T) {
	var s loopState
	if s.Load() != StateIdle || s.IsRunning() {
		t.Fatal("expected idle")
	}
	if s.TryTransition(StateRunning, StateSleeping) {
		t.Fatal("unexpected transition")
	}
	if !s.TryTransition(StateIdle, StateRunning) || !s.IsRunning() {
		t.Fatal("expected running")
	}
	if !s.TryTransition(StateRunning, StateSleeping) || !s.IsRunning() {
		t.Fatal("expected sleeping")
	}
	s.Store(StateIdle)
	if s.IsRunning() {
		t.Fatal("expected idle")
	}

	for state, want := range map[LoopState]string{
		StateIdle:     "Idle",
		StateRunning:  "Running",
		StateSleeping: "Sleeping",
		LoopState(9):  "Unknown",
	} {
		if v := state.String(); v != want {
			t.Errorf("String() = %q, want %q", v, want)
		}
	}
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// fakePlatform counts calls, and reports pending native messages on demand.
type fakePlatform struct {
	processCalls atomic.Int64
	pendingCalls atomic.Int64
	wakeCalls    atomic.Int64
	pending      atomic.Bool
	onProcess    func() error
}

func (p *fakePlatform) ProcessMessage() error {
	p.processCalls.Add(1)
	if p.onProcess != nil {
		return p.onProcess()
	}
	return nil
}

func (p *fakePlatform) HasPendingMessages() bool {
	p.pendingCalls.Add(1)
	return p.pending.Load()
}

func (p *fakePlatform) Wake() error {
	p.wakeCalls.Add(1)
	return nil
}

// testEvent records everything logged to it.
type testEvent struct {
	logiface.UnimplementedEvent
	fields map[string]any
	msg    string
	level  logiface.Level
}

func (e *testEvent) Level() logiface.Level { return e.level }

func (e *testEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	e.fields[key] = val
}

func (e *testEvent) AddMessage(msg string) bool {
	e.msg = msg
	return true
}

// testEventFactory creates testEvent instances.
type testEventFactory struct{}

func (testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level}
}

// testEventWriter collects written events.
type testEventWriter struct {
	events []*testEvent
	mu     sync.Mutex
}

func (w *testEventWriter) Write(event *testEvent) error {
	w.mu.Lock()
	w.events = append(w.events, event)
	w.mu.Unlock()
	return nil
}

func (w *testEventWriter) messages() (msgs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.events {
		msgs = append(msgs, e.msg)
	}
	return msgs
}

func (w *testEventWriter) find(msg string) (events []*testEvent) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range w.events {
		if e.msg == msg {
			events = append(events, e)
		}
	}
	return events
}

func newTestLogger(level logiface.Level) (*logiface.Logger[logiface.Event], *testEventWriter) {
	writer := &testEventWriter{}
	typed := logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](testEventFactory{}),
		logiface.WithWriter[*testEvent](writer),
		logiface.WithLevel[*testEvent](level),
	)
	return typed.Logger(), writer
}

// startLoop runs the loop in the background, returning a func that stops it
// (idempotently), returning the result of Run.
func startLoop(t *testing.T, loop *MainLoop) (stop func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool {
		return loop.State() != StateIdle
	}, time.Second, time.Millisecond)

	var (
		once sync.Once
		err  error
	)
	stop = func() error {
		once.Do(func() {
			cancel()
			select {
			case err = <-done:
			case <-time.After(5 * time.Second):
				t.Error("timed out waiting for Run to return")
			}
		})
		return err
	}
	t.Cleanup(func() { _ = stop() })

	return stop
}

// waitCompletion waits for c, failing the test after a timeout.
func waitCompletion(t *testing.T, c *Completion) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "timed out waiting for completion")
	return err
}

// recorder records the order jobs ran in.
type recorder struct {
	order []string
	mu    sync.Mutex
}

func (r *recorder) job(name string) func() error {
	return func() error {
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
		return nil
	}
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

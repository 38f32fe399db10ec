// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChanPlatform_ProcessMessage_message(t *testing.T) {
	p := NewChanPlatform(2)
	defer p.Close()

	var calls int
	require.NoError(t, p.Send(func() { calls++ }))
	require.NoError(t, p.Send(nil))
	assert.True(t, p.HasPendingMessages())

	require.NoError(t, p.ProcessMessage())
	assert.Equal(t, 1, calls)
	assert.True(t, p.HasPendingMessages())

	require.NoError(t, p.ProcessMessage())
	assert.False(t, p.HasPendingMessages())
}

func TestChanPlatform_ProcessMessage_wake(t *testing.T) {
	p := NewChanPlatform(0)
	defer p.Close()

	done := make(chan error, 1)
	go func() { done <- p.ProcessMessage() }()

	select {
	case <-done:
		t.Fatal("expected ProcessMessage to block")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, p.Wake())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestChanPlatform_Wake_coalesced(t *testing.T) {
	p := NewChanPlatform(0)
	defer p.Close()

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Wake())
	}
	// wakes are not native messages
	assert.False(t, p.HasPendingMessages())
	require.NoError(t, p.ProcessMessage())
	assert.Empty(t, p.wake)
}

func TestChanPlatform_Close(t *testing.T) {
	p := NewChanPlatform(0)

	var calls int
	require.NoError(t, p.Send(func() { calls++ }))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.ErrorIs(t, p.Send(func() {}), ErrPlatformClosed)

	// buffered messages are still delivered
	require.NoError(t, p.ProcessMessage())
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, p.ProcessMessage(), ErrPlatformClosed)
}

func TestChanPlatform_Close_unblocksSend(t *testing.T) {
	p := NewChanPlatform(1)
	require.NoError(t, p.Send(nil))

	var wg sync.WaitGroup
	wg.Add(1)
	var err error
	go func() {
		defer wg.Done()
		err = p.Send(nil)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, p.Close())
	wg.Wait()
	assert.ErrorIs(t, err, ErrPlatformClosed)
}

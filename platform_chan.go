// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"sync"
)

// ChanPlatform is a portable Platform, where native messages are functions,
// sent via Send, and run by ProcessMessage.
//
// It is intended for hosts without a native event source, and for testing.
// Instances must be initialized using NewChanPlatform.
type ChanPlatform struct {
	messages chan func()
	wake     chan struct{}
	closed   chan struct{}
	sendMu   sync.RWMutex
	once     sync.Once
}

var _ Platform = (*ChanPlatform)(nil)

// NewChanPlatform initializes a ChanPlatform, with the given message buffer
// size. Send blocks while the buffer is full. A buffer <= 0 defaults to 64.
func NewChanPlatform(buffer int) *ChanPlatform {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChanPlatform{
		messages: make(chan func(), buffer),
		wake:     make(chan struct{}, 1),
		closed:   make(chan struct{}),
	}
}

// Send enqueues a native message, which will be called by ProcessMessage on
// the loop goroutine. It is safe to call from any goroutine, and returns
// ErrPlatformClosed after Close.
func (x *ChanPlatform) Send(msg func()) error {
	x.sendMu.RLock()
	defer x.sendMu.RUnlock()
	select {
	case <-x.closed:
		return ErrPlatformClosed
	default:
	}
	select {
	case <-x.closed:
		return ErrPlatformClosed
	case x.messages <- msg:
		return nil
	}
}

// ProcessMessage blocks until a message is available (which it then calls),
// or Wake is called. Once closed, any remaining buffered messages are still
// processed, after which ErrPlatformClosed is returned.
func (x *ChanPlatform) ProcessMessage() error {
	select {
	case msg := <-x.messages:
		x.dispatch(msg)
		return nil
	default:
	}

	select {
	case msg := <-x.messages:
		x.dispatch(msg)
		return nil
	case <-x.wake:
		return nil
	case <-x.closed:
		select {
		case msg := <-x.messages:
			x.dispatch(msg)
			return nil
		default:
			return ErrPlatformClosed
		}
	}
}

func (x *ChanPlatform) dispatch(msg func()) {
	if msg != nil {
		msg()
	}
}

// HasPendingMessages reports whether any messages are buffered.
func (x *ChanPlatform) HasPendingMessages() bool {
	return len(x.messages) != 0
}

// Wake causes a blocked (or the next) ProcessMessage call to return. Wakes
// are coalesced.
func (x *ChanPlatform) Wake() error {
	select {
	case x.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close prevents further messages from being sent, and causes
// ProcessMessage to fail once the buffer is drained.
func (x *ChanPlatform) Close() error {
	x.once.Do(func() {
		close(x.closed)
		// wait for in-flight sends that may have won the race
		//lint:ignore SA2001 barrier only
		x.sendMu.Lock()
		x.sendMu.Unlock()
	})
	return nil
}

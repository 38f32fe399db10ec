// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

// Platform is the native event source a MainLoop interleaves jobs with.
//
// Implementations in this package are [ChanPlatform] (portable) and
// FDPlatform (Linux, epoll).
type Platform interface {
	// ProcessMessage blocks until there is a native message to handle, or
	// Wake has been called, then dispatches any native messages, before
	// returning. It is only ever called from the loop goroutine.
	//
	// A non-nil error is fatal to the loop, and is returned by Run.
	ProcessMessage() error

	// HasPendingMessages reports whether native messages are waiting to be
	// processed. It must not block. It is only ever called from the loop
	// goroutine.
	HasPendingMessages() bool

	// Wake causes a concurrent or subsequent ProcessMessage call to return
	// promptly. It must be safe to call from any goroutine.
	Wake() error
}

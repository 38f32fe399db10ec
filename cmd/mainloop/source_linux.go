// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build linux

package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/internal/config"
	"golang.org/x/sys/unix"
)

// fdSource delivers native messages through a pipe, watched by an
// FDPlatform. Each byte written is one message.
type fdSource struct {
	platform *mainloop.FDPlatform
	handle   func()
	r, w     int
	mu       sync.Mutex
	closed   bool
}

func newNativeSource(_ *config.Config, handle func()) (nativeSource, error) {
	platform, err := mainloop.NewFDPlatform()
	if err != nil {
		return nil, err
	}

	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		_ = platform.Close()
		return nil, err
	}

	x := &fdSource{
		platform: platform,
		handle:   handle,
		r:        fds[0],
		w:        fds[1],
	}

	if err := platform.RegisterFD(x.r, mainloop.EventRead, x.onReadable); err != nil {
		_ = unix.Close(x.r)
		_ = unix.Close(x.w)
		_ = platform.Close()
		return nil, err
	}

	return x, nil
}

func (x *fdSource) Platform() mainloop.Platform { return x.platform }

func (x *fdSource) Produce(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := x.signal(); err != nil {
			if errors.Is(err, mainloop.ErrPlatformClosed) {
				return nil
			}
			return err
		}
	}
}

func (x *fdSource) signal() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return mainloop.ErrPlatformClosed
	}
	if _, err := unix.Write(x.w, []byte{1}); err != nil && err != unix.EAGAIN {
		return err
	}
	// EAGAIN: the pipe is full, i.e. the loop is behind
	return nil
}

// onReadable is called on the loop goroutine.
func (x *fdSource) onReadable(mainloop.IOEvents) {
	var buf [64]byte
	for {
		n, err := unix.Read(x.r, buf[:])
		for i := 0; i < n; i++ {
			x.handle()
		}
		if err != nil || n < len(buf) {
			return
		}
	}
}

func (x *fdSource) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	x.closed = true
	err := x.platform.UnregisterFD(x.r)
	if e := unix.Close(x.r); err == nil {
		err = e
	}
	if e := unix.Close(x.w); err == nil {
		err = e
	}
	if e := x.platform.Close(); err == nil {
		err = e
	}
	return err
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

//go:build !linux

package main

import (
	"context"
	"errors"
	"time"

	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/internal/config"
)

// chanSource delivers native messages via a ChanPlatform.
type chanSource struct {
	platform *mainloop.ChanPlatform
	handle   func()
}

func newNativeSource(cfg *config.Config, handle func()) (nativeSource, error) {
	return &chanSource{
		platform: mainloop.NewChanPlatform(cfg.Demo.Buffer),
		handle:   handle,
	}, nil
}

func (x *chanSource) Platform() mainloop.Platform { return x.platform }

func (x *chanSource) Produce(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		// blocks while the buffer is full, until Close
		if err := x.platform.Send(x.handle); err != nil {
			if errors.Is(err, mainloop.ErrPlatformClosed) {
				return nil
			}
			return err
		}
	}
}

func (x *chanSource) Close() error { return x.platform.Close() }

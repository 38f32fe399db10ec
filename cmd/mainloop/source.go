// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"context"
	"time"

	"github.com/joeycumines/go-mainloop"
)

// nativeSource simulates a native event source, backing a platform.
type nativeSource interface {
	// Platform returns the platform to run the loop on.
	Platform() mainloop.Platform
	// Produce emits a native message every interval, until ctx is done, or
	// the source is closed. The loop calls the handler for each message.
	Produce(ctx context.Context, interval time.Duration) error
	// Close releases the platform. It must be called after the loop stops.
	Close() error
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/internal/config"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// backgroundWork is the simulated cost of each background job.
const backgroundWork = 200 * time.Microsecond

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the loop for a fixed duration, then report metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(config.DefaultSources(path, cmd.Flags())...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runDemo(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.BindFlags(cmd.Flags())

	return cmd
}

// runDemo runs the workload until cfg.Loop.Duration elapses, or ctx is
// canceled, logging to stderr, and writing the report to stdout.
func runDemo(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(stderr)),
		stumpy.L.WithLevel(cfg.LogLevel()),
	).Logger()

	var handled atomic.Int64
	source, err := newNativeSource(cfg, func() { handled.Add(1) })
	if err != nil {
		return err
	}

	loop, err := mainloop.New(
		source.Platform(),
		mainloop.WithLogger(logger),
		mainloop.WithMetrics(cfg.Loop.Metrics),
		mainloop.WithPreemptionPolicy(cfg.PreemptionPolicy()),
	)
	if err != nil {
		_ = source.Close()
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Loop.Duration)
	defer cancel()

	for i := 0; i < cfg.Demo.Background; i++ {
		loop.Post(backgroundJob, mainloop.PriorityBackground)
	}

	// a failed producer cancels gctx, stopping the loop
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Produce(gctx, cfg.Demo.Interval)
	})
	g.Go(func() error {
		invokeInputs(gctx, logger, loop, cfg.Demo.Inputs, cfg.Demo.Interval)
		return nil
	})

	logger.Info().
		Dur(`duration`, cfg.Loop.Duration).
		Int(`background`, cfg.Demo.Background).
		Int(`inputs`, cfg.Demo.Inputs).
		Stringer(`preemption`, cfg.PreemptionPolicy()).
		Log(`mainloop: demo started`)

	err = loop.Run(gctx)
	cancel()
	// unblocks the producers
	closeErr := source.Close()
	if e := g.Wait(); e != nil {
		logger.Err().Err(e).Log(`mainloop: native message source failed`)
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		err = nil
	}
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}

	logger.Info().
		Int64(`native_messages`, handled.Load()).
		Int(`pending`, loop.Pending()).
		Log(`mainloop: demo finished`)

	if m := loop.Metrics(); m != nil {
		return writeReport(stdout, cfg.Output, m)
	}

	return nil
}

func backgroundJob() error {
	time.Sleep(backgroundWork)
	return nil
}

// invokeInputs invokes one input priority job per interval, waiting on each,
// and logging the latency.
func invokeInputs(ctx context.Context, logger *logiface.Logger[logiface.Event], loop *mainloop.MainLoop, count int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < count; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		c := loop.Invoke(func() error { return nil }, mainloop.PriorityInput)
		if err := c.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Err().Int(`input`, i).Err(err).Log(`mainloop: input job failed`)
			continue
		}

		logger.Debug().
			Int(`input`, i).
			Dur(`latency`, time.Since(start)).
			Log(`mainloop: input job handled`)
	}
}

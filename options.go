// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// PreemptionPolicy determines what happens to a job that was taken from the
// queue, but not run, because native messages were pending.
type PreemptionPolicy int

const (
	// PreemptRequeue returns the job to the front of its priority tier, so
	// it runs on a later Drain, ahead of jobs of the same priority.
	PreemptRequeue PreemptionPolicy = iota
	// PreemptDiscard drops the job. If it was submitted via Invoke, its
	// Completion fails with ErrJobDiscarded.
	PreemptDiscard
)

// String implements fmt.Stringer.
func (x PreemptionPolicy) String() string {
	switch x {
	case PreemptRequeue:
		return "requeue"
	case PreemptDiscard:
		return "discard"
	default:
		return "unknown"
	}
}

// loopOptions holds configuration options for MainLoop creation.
type loopOptions struct {
	logger         *logiface.Logger[logiface.Event]
	preemptLimiter *catrate.Limiter
	preemption     PreemptionPolicy
	metricsEnabled bool
}

// LoopOption configures a MainLoop instance.
type LoopOption interface {
	applyLoop(*loopOptions) error
}

// loopOptionImpl implements LoopOption.
type loopOptionImpl struct {
	applyLoopFunc func(*loopOptions) error
}

func (l *loopOptionImpl) applyLoop(opts *loopOptions) error {
	return l.applyLoopFunc(opts)
}

// WithLogger attaches a structured logger. A nil logger disables logging,
// which is the default.
func WithLogger(logger *logiface.Logger[logiface.Event]) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithMetrics enables runtime metrics collection on the MainLoop.
// When enabled, metrics can be accessed via MainLoop.Metrics.
func WithMetrics(enabled bool) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		opts.metricsEnabled = enabled
		return nil
	}}
}

// WithPreemptionPolicy sets the PreemptionPolicy, defaults to
// PreemptRequeue.
func WithPreemptionPolicy(policy PreemptionPolicy) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) error {
		switch policy {
		case PreemptRequeue, PreemptDiscard:
		default:
			return errors.New("mainloop: invalid preemption policy")
		}
		opts.preemption = policy
		return nil
	}}
}

// WithPreemptionLogRates limits how often preemption is logged (at debug
// level), per priority. The rates map windows to the maximum number of log
// events within each window, see [catrate.NewLimiter] for the constraints.
// A nil or empty map disables the limit.
// Defaults to 5 per second, and 60 per minute.
func WithPreemptionLogRates(rates map[time.Duration]int) LoopOption {
	return &loopOptionImpl{func(opts *loopOptions) (err error) {
		if len(rates) == 0 {
			opts.preemptLimiter = nil
			return nil
		}
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("mainloop: invalid preemption log rates: %v", r)
			}
		}()
		opts.preemptLimiter = catrate.NewLimiter(rates)
		return nil
	}}
}

// resolveLoopOptions applies LoopOption instances to loopOptions.
func resolveLoopOptions(opts []LoopOption) (*loopOptions, error) {
	cfg := &loopOptions{preemption: PreemptRequeue}
	cfg.preemptLimiter = catrate.NewLimiter(map[time.Duration]int{
		time.Second: 5,
		time.Minute: 60,
	})
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyLoop(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package mainloop

import (
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLoopOptions_defaults(t *testing.T) {
	cfg, err := resolveLoopOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg.logger)
	assert.NotNil(t, cfg.preemptLimiter)
	assert.Equal(t, PreemptRequeue, cfg.preemption)
	assert.False(t, cfg.metricsEnabled)
}

func TestResolveLoopOptions_nilOption(t *testing.T) {
	cfg, err := resolveLoopOptions([]LoopOption{nil, WithMetrics(true), nil})
	require.NoError(t, err)
	assert.True(t, cfg.metricsEnabled)
}

func TestResolveLoopOptions_all(t *testing.T) {
	logger, _ := newTestLogger(logiface.LevelDebug)
	cfg, err := resolveLoopOptions([]LoopOption{
		WithLogger(logger),
		WithMetrics(true),
		WithPreemptionPolicy(PreemptDiscard),
		WithPreemptionLogRates(nil),
	})
	require.NoError(t, err)
	assert.Same(t, logger, cfg.logger)
	assert.True(t, cfg.metricsEnabled)
	assert.Equal(t, PreemptDiscard, cfg.preemption)
	assert.Nil(t, cfg.preemptLimiter)
}

func TestWithPreemptionPolicy_invalid(t *testing.T) {
	_, err := resolveLoopOptions([]LoopOption{WithPreemptionPolicy(-1)})
	assert.EqualError(t, err, `mainloop: invalid preemption policy`)
}

func TestWithPreemptionLogRates_invalid(t *testing.T) {
	for _, rates := range []map[time.Duration]int{
		{time.Second: 0},
		{-time.Second: 1},
		{time.Second: 10, time.Minute: 5},
	} {
		_, err := resolveLoopOptions([]LoopOption{WithPreemptionLogRates(rates)})
		assert.ErrorContains(t, err, `mainloop: invalid preemption log rates`, rates)
	}
}

func TestPreemptionPolicy_String(t *testing.T) {
	assert.Equal(t, `requeue`, PreemptRequeue.String())
	assert.Equal(t, `discard`, PreemptDiscard.String())
	assert.Equal(t, `unknown`, PreemptionPolicy(7).String())
}

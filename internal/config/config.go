// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package config loads the configuration of the mainloop command, layering
// defaults, an optional YAML file, environment variables, and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/logiface"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables, e.g. MAINLOOP_LOG_LEVEL
// sets log.level.
const EnvPrefix = "MAINLOOP_"

// Config is the complete configuration of the mainloop command.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Loop   LoopConfig   `koanf:"loop"`
	Demo   DemoConfig   `koanf:"demo"`
	Output OutputConfig `koanf:"output"`
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is a logiface level name, e.g. "info".
	Level string `koanf:"level" validate:"oneof=disabled emerg alert crit err warning notice info debug trace"`
}

// LoopConfig configures the MainLoop.
type LoopConfig struct {
	// Preemption is the preemption policy, "requeue" or "discard".
	Preemption string `koanf:"preemption" validate:"oneof=requeue discard"`
	// Duration is how long the loop runs for.
	Duration time.Duration `koanf:"duration" validate:"gt=0"`
	// Metrics enables metrics collection, and the final report.
	Metrics bool `koanf:"metrics"`
}

// DemoConfig configures the simulated workload.
type DemoConfig struct {
	// Background is the number of background priority jobs posted up front.
	Background int `koanf:"background" validate:"gte=0"`
	// Inputs is the number of input priority jobs invoked, one per Interval.
	Inputs int `koanf:"inputs" validate:"gte=0"`
	// Interval is the period of the simulated native messages.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`
	// Buffer is the native message buffer size, where applicable.
	Buffer int `koanf:"buffer" validate:"gte=0"`
}

// OutputConfig configures the final report.
type OutputConfig struct {
	// Format is "table" or "json".
	Format string `koanf:"format" validate:"oneof=table json"`
	// Color enables colored table output.
	Color bool `koanf:"color"`
}

var validate = validator.New()

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: logiface.LevelInformational.String(),
		},
		Loop: LoopConfig{
			Preemption: mainloop.PreemptRequeue.String(),
			Duration:   2 * time.Second,
			Metrics:    true,
		},
		Demo: DemoConfig{
			Background: 1000,
			Inputs:     10,
			Interval:   50 * time.Millisecond,
			Buffer:     64,
		},
		Output: OutputConfig{
			Format: "table",
			Color:  true,
		},
	}
}

// DefaultAsMap flattens Default, for the confmap provider. All keys must be
// present, for flags and environment variables to be mapped.
func DefaultAsMap() map[string]any {
	def := Default()
	return map[string]any{
		"log.level": def.Log.Level,

		"loop.preemption": def.Loop.Preemption,
		"loop.duration":   def.Loop.Duration,
		"loop.metrics":    def.Loop.Metrics,

		"demo.background": def.Demo.Background,
		"demo.inputs":     def.Demo.Inputs,
		"demo.interval":   def.Demo.Interval,
		"demo.buffer":     def.Demo.Buffer,

		"output.format": def.Output.Format,
		"output.color":  def.Output.Color,
	}
}

// BindFlags defines a flag for every configuration key, named after the key.
// Only flags that were explicitly set override other sources.
func BindFlags(flags *pflag.FlagSet) {
	def := Default()

	flags.String("log.level", def.Log.Level, "Log level (disabled, emerg, alert, crit, err, warning, notice, info, debug, trace)")

	flags.String("loop.preemption", def.Loop.Preemption, "Preemption policy (requeue, discard)")
	flags.Duration("loop.duration", def.Loop.Duration, "How long to run the loop for")
	flags.Bool("loop.metrics", def.Loop.Metrics, "Enable loop metrics")

	flags.Int("demo.background", def.Demo.Background, "Number of background jobs to post")
	flags.Int("demo.inputs", def.Demo.Inputs, "Number of input jobs to invoke")
	flags.Duration("demo.interval", def.Demo.Interval, "Interval between simulated native messages")
	flags.Int("demo.buffer", def.Demo.Buffer, "Native message buffer size")

	flags.String("output.format", def.Output.Format, "Report format (table, json)")
	flags.Bool("output.color", def.Output.Color, "Enable colored output")
}

// Load merges the given sources, in order, then unmarshals and validates the
// result. See DefaultSources.
func Load(sources ...Source) (*Config, error) {
	k := koanf.New(".")
	for _, source := range sources {
		if err := source.Load(k); err != nil {
			return nil, fmt.Errorf("config: %s: %w", source.Name(), err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks all values are within range.
func (x *Config) Validate() error {
	if err := validate.Struct(x); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("config: %w", err)
		}
		errs := make([]error, 0, len(fieldErrs))
		for _, e := range fieldErrs {
			errs = append(errs, fmt.Errorf("config: invalid %s: %v (%s)", fieldKey(e.Namespace()), e.Value(), e.Tag()))
		}
		return errors.Join(errs...)
	}
	return nil
}

// LogLevel returns the parsed Log.Level.
func (x *Config) LogLevel() logiface.Level {
	for level := logiface.LevelDisabled; level <= logiface.LevelTrace; level++ {
		if level.String() == x.Log.Level {
			return level
		}
	}
	return logiface.LevelInformational
}

// PreemptionPolicy returns the parsed Loop.Preemption.
func (x *Config) PreemptionPolicy() mainloop.PreemptionPolicy {
	if x.Loop.Preemption == mainloop.PreemptDiscard.String() {
		return mainloop.PreemptDiscard
	}
	return mainloop.PreemptRequeue
}

// fieldKey converts a validator namespace, e.g. "Config.Loop.Duration", to a
// config key, e.g. "loop.duration".
func fieldKey(namespace string) string {
	_, key, _ := strings.Cut(namespace, ".")
	return strings.ToLower(key)
}

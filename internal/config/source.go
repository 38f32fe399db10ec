// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Source loads configuration values into a koanf instance. Sources loaded
// later override earlier ones.
type Source interface {
	// Name identifies the source, in errors.
	Name() string
	// Load merges the source's values into k.
	Load(k *koanf.Koanf) error
}

// DefaultSource loads Default.
type DefaultSource struct{}

// FileSource loads a YAML file. An empty path is skipped, but a path that
// does not exist is an error, unless Optional is set.
type FileSource struct {
	Path     string
	Optional bool
}

// EnvSource loads environment variables with the given prefix (defaults to
// EnvPrefix). Underscores map to dots, e.g. MAINLOOP_LOOP_DURATION sets
// loop.duration.
type EnvSource struct {
	Prefix string
}

// FlagSource loads flags defined by BindFlags.
type FlagSource struct {
	Flags *pflag.FlagSet
}

var (
	_ Source = DefaultSource{}
	_ Source = (*FileSource)(nil)
	_ Source = (*EnvSource)(nil)
	_ Source = (*FlagSource)(nil)
)

// DefaultSources returns the standard sources, in order of precedence
// (lowest first): defaults, file, env, flags.
func DefaultSources(path string, flags *pflag.FlagSet) []Source {
	return []Source{
		DefaultSource{},
		&FileSource{Path: path},
		&EnvSource{},
		&FlagSource{Flags: flags},
	}
}

func (DefaultSource) Name() string { return "defaults" }

func (DefaultSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultAsMap(), "."), nil)
}

func (x *FileSource) Name() string { return "file:" + x.Path }

func (x *FileSource) Load(k *koanf.Koanf) error {
	if x.Path == "" {
		return nil
	}
	if _, err := os.Stat(x.Path); err != nil {
		if x.Optional && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return k.Load(file.Provider(x.Path), yaml.Parser())
}

func (x *EnvSource) Name() string { return "env" }

func (x *EnvSource) Load(k *koanf.Koanf) error {
	prefix := x.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}
	return k.Load(env.Provider(prefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, prefix)), "_", ".")
	}), nil)
}

func (x *FlagSource) Name() string { return "flags" }

func (x *FlagSource) Load(k *koanf.Koanf) error {
	if x.Flags == nil {
		return nil
	}
	return k.Load(posflag.Provider(x.Flags, ".", k), nil)
}

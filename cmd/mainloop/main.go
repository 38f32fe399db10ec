// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Command mainloop runs a MainLoop against a simulated workload, interleaving
// background and input priority jobs with native messages, then reports the
// loop's metrics.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mainloop",
		Short: "Single-goroutine priority job dispatcher demo",
		Long: `Runs a priority job dispatcher, which interleaves jobs posted from any
goroutine with the native messages of a platform event source.

Configuration is layered: defaults, then the YAML file given by --config,
then MAINLOOP_ prefixed environment variables, then flags.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file")

	cmd.AddCommand(newRunCmd())

	return cmd
}

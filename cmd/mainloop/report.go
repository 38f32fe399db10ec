// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/joeycumines/go-mainloop"
	"github.com/joeycumines/go-mainloop/internal/config"
)

type (
	report struct {
		Priorities []priorityReport `json:"priorities"`
		Latency    latencyReport    `json:"latency"`
		Queue      queueReport      `json:"queue"`
	}

	priorityReport struct {
		Priority  string `json:"priority"`
		Executed  uint64 `json:"executed"`
		Failed    uint64 `json:"failed"`
		Preempted uint64 `json:"preempted"`
		Discarded uint64 `json:"discarded"`
	}

	latencyReport struct {
		Samples int           `json:"samples"`
		P50     time.Duration `json:"p50"`
		P90     time.Duration `json:"p90"`
		P99     time.Duration `json:"p99"`
		Max     time.Duration `json:"max"`
		Mean    time.Duration `json:"mean"`
	}

	queueReport struct {
		Max int     `json:"max"`
		Avg float64 `json:"avg"`
	}
)

func newReport(m *mainloop.Metrics) report {
	var r report
	for p := mainloop.PrioritySend; p >= mainloop.PriorityIdle; p-- {
		c := m.Jobs(p)
		r.Priorities = append(r.Priorities, priorityReport{
			Priority:  p.String(),
			Executed:  c.Executed,
			Failed:    c.Failed,
			Preempted: c.Preempted,
			Discarded: c.Discarded,
		})
	}

	r.Latency.Samples = m.Latency.Sample()
	r.Latency.P50 = m.Latency.P50
	r.Latency.P90 = m.Latency.P90
	r.Latency.P99 = m.Latency.P99
	r.Latency.Max = m.Latency.Max
	r.Latency.Mean = m.Latency.Mean

	_, r.Queue.Max, r.Queue.Avg = m.Queue.Snapshot()

	return r
}

// writeReport writes the metrics, formatted per cfg.
func writeReport(w io.Writer, cfg config.OutputConfig, m *mainloop.Metrics) error {
	r := newReport(m)

	if cfg.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	header := func(s ...string) string {
		for i := range s {
			s[i] = strings.ToUpper(s[i])
			if cfg.Color {
				s[i] = color.New(color.Bold).Sprint(s[i])
			}
		}
		return strings.Join(s, "\t")
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, header(`priority`, `executed`, `failed`, `preempted`, `discarded`)); err != nil {
		return err
	}
	for _, p := range r.Priorities {
		failed := strconv.FormatUint(p.Failed, 10)
		if cfg.Color && p.Failed != 0 {
			failed = color.RedString(failed)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\n", p.Priority, p.Executed, failed, p.Preempted, p.Discarded); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := fmt.Sprintf(
		"latency: samples=%d p50=%s p90=%s p99=%s max=%s mean=%s\nqueue: max=%d avg=%.1f",
		r.Latency.Samples, r.Latency.P50, r.Latency.P90, r.Latency.P99, r.Latency.Max, r.Latency.Mean,
		r.Queue.Max, r.Queue.Avg,
	)
	if cfg.Color {
		_, err := color.New(color.FgGreen).Fprintln(w, summary)
		return err
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

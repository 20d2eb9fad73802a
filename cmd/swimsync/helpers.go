package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"swimsync/internal/playlist"
)

// printCapacity reports playlist fill against the configured device
// capacity, warning when it crosses the near-full threshold.
func printCapacity(cmd *cobra.Command, ctx *commandContext, acc *playlist.Accumulator) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return
	}
	report := acc.Capacity(cfg.CapacityBytes())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Playlist: %d track(s), %s of %s (%.0f%%), %s free\n",
		acc.Len(),
		humanize.Bytes(uint64(report.Used)),
		humanize.Bytes(uint64(report.Capacity)),
		report.Fraction*100,
		humanize.Bytes(uint64(report.Remaining)))
	if missing := acc.MissingCount(); missing > 0 {
		fmt.Fprintf(out, "Warning: %d entry(ies) point at files that no longer exist\n", missing)
	}
	switch {
	case report.Over:
		fmt.Fprintf(out, "Warning: playlist exceeds device capacity by %s; transfer will be refused\n",
			humanize.Bytes(uint64(report.Used-report.Capacity)))
	case report.Near:
		fmt.Fprintln(out, "Warning: playlist is over 90% of device capacity")
	}
}

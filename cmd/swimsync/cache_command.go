package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"swimsync/internal/catalog"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "Show catalog cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.Library.CachePath)
			if err != nil {
				return fmt.Errorf("open catalog cache: %w", err)
			}
			defer store.Close()

			info, err := store.Info(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if info.CachedAt.IsZero() {
				fmt.Fprintln(out, "Catalog cache is empty; run scan to build it")
				return nil
			}
			fmt.Fprintln(out, renderPairs([][2]string{
				{"Cache file", store.Path()},
				{"Cached", humanize.Time(info.CachedAt)},
				{"Tracks", fmt.Sprintf("%d", info.TrackCount)},
			}))
			return nil
		},
	}
}

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var rescan bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the source roots and build the deduplicated catalog",
		Long: `Scan walks every configured source root, reads audio metadata, and
builds the deduplicated catalog. When the roots are unchanged since the
last scan, the cached catalog is reused and no files are read.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var bar *progressbar.ProgressBar
			progress := func(done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("reading tags"),
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set(done)
			}

			idx, cached, err := ctx.libraryIndex(cmd.Context(), rescan, progress)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cached {
				fmt.Fprintln(out, "Source roots unchanged; catalog loaded from cache")
			}
			summary := idx.Summary()
			fmt.Fprintln(out, renderPairs([][2]string{
				{"Tracks", fmt.Sprintf("%d", summary.TrackCount)},
				{"Total size", humanize.Bytes(uint64(summary.TotalSize))},
				{"Artists", fmt.Sprintf("%d", summary.UniqueArtist)},
				{"Albums", fmt.Sprintf("%d", summary.UniqueAlbum)},
				{"Genres", fmt.Sprintf("%d", summary.UniqueGenre)},
			}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&rescan, "rescan", false, "Ignore the cached catalog and rescan from disk")
	return cmd
}

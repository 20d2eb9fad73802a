package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"swimsync/internal/transfer"
)

func newTransferCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Replace the device contents with the playlist",
		Long: `Transfer wipes the audio on the device and copies the playlist in
order. The previous device contents are archived first, and the run is
refused outright when the playlist cannot fit. The playlist session is
retired only after every file lands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !dryRun && !yes {
				report := acc.Capacity(cfg.CapacityBytes())
				fmt.Fprintf(out, "About to erase all audio on %s and copy %d track(s) (%s).\n",
					cfg.Device.MountPath, acc.Len()-acc.MissingCount(), humanize.Bytes(uint64(report.Used)))
				fmt.Fprint(out, "Continue? [y/N] ")
				var answer string
				fmt.Fscanln(cmd.InOrStdin(), &answer)
				if answer != "y" && answer != "Y" && answer != "yes" {
					fmt.Fprintln(out, "Transfer aborted")
					return nil
				}
			}

			var bar *progressbar.ProgressBar
			progress := func(u transfer.Update) {
				if u.State != transfer.StateCopying {
					return
				}
				if bar == nil {
					bar = progressbar.NewOptions64(u.BytesTotal,
						progressbar.OptionSetDescription("copying"),
						progressbar.OptionSetWriter(cmd.ErrOrStderr()),
						progressbar.OptionShowBytes(true),
						progressbar.OptionClearOnFinish(),
					)
				}
				_ = bar.Set64(u.BytesDone)
			}

			engine := transfer.New(transfer.Options{
				MountPath:     cfg.Device.MountPath,
				CapacityBytes: cfg.CapacityBytes(),
				AllowedExts:   cfg.AllowedExtensions(),
				ArchiveDir:    cfg.Archive.Dir,
				CopyTimeout:   time.Duration(cfg.Transfer.CopyTimeoutSeconds) * time.Second,
				DryRun:        dryRun,
			}, ctx.log(), progress)

			summary, err := engine.Run(cmd.Context(), acc.Entries())
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(out, "Dry run passed: %d track(s) fit on the device\n", acc.Len()-acc.MissingCount())
				return nil
			}

			fmt.Fprintln(out, renderPairs([][2]string{
				{"Deleted", fmt.Sprintf("%d", summary.Deleted)},
				{"Copied", fmt.Sprintf("%d (%s)", summary.Copied, humanize.Bytes(uint64(summary.BytesCopied)))},
				{"Failed", fmt.Sprintf("%d", summary.Failed)},
				{"Skipped", fmt.Sprintf("%d", summary.Skipped)},
				{"Elapsed", summary.Elapsed.Round(time.Millisecond).String()},
			}))
			if summary.ArchivePath != "" {
				fmt.Fprintf(out, "Previous device contents archived to %s\n", summary.ArchivePath)
			}

			if summary.Failed > 0 {
				for _, failure := range summary.Failures {
					fmt.Fprintf(out, "  failed: %s: %v\n", failure.Name, failure.Err)
				}
				fmt.Fprintln(out, "Playlist kept; fix the failures and run transfer again")
				return nil
			}

			if summary.Consumed {
				if err := acc.Clear(); err != nil {
					return fmt.Errorf("retire playlist session: %w", err)
				}
				fmt.Fprintln(out, "Transfer complete; playlist session retired")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate without touching the device")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

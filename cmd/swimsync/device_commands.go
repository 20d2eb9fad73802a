package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"swimsync/internal/device"
)

func newDeviceCommand(ctx *commandContext) *cobra.Command {
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect the mounted player",
	}

	deviceCmd.AddCommand(newDeviceStatusCommand(ctx))
	deviceCmd.AddCommand(newDeviceArchiveCommand(ctx))

	return deviceCmd
}

func newDeviceStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show what the device currently holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			snap, err := device.TakeSnapshot(cfg.Device.MountPath, cfg.AllowedExtensions())
			if err != nil {
				return err
			}
			free, err := device.FreeSpace(cfg.Device.MountPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, snap)
			}

			fmt.Fprintln(out, renderPairs([][2]string{
				{"Mount", snap.MountPath},
				{"Audio files", fmt.Sprintf("%d", len(snap.Files))},
				{"Audio size", humanize.Bytes(uint64(snap.TotalSize))},
				{"Free space", humanize.Bytes(uint64(free))},
				{"Capacity ceiling", humanize.Bytes(uint64(cfg.CapacityBytes()))},
			}))
			if len(snap.Files) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(snap.Files))
			for _, f := range snap.Files {
				rows = append(rows, []string{f.RelPath, humanize.Bytes(uint64(f.Size))})
			}
			fmt.Fprintln(out, renderTable([]string{"File", "Size"}, rows, 1))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the snapshot as JSON")
	return cmd
}

func newDeviceArchiveCommand(ctx *commandContext) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive the current device contents",
		Long: `Archive records the device's audio listing as a JSON artifact.
Transfers do this automatically before clearing; this command captures a
snapshot on demand. With --list, previously written archives are shown
instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if list {
				paths, err := device.ListArchives(cfg.Archive.Dir)
				if err != nil {
					return err
				}
				if len(paths) == 0 {
					fmt.Fprintln(out, "No archives recorded")
					return nil
				}
				rows := make([][]string, 0, len(paths))
				for _, path := range paths {
					archive, err := device.ReadArchive(path)
					if err != nil {
						return err
					}
					rows = append(rows, []string{
						archive.CapturedAt.Format("2006-01-02 15:04"),
						fmt.Sprintf("%d", archive.FileCount),
						humanize.Bytes(uint64(archive.TotalSize)),
						path,
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Captured", "Files", "Size", "Artifact"}, rows, 1, 2))
				return nil
			}

			snap, err := device.TakeSnapshot(cfg.Device.MountPath, cfg.AllowedExtensions())
			if err != nil {
				return err
			}
			path, err := device.WriteArchive(cfg.Archive.Dir, snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Archived %d file(s) (%s) to %s\n",
				len(snap.Files), humanize.Bytes(uint64(snap.TotalSize)), path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "List recorded archives")
	return cmd
}

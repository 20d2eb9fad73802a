package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"swimsync/internal/config"
	"swimsync/internal/curator"
	"swimsync/internal/library"
	"swimsync/internal/playlist"
)

func newPlaylistCommand(ctx *commandContext) *cobra.Command {
	playlistCmd := &cobra.Command{
		Use:     "playlist",
		Aliases: []string{"pl"},
		Short:   "Build and inspect the transfer playlist",
	}

	playlistCmd.AddCommand(newPlaylistAddCommand(ctx))
	playlistCmd.AddCommand(newPlaylistSetCommand(ctx))
	playlistCmd.AddCommand(newPlaylistRemoveCommand(ctx))
	playlistCmd.AddCommand(newPlaylistClearCommand(ctx))
	playlistCmd.AddCommand(newPlaylistShowCommand(ctx))

	return playlistCmd
}

// selectionFlags are the exact-match filters shared by add and set.
type selectionFlags struct {
	artist, album, genre, title string
}

func (f *selectionFlags) register(cmd *cobra.Command, verb string) {
	cmd.Flags().StringVar(&f.artist, "artist", "", verb+" every track by this artist")
	cmd.Flags().StringVar(&f.album, "album", "", verb+" every track on this album")
	cmd.Flags().StringVar(&f.genre, "genre", "", verb+" every track in this genre")
	cmd.Flags().StringVar(&f.title, "title", "", verb+" tracks with this exact title")
}

func (f *selectionFlags) empty() bool {
	return f.artist == "" && f.album == "" && f.genre == "" && f.title == ""
}

// stageSelection fills a curation session from the flag filters and any
// explicit library paths.
func stageSelection(session *curator.Session, flags *selectionFlags, args []string) error {
	selections := []struct {
		field library.Field
		value string
	}{
		{library.FieldArtist, flags.artist},
		{library.FieldAlbum, flags.album},
		{library.FieldGenre, flags.genre},
		{library.FieldTitle, flags.title},
	}
	for _, sel := range selections {
		if sel.value == "" {
			continue
		}
		if _, err := session.Stage(sel.field, sel.value); err != nil {
			return err
		}
	}
	for _, arg := range args {
		path, err := config.ExpandPath(arg)
		if err != nil {
			return err
		}
		if _, err := session.StagePath(path); err != nil {
			return err
		}
	}
	return nil
}

func newPlaylistAddCommand(ctx *commandContext) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "add [paths...]",
		Short: "Add tracks to the playlist",
		Long: `Add appends tracks from the catalog to the playlist. Tracks can be
named by library path, or selected in bulk with the exact match flags.
A path that belongs to a duplicate group resolves to the group's
preferred copy.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.empty() {
				return fmt.Errorf("nothing to add: give library paths or a selection flag")
			}

			idx, _, err := ctx.libraryIndex(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}

			session := curator.NewSession(idx, ctx.log())
			if err := stageSelection(session, &flags, args); err != nil {
				return err
			}

			res := acc.Add(session.Staged())
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d track(s), skipped %d duplicate(s)\n", res.Added, res.Skipped)
			printCapacity(cmd, ctx, acc)
			return nil
		},
	}

	flags.register(cmd, "Add")
	return cmd
}

func newPlaylistSetCommand(ctx *commandContext) *cobra.Command {
	var flags selectionFlags

	cmd := &cobra.Command{
		Use:   "set [paths...]",
		Short: "Replace the playlist with a fresh selection",
		Long: `Set discards the current playlist and commits the given selection in
its place. Selection works exactly like add; the difference is that set
starts from an empty playlist.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && flags.empty() {
				return fmt.Errorf("nothing to select: give library paths or a selection flag")
			}

			idx, _, err := ctx.libraryIndex(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}

			session := curator.NewSession(idx, ctx.log())
			if err := stageSelection(session, &flags, args); err != nil {
				return err
			}

			res, err := session.Commit(acc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Playlist replaced with %d track(s)\n", res.Added)
			printCapacity(cmd, ctx, acc)
			return nil
		},
	}

	flags.register(cmd, "Select")
	return cmd
}

func newPlaylistRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <position|range>...",
		Short: "Remove playlist entries by position",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positions, err := playlistPositions(args)
			if err != nil {
				return err
			}
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}
			removed, err := acc.Remove(positions)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d track(s), %d remaining\n", removed, acc.Len())
			return nil
		},
	}
}

func newPlaylistClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the playlist and its session",
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}
			if err := acc.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Playlist cleared")
			return nil
		},
	}
}

func newPlaylistShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the playlist in transfer order",
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := ctx.loadPlaylist()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			entries := acc.Entries()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Playlist is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for i, e := range entries {
				size := humanize.Bytes(uint64(e.Size))
				if e.Missing {
					size = "missing"
				}
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					e.Artist,
					e.Title,
					string(e.Format),
					size,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Artist", "Title", "Fmt", "Size"}, rows, 0, 4))
			printCapacity(cmd, ctx, acc)
			return nil
		},
	}
}

func playlistPositions(args []string) ([]int, error) {
	positions, err := playlist.ParsePositions(args)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no positions given")
	}
	return positions, nil
}

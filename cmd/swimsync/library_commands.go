package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"swimsync/internal/library"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var fieldFlag string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the catalog by substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			field, err := library.ParseField(fieldFlag)
			if err != nil {
				return err
			}
			idx, _, err := ctx.libraryIndex(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			matches := idx.Search(field, args[0])
			if len(matches) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No tracks match %s %q\n", field, args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTracks(matches))
			return nil
		},
	}

	cmd.Flags().StringVarP(&fieldFlag, "field", "f", "title", "Field to search: title, artist, album, or genre")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var artistFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the deduplicated catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _, err := ctx.libraryIndex(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			tracks := idx.Tracks()
			if artistFlag != "" {
				tracks = idx.Exact(library.FieldArtist, artistFlag)
			}
			if len(tracks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog is empty; run `swimsync scan` first")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTracks(tracks))
			return nil
		},
	}

	cmd.Flags().StringVar(&artistFlag, "artist", "", "Only list tracks by this artist")
	return cmd
}

func newSummaryCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show catalog statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, _, err := ctx.libraryIndex(cmd.Context(), false, nil)
			if err != nil {
				return err
			}
			summary := idx.Summary()
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, summary)
			}

			fmt.Fprintln(out, renderPairs([][2]string{
				{"Tracks", fmt.Sprintf("%d", summary.TrackCount)},
				{"Total size", humanize.Bytes(uint64(summary.TotalSize))},
				{"Artists", fmt.Sprintf("%d", summary.UniqueArtist)},
				{"Albums", fmt.Sprintf("%d", summary.UniqueAlbum)},
				{"Genres", fmt.Sprintf("%d", summary.UniqueGenre)},
			}))
			if len(summary.TopArtists) > 0 {
				rows := make([][]string, 0, len(summary.TopArtists))
				for _, nc := range summary.TopArtists {
					rows = append(rows, []string{nc.Name, fmt.Sprintf("%d", nc.Count)})
				}
				fmt.Fprintln(out, renderTable([]string{"Top artists", "Tracks"}, rows, 1))
			}
			if len(summary.TopGenres) > 0 {
				rows := make([][]string, 0, len(summary.TopGenres))
				for _, nc := range summary.TopGenres {
					rows = append(rows, []string{nc.Name, fmt.Sprintf("%d", nc.Count)})
				}
				fmt.Fprintln(out, renderTable([]string{"Top genres", "Tracks"}, rows, 1))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the summary as JSON")
	return cmd
}

func renderTracks(tracks []library.Track) string {
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			t.Artist,
			t.Album,
			t.Title,
			string(t.Format),
			humanize.Bytes(uint64(t.Size)),
			t.Path,
		})
	}
	return renderTable([]string{"Artist", "Album", "Title", "Fmt", "Size", "Path"}, rows, 4)
}

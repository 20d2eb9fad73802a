package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"swimsync/internal/library"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache", "library.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleGroups() []library.Group {
	return []library.Group{
		{
			Representative: library.Track{
				Title: "Song", Artist: "Artist", Album: "Album", Genre: "Rock",
				Size: 3 << 20, Format: library.FormatAAC, Path: "/b/song.m4a", RootRank: 1,
			},
			Variants: []library.Track{
				{
					Title: "Song", Artist: "Artist", Album: "Album", Genre: "Rock",
					Size: 4 << 20, Format: library.FormatMP3, Path: "/a/song.mp3", RootRank: 0,
				},
			},
		},
		{
			Representative: library.Track{
				Title: "Waves", Artist: "Other", Album: "Sea", Genre: "Ambient",
				Size: 5 << 20, Format: library.FormatMP3, Path: "/a/waves.mp3", RootRank: 0,
			},
		},
	}
}

func sampleFingerprints() []library.RootFingerprint {
	return []library.RootFingerprint{
		{Root: "/a", FileCount: 2, LatestMod: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		{Root: "/b", FileCount: 1, LatestMod: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)},
	}
}

func TestReplaceAndGroupsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, sampleGroups(), sampleFingerprints()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	groups, err := store.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Representative.Path != "/b/song.m4a" {
		t.Fatalf("representative lost: %+v", groups[0].Representative)
	}
	if len(groups[0].Variants) != 1 || groups[0].Variants[0].Path != "/a/song.mp3" {
		t.Fatalf("variant lost: %+v", groups[0].Variants)
	}
	if groups[0].Representative.Format != library.FormatAAC {
		t.Fatalf("format lost: %q", groups[0].Representative.Format)
	}
}

func TestValidComparesFingerprints(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Empty cache never validates.
	ok, err := store.Valid(ctx, sampleFingerprints())
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if ok {
		t.Fatal("empty cache reported valid")
	}

	if err := store.Replace(ctx, sampleGroups(), sampleFingerprints()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	ok, err = store.Valid(ctx, sampleFingerprints())
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if !ok {
		t.Fatal("unchanged fingerprints reported stale")
	}

	changed := sampleFingerprints()
	changed[0].FileCount++
	ok, err = store.Valid(ctx, changed)
	if err != nil {
		t.Fatalf("Valid: %v", err)
	}
	if ok {
		t.Fatal("changed fingerprints reported valid")
	}
}

func TestReplaceOverwritesPriorCatalog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Replace(ctx, sampleGroups(), sampleFingerprints()); err != nil {
		t.Fatalf("first Replace: %v", err)
	}
	if err := store.Replace(ctx, sampleGroups()[:1], sampleFingerprints()[:1]); err != nil {
		t.Fatalf("second Replace: %v", err)
	}

	groups, err := store.Groups(ctx)
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group after overwrite, got %d", len(groups))
	}

	fps, err := store.Fingerprints(ctx)
	if err != nil {
		t.Fatalf("Fingerprints: %v", err)
	}
	if len(fps) != 1 || fps[0].Root != "/a" {
		t.Fatalf("unexpected fingerprints: %+v", fps)
	}
}

func TestInfoReportsCacheMetadata(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	info, err := store.Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !info.CachedAt.IsZero() || info.TrackCount != 0 {
		t.Fatalf("expected zero info for empty cache, got %+v", info)
	}

	if err := store.Replace(ctx, sampleGroups(), sampleFingerprints()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	info, err = store.Info(ctx)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.TrackCount != 2 {
		t.Fatalf("track count = %d, want 2 (representatives only)", info.TrackCount)
	}
	if info.CachedAt.IsZero() {
		t.Fatal("cache time not stamped")
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Replace(context.Background(), sampleGroups(), sampleFingerprints()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	groups, err := reopened.Groups(context.Background())
	if err != nil {
		t.Fatalf("Groups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("catalog lost across reopen: %d groups", len(groups))
	}
}

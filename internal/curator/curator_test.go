package curator

import (
	"path/filepath"
	"testing"

	"swimsync/internal/library"
	"swimsync/internal/playlist"
	"swimsync/internal/testsupport"
)

func testIndex(t *testing.T, dir string) *library.Index {
	t.Helper()
	mk := func(name, title, artist, album string, size int64) library.Track {
		path := filepath.Join(dir, name)
		testsupport.WriteFile(t, path, size)
		return library.Track{
			Title: title, Artist: artist, Album: album, Genre: "Rock",
			Size: size, Format: library.FormatMP3, Path: path,
		}
	}
	groups := []library.Group{
		{
			Representative: mk("anthem.m4a", "Anthem", "The Reefs", "Tides", 300),
			Variants:       []library.Track{mk("anthem.mp3", "Anthem", "The Reefs", "Tides", 400)},
		},
		{Representative: mk("drift.mp3", "Drift", "The Reefs", "Tides", 200)},
		{Representative: mk("waves.mp3", "Waves", "Undertow", "Sea", 100)},
	}
	groups[0].Representative.Format = library.FormatAAC
	return library.BuildIndex(groups)
}

func TestStageByArtist(t *testing.T) {
	dir := t.TempDir()
	session := NewSession(testIndex(t, dir), nil)

	added, err := session.Stage(library.FieldArtist, "the reefs")
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if added != 2 {
		t.Fatalf("staged %d, want 2", added)
	}

	// Re-staging the same artist adds nothing new.
	added, err = session.Stage(library.FieldArtist, "The Reefs")
	if err != nil {
		t.Fatalf("restage: %v", err)
	}
	if added != 0 {
		t.Fatalf("restage added %d", added)
	}
	if len(session.Staged()) != 2 {
		t.Fatalf("staged = %d", len(session.Staged()))
	}
}

func TestStageUnknownValueFails(t *testing.T) {
	session := NewSession(testIndex(t, t.TempDir()), nil)
	if _, err := session.Stage(library.FieldArtist, "Nobody"); err == nil {
		t.Fatal("unknown artist staged")
	}
	if len(session.Staged()) != 0 {
		t.Fatal("failed stage left picks behind")
	}
}

func TestStagePathResolvesVariants(t *testing.T) {
	dir := t.TempDir()
	session := NewSession(testIndex(t, dir), nil)

	// Staging the mp3 variant yields the aac representative.
	track, err := session.StagePath(filepath.Join(dir, "anthem.mp3"))
	if err != nil {
		t.Fatalf("StagePath: %v", err)
	}
	if track.Format != library.FormatAAC {
		t.Fatalf("resolved to %s copy: %q", track.Format, track.Path)
	}

	if _, err := session.StagePath(filepath.Join(dir, "nope.mp3")); err == nil {
		t.Fatal("unknown path staged")
	}
}

func TestCommitIsSingleWriteAndResets(t *testing.T) {
	dir := t.TempDir()
	session := NewSession(testIndex(t, dir), nil)

	acc, err := playlist.Load(filepath.Join(dir, "session.json"), nil)
	if err != nil {
		t.Fatalf("playlist.Load: %v", err)
	}

	if _, err := session.Stage(library.FieldArtist, "The Reefs"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if _, err := session.StagePath(filepath.Join(dir, "waves.mp3")); err != nil {
		t.Fatalf("StagePath: %v", err)
	}

	// Browsing before commit changes nothing.
	if acc.Len() != 0 {
		t.Fatal("playlist mutated before commit")
	}

	res, err := session.Commit(acc)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if res.Added != 3 || res.Skipped != 0 {
		t.Fatalf("commit: %+v", res)
	}
	if acc.Len() != 3 {
		t.Fatalf("playlist len = %d", acc.Len())
	}
	if len(session.Staged()) != 0 {
		t.Fatal("commit did not reset the session")
	}

	// A second sitting replaces the playlist outright.
	again := NewSession(testIndex(t, dir), nil)
	if _, err := again.Stage(library.FieldArtist, "Undertow"); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	res, err = again.Commit(acc)
	if err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if res.Added != 1 || res.Skipped != 0 {
		t.Fatalf("replacement commit: %+v", res)
	}
	if acc.Len() != 1 {
		t.Fatalf("playlist len after replacement = %d", acc.Len())
	}
	if acc.Entries()[0].Title != "Waves" {
		t.Fatalf("replacement kept %q", acc.Entries()[0].Title)
	}
}

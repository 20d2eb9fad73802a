package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeJunkFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("not an audio stream"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestExtractFallsBackToFilenameTokens(t *testing.T) {
	extractor := NewExtractor(nil)

	path := writeJunkFile(t, "Queen - Bohemian Rhapsody.mp3")
	tags, err := extractor.Extract(path)

	var unreadable *UnreadableError
	if !errors.As(err, &unreadable) {
		t.Fatalf("expected UnreadableError, got %v", err)
	}
	if unreadable.Path != path {
		t.Fatalf("unexpected error path: %q", unreadable.Path)
	}
	if tags.Artist != "Queen" {
		t.Fatalf("unexpected artist: %q", tags.Artist)
	}
	if tags.Title != "Bohemian Rhapsody" {
		t.Fatalf("unexpected title: %q", tags.Title)
	}
	if tags.Genre != UnknownGenre {
		t.Fatalf("genre not normalized: %q", tags.Genre)
	}
}

func TestExtractFallbackWithoutSeparator(t *testing.T) {
	extractor := NewExtractor(nil)

	tags, err := extractor.Extract(writeJunkFile(t, "lapsteel_demo.m4a"))
	if err == nil {
		t.Fatal("expected an error for unparseable tags")
	}
	if tags.Title != "lapsteel_demo" {
		t.Fatalf("unexpected title: %q", tags.Title)
	}
	if tags.Artist != "Unknown Artist" {
		t.Fatalf("unexpected artist: %q", tags.Artist)
	}
	if tags.Album != "Unknown Album" {
		t.Fatalf("unexpected album: %q", tags.Album)
	}
}

func TestExtractMissingFile(t *testing.T) {
	extractor := NewExtractor(nil)

	tags, err := extractor.Extract(filepath.Join(t.TempDir(), "absent - track.mp3"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	// Tags stay usable even when the file cannot be opened.
	if tags.Artist != "absent" || tags.Title != "track" {
		t.Fatalf("unexpected fallback tags: %+v", tags)
	}
}

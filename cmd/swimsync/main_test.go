package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanUsesCacheOnSecondRun(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSourceTrack(t, "Reefs - Anthem.mp3", 2048)
	env.addSourceTrack(t, "Reefs - Drift.mp3", 1024)

	out, _, err := runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "Tracks")
	if strings.Contains(out, "loaded from cache") {
		t.Fatalf("first scan claimed a cache hit: %q", out)
	}

	out, _, err = runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	requireContains(t, out, "loaded from cache")

	out, _, err = runCLI(t, []string{"cache"}, env.configPath)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	requireContains(t, out, "Tracks")
	requireContains(t, out, "2")

	// Touching the root invalidates the cache.
	env.addSourceTrack(t, "Reefs - Waves.mp3", 512)
	out, _, err = runCLI(t, []string{"scan"}, env.configPath)
	if err != nil {
		t.Fatalf("third scan: %v", err)
	}
	if strings.Contains(out, "loaded from cache") {
		t.Fatalf("stale cache reused after root change: %q", out)
	}
}

func TestSearchAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSourceTrack(t, "Reefs - Anthem.mp3", 2048)
	env.addSourceTrack(t, "Undertow - Waves.mp3", 1024)

	out, _, err := runCLI(t, []string{"search", "--field", "artist", "reefs"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Anthem")
	if strings.Contains(out, "Waves") {
		t.Fatalf("search leaked non-matching track: %q", out)
	}

	out, _, err = runCLI(t, []string{"search", "nothing-here"}, env.configPath)
	if err != nil {
		t.Fatalf("empty search: %v", err)
	}
	requireContains(t, out, "No tracks match")

	out, _, err = runCLI(t, []string{"list"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Anthem")
	requireContains(t, out, "Waves")
}

func TestPlaylistLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	path := env.addSourceTrack(t, "Reefs - Anthem.mp3", 2048)
	env.addSourceTrack(t, "Reefs - Drift.mp3", 1024)

	out, _, err := runCLI(t, []string{"playlist", "add", path}, env.configPath)
	if err != nil {
		t.Fatalf("playlist add: %v", err)
	}
	requireContains(t, out, "Added 1 track(s)")

	// Adding the same path again is a skip, not an error.
	out, _, err = runCLI(t, []string{"playlist", "add", path}, env.configPath)
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	requireContains(t, out, "skipped 1 duplicate(s)")

	out, _, err = runCLI(t, []string{"playlist", "add", "--artist", "Reefs"}, env.configPath)
	if err != nil {
		t.Fatalf("add by artist: %v", err)
	}
	requireContains(t, out, "Added 1 track(s)")

	out, _, err = runCLI(t, []string{"playlist", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("playlist show: %v", err)
	}
	requireContains(t, out, "Anthem")
	requireContains(t, out, "Drift")

	out, _, err = runCLI(t, []string{"playlist", "remove", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("playlist remove: %v", err)
	}
	requireContains(t, out, "Removed 1 track(s), 1 remaining")

	if _, _, err := runCLI(t, []string{"playlist", "remove", "9"}, env.configPath); err == nil {
		t.Fatal("out-of-range remove accepted")
	}

	// set replaces the playlist instead of appending to it.
	out, _, err = runCLI(t, []string{"playlist", "set", "--title", "Drift"}, env.configPath)
	if err != nil {
		t.Fatalf("playlist set: %v", err)
	}
	requireContains(t, out, "Playlist replaced with 1 track(s)")

	out, _, err = runCLI(t, []string{"playlist", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("show after set: %v", err)
	}
	requireContains(t, out, "Drift")
	if strings.Contains(out, "Anthem") {
		t.Fatalf("set kept prior entries: %q", out)
	}

	out, _, err = runCLI(t, []string{"playlist", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("playlist clear: %v", err)
	}
	requireContains(t, out, "Playlist cleared")

	out, _, err = runCLI(t, []string{"playlist", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("show after clear: %v", err)
	}
	requireContains(t, out, "Playlist is empty")
}

func TestTransferReplacesDeviceAndRetiresSession(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSourceTrack(t, "Reefs - Anthem.mp3", 2048)
	env.addSourceTrack(t, "Reefs - Drift.mp3", 1024)

	// Something already on the device from a previous trip.
	oldFile := filepath.Join(env.mountPath, "stale.mp3")
	if err := os.WriteFile(oldFile, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, []string{"playlist", "add", "--artist", "Reefs"}, env.configPath); err != nil {
		t.Fatalf("playlist add: %v", err)
	}

	out, _, err := runCLI(t, []string{"transfer", "--yes"}, env.configPath)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	requireContains(t, out, "playlist session retired")
	requireContains(t, out, "archived")

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Fatal("stale device file survived the transfer")
	}
	for _, name := range []string{"Reefs - Anthem.mp3", "Reefs - Drift.mp3"} {
		if _, err := os.Stat(filepath.Join(env.mountPath, name)); err != nil {
			t.Fatalf("expected %s on device: %v", name, err)
		}
	}

	out, _, err = runCLI(t, []string{"playlist", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("playlist show: %v", err)
	}
	requireContains(t, out, "Playlist is empty")
}

func TestTransferDryRunLeavesDeviceAlone(t *testing.T) {
	env := setupCLITestEnv(t)
	env.addSourceTrack(t, "Reefs - Anthem.mp3", 2048)

	oldFile := filepath.Join(env.mountPath, "stale.mp3")
	if err := os.WriteFile(oldFile, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := runCLI(t, []string{"playlist", "add", "--artist", "Reefs"}, env.configPath); err != nil {
		t.Fatalf("playlist add: %v", err)
	}

	out, _, err := runCLI(t, []string{"transfer", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("transfer --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run passed")

	if _, err := os.Stat(oldFile); err != nil {
		t.Fatalf("dry run touched the device: %v", err)
	}
}

func TestDeviceStatusAndArchive(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.WriteFile(filepath.Join(env.mountPath, "loop.mp3"), []byte("abcd"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"device", "status"}, env.configPath)
	if err != nil {
		t.Fatalf("device status: %v", err)
	}
	requireContains(t, out, "loop.mp3")
	requireContains(t, out, "Free space")

	out, _, err = runCLI(t, []string{"device", "archive"}, env.configPath)
	if err != nil {
		t.Fatalf("device archive: %v", err)
	}
	requireContains(t, out, "Archived 1 file(s)")

	out, _, err = runCLI(t, []string{"device", "archive", "--list"}, env.configPath)
	if err != nil {
		t.Fatalf("archive --list: %v", err)
	}
	requireContains(t, out, "Captured")
}

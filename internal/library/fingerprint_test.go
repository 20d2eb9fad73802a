package library_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"swimsync/internal/library"
	"swimsync/internal/testsupport"
)

func TestFingerprintsMatchOnUnchangedTree(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.mp3"), 64)
	testsupport.WriteFile(t, filepath.Join(root, "sub", "b.m4a"), 64)

	first := library.FingerprintRoots([]string{root}, allowAll)
	second := library.FingerprintRoots([]string{root}, allowAll)

	if !library.FingerprintsMatch(first, second) {
		t.Fatalf("fingerprints should match: %+v vs %+v", first, second)
	}
	if first[0].FileCount != 2 {
		t.Fatalf("file count = %d, want 2", first[0].FileCount)
	}
}

func TestFingerprintChangesOnNewFile(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.mp3"), 64)

	before := library.FingerprintRoots([]string{root}, allowAll)
	testsupport.WriteFile(t, filepath.Join(root, "b.mp3"), 64)
	after := library.FingerprintRoots([]string{root}, allowAll)

	if library.FingerprintsMatch(before, after) {
		t.Fatal("fingerprint must change when a file is added")
	}
}

func TestFingerprintChangesOnTouch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.mp3")
	testsupport.WriteFile(t, path, 64)

	before := library.FingerprintRoots([]string{root}, allowAll)
	future := time.Now().Add(2 * time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	after := library.FingerprintRoots([]string{root}, allowAll)

	if library.FingerprintsMatch(before, after) {
		t.Fatal("fingerprint must change when a file is touched")
	}
}

func TestFingerprintsMatchRejectsEmptyAndMismatchedSets(t *testing.T) {
	root := t.TempDir()
	current := library.FingerprintRoots([]string{root}, allowAll)

	if library.FingerprintsMatch(nil, current) {
		t.Fatal("empty stored set can never match")
	}
	if library.FingerprintsMatch(current, append(current, library.RootFingerprint{Root: "/extra"})) {
		t.Fatal("different lengths can never match")
	}
}

func TestFingerprintUnreadableRootIsZero(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "gone")

	fp := library.FingerprintRoots([]string{root}, allowAll)
	if fp[0].FileCount != 0 || !fp[0].LatestMod.IsZero() {
		t.Fatalf("expected zero fingerprint, got %+v", fp[0])
	}

	// A root that was scanned and then dropped out stops matching.
	testsupport.WriteFile(t, filepath.Join(base, "gone", "a.mp3"), 64)
	stored := library.FingerprintRoots([]string{root}, allowAll)
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	if library.FingerprintsMatch(stored, library.FingerprintRoots([]string{root}, allowAll)) {
		t.Fatal("vanished root still matched its stored fingerprint")
	}

	// A root unreadable on both sides is zero on both sides and matches.
	if !library.FingerprintsMatch(
		library.FingerprintRoots([]string{root}, allowAll),
		library.FingerprintRoots([]string{root}, allowAll)) {
		t.Fatal("two zero fingerprints for the same root should match")
	}
}

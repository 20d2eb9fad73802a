package library

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// RootFingerprint is a summary signature of one source root: the number of
// matching files and the newest modification time among them. Cheap to
// recompute, and any add/remove/touch under the root changes it.
type RootFingerprint struct {
	Root      string    `json:"root"`
	FileCount int       `json:"file_count"`
	LatestMod time.Time `json:"latest_mod"`
}

// Equal reports whether two fingerprints describe the same root state.
func (f RootFingerprint) Equal(other RootFingerprint) bool {
	return f.Root == other.Root &&
		f.FileCount == other.FileCount &&
		f.LatestMod.Equal(other.LatestMod)
}

// FingerprintRoots computes fingerprints for the given roots without reading
// file contents. An unreadable root yields a zero fingerprint for its slot,
// so a root that drops out after a successful scan stops matching the
// populated fingerprint stored for it. A root unreadable at both scan and
// check time is zero on both sides and still matches; the cache keeps
// carrying nothing for it.
func FingerprintRoots(roots []string, allowed map[string]struct{}) []RootFingerprint {
	fingerprints := make([]RootFingerprint, 0, len(roots))
	for _, root := range roots {
		fingerprints = append(fingerprints, fingerprintRoot(root, allowed))
	}
	return fingerprints
}

func fingerprintRoot(root string, allowed map[string]struct{}) RootFingerprint {
	fp := RootFingerprint{Root: root}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		fp.FileCount++
		if mod := info.ModTime(); mod.After(fp.LatestMod) {
			fp.LatestMod = mod
		}
		return nil
	})
	return fp
}

// FingerprintsMatch reports whether stored fingerprints still describe the
// current roots. Order matters: root precedence is part of catalog identity.
func FingerprintsMatch(stored, current []RootFingerprint) bool {
	if len(stored) == 0 || len(stored) != len(current) {
		return false
	}
	for i := range stored {
		if !stored[i].Equal(current[i]) {
			return false
		}
	}
	return true
}

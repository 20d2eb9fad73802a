// Package device inspects the mounted player: whether it is present and
// writable, what audio it currently holds, and how much space is left.
// It also captures pre-transfer archives of the device contents.
package device

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ErrNotMounted is returned when the configured mount path does not exist
// or is not a directory.
var ErrNotMounted = errors.New("device not mounted")

// File is one audio file found on the device, addressed relative to the
// mount point.
type File struct {
	RelPath string    `json:"rel_path"`
	Size    int64     `json:"size_bytes"`
	ModTime time.Time `json:"mod_time"`
}

// Snapshot is the device's audio contents at a point in time.
type Snapshot struct {
	MountPath string    `json:"mount_path"`
	TakenAt   time.Time `json:"taken_at"`
	Files     []File    `json:"files"`
	TotalSize int64     `json:"total_size_bytes"`
}

// Check verifies the mount path exists and is a directory.
func Check(mountPath string) error {
	info, err := os.Stat(mountPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNotMounted, mountPath)
		}
		return fmt.Errorf("stat mount: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotMounted, mountPath)
	}
	return nil
}

// ProbeWritable confirms the mount accepts writes by creating and
// removing a probe file. Read-only media fails here rather than midway
// through a transfer.
func ProbeWritable(mountPath string) error {
	probe, err := os.CreateTemp(mountPath, ".swimsync-probe-*")
	if err != nil {
		return fmt.Errorf("device not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}

// FreeSpace reports the bytes available to unprivileged writes on the
// filesystem holding path.
func FreeSpace(path string) (int64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return int64(stat.Bavail) * stat.Bsize, nil
}

// TakeSnapshot walks the mount and records every file with an allowed
// audio extension. Hidden files and directories are ignored, matching
// how players themselves treat them.
func TakeSnapshot(mountPath string, allowed map[string]struct{}) (Snapshot, error) {
	if err := Check(mountPath); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{MountPath: mountPath, TakenAt: time.Now().UTC()}
	err := filepath.WalkDir(mountPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != mountPath {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := allowed[ext]; !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(mountPath, path)
		if err != nil {
			return err
		}
		snap.Files = append(snap.Files, File{
			RelPath: rel,
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
		snap.TotalSize += info.Size()
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("walk device: %w", err)
	}

	sort.Slice(snap.Files, func(i, j int) bool {
		return snap.Files[i].RelPath < snap.Files[j].RelPath
	})
	return snap, nil
}

package device

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Archive is a recorded device snapshot, written before a transfer wipes
// the device so the previous contents stay reconstructable.
type Archive struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	MountPath  string    `json:"mount_path"`
	FileCount  int       `json:"file_count"`
	TotalSize  int64     `json:"total_size_bytes"`
	Files      []File    `json:"files"`
}

const archivePrefix = "device-"

// WriteArchive persists the snapshot as a JSON artifact in dir and
// returns the artifact path. The write is atomic.
func WriteArchive(dir string, snap Snapshot) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir: %w", err)
	}

	archive := Archive{
		ID:         uuid.NewString(),
		CapturedAt: snap.TakenAt,
		MountPath:  snap.MountPath,
		FileCount:  len(snap.Files),
		TotalSize:  snap.TotalSize,
		Files:      snap.Files,
	}
	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive: %w", err)
	}

	name := fmt.Sprintf("%s%s-%s.json",
		archivePrefix, snap.TakenAt.Format("20060102-150405"), archive.ID[:8])
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, ".archive-*.json")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("place archive: %w", err)
	}
	return path, nil
}

// ReadArchive loads a previously written archive artifact.
func ReadArchive(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Archive{}, fmt.Errorf("read archive: %w", err)
	}
	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return Archive{}, fmt.Errorf("parse archive %s: %w", path, err)
	}
	return archive, nil
}

// ListArchives returns the archive artifacts in dir, newest first.
func ListArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, archivePrefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	return paths, nil
}

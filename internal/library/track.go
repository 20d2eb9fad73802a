package library

import (
	"path/filepath"
	"strings"

	"swimsync/internal/textutil"
)

// Format enumerates the audio encodings the catalog distinguishes.
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatAAC Format = "aac"
)

// FormatForExtension maps a file extension (with or without leading dot) to a
// Format. Returns false for extensions outside the known set.
func FormatForExtension(ext string) (Format, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "mp3":
		return FormatMP3, true
	case "m4a", "aac", "mp4":
		return FormatAAC, true
	default:
		return "", false
	}
}

// ParseFormat converts a configuration value into a Format.
func ParseFormat(value string) (Format, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mp3":
		return FormatMP3, true
	case "aac":
		return FormatAAC, true
	default:
		return "", false
	}
}

// Track is one audio file discovered during a scan. Immutable once
// constructed; RootRank is the precedence of the source root it came from
// (lower rank wins dedup ties).
type Track struct {
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	Genre    string `json:"genre"`
	Size     int64  `json:"size"`
	Format   Format `json:"format"`
	Path     string `json:"path"`
	RootRank int    `json:"root_rank"`
}

// FileName returns the base name of the track's source path.
func (t Track) FileName() string {
	return filepath.Base(t.Path)
}

// Identity is the canonical dedup key: the normalized (artist, album, title)
// triple. Two files with equal identities are variants of the same recording.
type Identity struct {
	Artist string
	Album  string
	Title  string
}

// Identity returns the track's canonical identity.
func (t Track) Identity() Identity {
	return Identity{
		Artist: textutil.NormalizeKey(t.Artist),
		Album:  textutil.NormalizeKey(t.Album),
		Title:  textutil.NormalizeKey(t.Title),
	}
}

// Key renders the identity as a single stable string, usable as a map or
// database key.
func (id Identity) Key() string {
	return id.Artist + "|" + id.Album + "|" + id.Title
}

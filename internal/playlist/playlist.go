// Package playlist accumulates an ordered selection of tracks across
// invocations, persisting it as a session artifact so a playlist can be
// built over several sittings before a transfer.
package playlist

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"swimsync/internal/library"
	"swimsync/internal/logging"
	"swimsync/internal/textutil"
)

// Entry is one playlist slot. Entries keep enough tag data to rebuild
// their identity after a reload, and remember where the source file lives.
type Entry struct {
	Title  string         `json:"title"`
	Artist string         `json:"artist"`
	Album  string         `json:"album"`
	Size   int64          `json:"size_bytes"`
	Format library.Format `json:"format"`
	Path   string         `json:"path"`

	// Missing is set at load time when the source file no longer exists.
	// Missing entries stay visible but never count toward totals and are
	// skipped by transfers.
	Missing bool `json:"-"`
}

func entryFromTrack(t library.Track) Entry {
	return Entry{
		Title:  t.Title,
		Artist: t.Artist,
		Album:  t.Album,
		Size:   t.Size,
		Format: t.Format,
		Path:   t.Path,
	}
}

func (e Entry) identityKey() string {
	id := library.Identity{
		Artist: textutil.NormalizeKey(e.Artist),
		Album:  textutil.NormalizeKey(e.Album),
		Title:  textutil.NormalizeKey(e.Title),
	}
	return id.Key()
}

// FileName returns the base name the entry would carry on a device.
func (e Entry) FileName() string {
	track := library.Track{Title: e.Title, Artist: e.Artist, Format: e.Format, Path: e.Path}
	return track.FileName()
}

// AddResult reports the outcome of an Add call.
type AddResult struct {
	Added   int
	Skipped int
}

// nearCapacityFraction is the fill level at which callers should start
// warning the user. The hard limit is enforced at transfer time.
const nearCapacityFraction = 0.9

// CapacityReport relates the playlist's payload to a device capacity.
type CapacityReport struct {
	Used      int64
	Capacity  int64
	Remaining int64
	Fraction  float64
	Near      bool
	Over      bool
}

// Accumulator holds the working playlist and keeps the on-disk session in
// step with it. Mutations save eagerly; a failed save is logged and the
// in-memory state stands, so a read-only session directory degrades to a
// single-sitting playlist instead of an error.
type Accumulator struct {
	logger      *slog.Logger
	sessionPath string

	entries    []Entry
	byIdentity map[string]struct{}
	byPath     map[string]struct{}
}

// Load opens the session at path, or starts an empty playlist when none
// exists. A corrupt session is discarded with a warning rather than
// blocking playlist work.
func Load(sessionPath string, logger *slog.Logger) (*Accumulator, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	acc := &Accumulator{
		logger:      logging.NewComponentLogger(logger, "playlist"),
		sessionPath: sessionPath,
		byIdentity:  make(map[string]struct{}),
		byPath:      make(map[string]struct{}),
	}

	entries, err := readSession(sessionPath)
	if err != nil {
		acc.logger.Warn("discarding unreadable session", logging.Error(err), logging.String("path", sessionPath))
		return acc, nil
	}
	for _, e := range entries {
		if _, err := os.Stat(e.Path); err != nil {
			e.Missing = true
		}
		acc.entries = append(acc.entries, e)
		acc.byIdentity[e.identityKey()] = struct{}{}
		acc.byPath[e.Path] = struct{}{}
	}
	return acc, nil
}

// Add appends tracks in the given order, skipping any whose identity or
// source path is already in the playlist.
func (a *Accumulator) Add(tracks []library.Track) AddResult {
	var res AddResult
	for _, t := range tracks {
		e := entryFromTrack(t)
		key := e.identityKey()
		if _, dup := a.byIdentity[key]; dup {
			res.Skipped++
			continue
		}
		if _, dup := a.byPath[e.Path]; dup {
			res.Skipped++
			continue
		}
		a.entries = append(a.entries, e)
		a.byIdentity[key] = struct{}{}
		a.byPath[e.Path] = struct{}{}
		res.Added++
	}
	if res.Added > 0 {
		a.save()
	}
	return res
}

// Remove deletes the entries at the given 1-based positions. Every
// position is validated before anything is removed, so a bad position
// leaves the playlist untouched.
func (a *Accumulator) Remove(positions []int) (int, error) {
	if len(positions) == 0 {
		return 0, nil
	}
	drop := make(map[int]struct{}, len(positions))
	for _, pos := range positions {
		if pos < 1 || pos > len(a.entries) {
			return 0, fmt.Errorf("position %d out of range 1-%d", pos, len(a.entries))
		}
		drop[pos-1] = struct{}{}
	}

	kept := a.entries[:0]
	for i, e := range a.entries {
		if _, gone := drop[i]; gone {
			delete(a.byIdentity, e.identityKey())
			delete(a.byPath, e.Path)
			continue
		}
		kept = append(kept, e)
	}
	a.entries = kept
	a.save()
	return len(drop), nil
}

// Clear empties the playlist and removes the session artifact.
func (a *Accumulator) Clear() error {
	a.entries = nil
	a.byIdentity = make(map[string]struct{})
	a.byPath = make(map[string]struct{})
	if err := os.Remove(a.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Entries returns the playlist in order. The slice is a copy.
func (a *Accumulator) Entries() []Entry {
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// Len reports the number of entries, missing ones included.
func (a *Accumulator) Len() int { return len(a.entries) }

// TotalSize sums the payload of the transferable entries. Missing entries
// do not count.
func (a *Accumulator) TotalSize() int64 {
	var total int64
	for _, e := range a.entries {
		if e.Missing {
			continue
		}
		total += e.Size
	}
	return total
}

// MissingCount reports how many entries point at files that no longer
// exist.
func (a *Accumulator) MissingCount() int {
	var n int
	for _, e := range a.entries {
		if e.Missing {
			n++
		}
	}
	return n
}

// Capacity relates the current payload to the given device capacity in
// bytes.
func (a *Accumulator) Capacity(capacity int64) CapacityReport {
	report := CapacityReport{Used: a.TotalSize(), Capacity: capacity}
	if capacity > 0 {
		report.Fraction = float64(report.Used) / float64(capacity)
	}
	if remaining := capacity - report.Used; remaining > 0 {
		report.Remaining = remaining
	}
	report.Near = report.Fraction >= nearCapacityFraction
	report.Over = report.Used > capacity
	return report
}

// Save writes the session artifact explicitly. Mutations already save;
// this exists for callers that changed nothing but want the file fresh.
func (a *Accumulator) Save() error {
	return writeSession(a.sessionPath, a.entries)
}

func (a *Accumulator) save() {
	if err := writeSession(a.sessionPath, a.entries); err != nil {
		a.logger.Warn("session save failed, playlist kept in memory only",
			logging.Error(err), logging.String("path", a.sessionPath))
	}
}

// ParsePositions expands position arguments like "3" and "2-5" into a
// sorted, deduplicated list of 1-based positions.
func ParsePositions(args []string) ([]int, error) {
	seen := make(map[int]struct{})
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			continue
		}
		lo, hi, ok := strings.Cut(arg, "-")
		if !ok {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return nil, fmt.Errorf("invalid position %q", arg)
			}
			seen[n] = struct{}{}
			continue
		}
		start, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, fmt.Errorf("invalid range %q", arg)
		}
		end, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, fmt.Errorf("invalid range %q", arg)
		}
		if end < start {
			return nil, fmt.Errorf("range %q runs backwards", arg)
		}
		for n := start; n <= end; n++ {
			seen[n] = struct{}{}
		}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out, nil
}

// Package curator stages track selections against an indexed library.
// A session accumulates picks through any number of searches, then hands
// them to the playlist in a single commit, so browsing never mutates
// playlist state.
package curator

import (
	"fmt"
	"log/slog"

	"swimsync/internal/library"
	"swimsync/internal/logging"
	"swimsync/internal/playlist"
)

// Session is one curation sitting over an immutable index.
type Session struct {
	index  *library.Index
	logger *slog.Logger

	staged []library.Track
	picked map[string]struct{}
}

// NewSession wraps an index for staged selection.
func NewSession(index *library.Index, logger *slog.Logger) *Session {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Session{
		index:  index,
		logger: logging.NewComponentLogger(logger, "curator"),
		picked: make(map[string]struct{}),
	}
}

// Search forwards a substring query to the index. Results are
// representatives only and never include stage state.
func (s *Session) Search(field library.Field, query string) []library.Track {
	return s.index.Search(field, query)
}

// Summary forwards the library summary.
func (s *Session) Summary() library.Summary {
	return s.index.Summary()
}

// Stage picks every representative whose field exactly matches value and
// returns how many were newly staged. Matching nothing is an error so a
// typo is caught at selection time, not at transfer time.
func (s *Session) Stage(field library.Field, value string) (int, error) {
	matches := s.index.Exact(field, value)
	if len(matches) == 0 {
		return 0, fmt.Errorf("no tracks with %s %q", field, value)
	}
	var added int
	for _, track := range matches {
		if s.stage(track) {
			added++
		}
	}
	return added, nil
}

// StagePath picks the group representative for a library path. Variant
// paths resolve to their representative, so staging a duplicate file
// stages the preferred copy.
func (s *Session) StagePath(path string) (library.Track, error) {
	track, ok := s.index.ResolvePath(path)
	if !ok {
		return library.Track{}, fmt.Errorf("path not in library: %s", path)
	}
	s.stage(track)
	return track, nil
}

func (s *Session) stage(track library.Track) bool {
	if _, dup := s.picked[track.Path]; dup {
		return false
	}
	s.staged = append(s.staged, track)
	s.picked[track.Path] = struct{}{}
	return true
}

// Staged returns the picks in selection order. The slice is a copy.
func (s *Session) Staged() []library.Track {
	out := make([]library.Track, len(s.staged))
	copy(out, s.staged)
	return out
}

// Discard drops all staged picks without touching the playlist.
func (s *Session) Discard() {
	s.staged = nil
	s.picked = make(map[string]struct{})
}

// Commit replaces the playlist contents with the staged picks in one
// write and resets the session. This is the only mutation the session
// performs; everything else is read-only browsing.
func (s *Session) Commit(acc *playlist.Accumulator) (playlist.AddResult, error) {
	if err := acc.Clear(); err != nil {
		return playlist.AddResult{}, fmt.Errorf("replace playlist: %w", err)
	}
	res := acc.Add(s.staged)
	s.logger.Info("committed selection",
		logging.Int("staged", len(s.staged)),
		logging.Int("added", res.Added),
		logging.Int("skipped", res.Skipped))
	s.Discard()
	return res, nil
}

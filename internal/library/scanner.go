package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"swimsync/internal/logging"
	"swimsync/internal/metadata"
)

// ErrNoRootReadable reports that none of the configured source roots could be
// scanned. Distinct from per-file and per-directory failures, which are
// skipped and counted.
var ErrNoRootReadable = errors.New("no source root readable")

// extractWorkers bounds the metadata extraction pool.
const extractWorkers = 4

// ScanStats summarizes what a scan encountered.
type ScanStats struct {
	FilesSeen       int
	Extracted       int
	TagFallbacks    int
	SkippedDirs     int
	SkippedFiles    int
	UnreadableRoots int
}

// ScanProgress receives per-file checkpoints while metadata is extracted.
type ScanProgress func(done, total int)

// Scanner walks source roots in configured order and turns matching files
// into Track records.
type Scanner struct {
	roots     []string
	allowed   map[string]struct{}
	extractor *metadata.Extractor
	logger    *slog.Logger

	// Progress, when set, is invoked after each file's metadata is read.
	Progress ScanProgress
}

// NewScanner builds a scanner over the given roots. Root order defines
// precedence rank: roots[0] is rank 0.
func NewScanner(roots []string, allowed map[string]struct{}, extractor *metadata.Extractor, logger *slog.Logger) *Scanner {
	return &Scanner{
		roots:     roots,
		allowed:   allowed,
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "scanner"),
	}
}

type candidate struct {
	path string
	size int64
	rank int
}

// Scan walks every root, extracts metadata with a bounded worker pool, and
// returns the raw track records in deterministic (root order, lexical path)
// order together with per-root fingerprints computed from the same walk.
func (s *Scanner) Scan(ctx context.Context) ([]Track, []RootFingerprint, ScanStats, error) {
	var stats ScanStats
	var candidates []candidate
	fingerprints := make([]RootFingerprint, 0, len(s.roots))

	for rank, root := range s.roots {
		found, fp, err := s.walkRoot(root, rank, &stats)
		if err != nil {
			stats.UnreadableRoots++
			s.logger.Warn("source root not readable",
				logging.String("root", root), logging.Error(err))
			fingerprints = append(fingerprints, RootFingerprint{Root: root})
			continue
		}
		candidates = append(candidates, found...)
		fingerprints = append(fingerprints, fp)
	}

	if stats.UnreadableRoots == len(s.roots) {
		return nil, nil, stats, fmt.Errorf("%w: checked %d roots", ErrNoRootReadable, len(s.roots))
	}

	tracks, err := s.extractAll(ctx, candidates, &stats)
	if err != nil {
		return nil, nil, stats, err
	}

	s.logger.Info("scan complete",
		logging.Int("files", stats.FilesSeen),
		logging.Int("tracks", len(tracks)),
		logging.Int("tag_fallbacks", stats.TagFallbacks),
		logging.Int("skipped_dirs", stats.SkippedDirs),
		logging.Int("skipped_files", stats.SkippedFiles))

	return tracks, fingerprints, stats, nil
}

// walkRoot visits files under root in lexical order, filtering by extension.
// Unreadable subdirectories are skipped and counted, never fatal.
func (s *Scanner) walkRoot(root string, rank int, stats *ScanStats) ([]candidate, RootFingerprint, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, RootFingerprint{}, err
	}
	if !info.IsDir() {
		return nil, RootFingerprint{}, fmt.Errorf("%s is not a directory", root)
	}

	fp := RootFingerprint{Root: root}
	var found []candidate

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			stats.SkippedDirs++
			s.logger.Warn("skipping inaccessible path",
				logging.String("path", path), logging.Error(err))
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
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := s.allowed[ext]; !ok {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			stats.SkippedFiles++
			s.logger.Warn("skipping unstatable file",
				logging.String("path", path), logging.Error(err))
			return nil
		}
		stats.FilesSeen++
		fp.FileCount++
		if mod := fi.ModTime(); mod.After(fp.LatestMod) {
			fp.LatestMod = mod
		}
		found = append(found, candidate{path: path, size: fi.Size(), rank: rank})
		return nil
	})
	if walkErr != nil {
		return nil, RootFingerprint{}, walkErr
	}
	return found, fp, nil
}

// extractAll reads metadata for every candidate with a bounded pool. Results
// land at the candidate's own index, so the deterministic walk order survives
// regardless of which extraction finishes first.
func (s *Scanner) extractAll(ctx context.Context, candidates []candidate, stats *ScanStats) ([]Track, error) {
	tracks := make([]Track, len(candidates))
	fallbacks := make([]bool, len(candidates))

	var (
		wg   sync.WaitGroup
		done int
		mu   sync.Mutex
	)
	sem := make(chan struct{}, extractWorkers)

	for i, cand := range candidates {
		if err := ctx.Err(); err != nil {
			break
		}
		format, ok := FormatForExtension(filepath.Ext(cand.path))
		if !ok {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, cand candidate, format Format) {
			defer wg.Done()
			defer func() { <-sem }()

			tags, err := s.extractor.Extract(cand.path)
			if err != nil {
				fallbacks[i] = true
			}
			tracks[i] = Track{
				Title:    tags.Title,
				Artist:   tags.Artist,
				Album:    tags.Album,
				Genre:    tags.Genre,
				Size:     cand.size,
				Format:   format,
				Path:     cand.path,
				RootRank: cand.rank,
			}

			mu.Lock()
			done++
			if s.Progress != nil {
				s.Progress(done, len(candidates))
			}
			mu.Unlock()
		}(i, cand, format)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := tracks[:0]
	for i, track := range tracks {
		if track.Path == "" {
			continue
		}
		if fallbacks[i] {
			stats.TagFallbacks++
		}
		out = append(out, track)
		stats.Extracted++
	}

	// Walk order is already deterministic; this keeps it so even if the
	// candidate list ever stops being sorted at the walk layer.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RootRank != out[j].RootRank {
			return out[i].RootRank < out[j].RootRank
		}
		return out[i].Path < out[j].Path
	})
	return out, nil
}

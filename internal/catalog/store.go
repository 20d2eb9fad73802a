package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"swimsync/internal/library"
)

// Store persists the deduplicated catalog and its root fingerprints, backed
// by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	metaKeyCachedAt = "cached_at"
)

// Open initializes or connects to the catalog cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Replace atomically swaps the stored catalog for the given groups and
// fingerprints and stamps the cache time.
func (s *Store) Replace(ctx context.Context, groups []library.Group, fingerprints []library.RootFingerprint) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		for _, stmt := range []string{"DELETE FROM tracks", "DELETE FROM fingerprints", "DELETE FROM catalog_meta"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
		}

		insertTrack, err := tx.PrepareContext(ctx,
			`INSERT INTO tracks (
                identity_key, title, artist, album, genre,
                size_bytes, format, path, root_rank, is_representative, group_position
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer insertTrack.Close()

		for pos, group := range groups {
			if err := execInsertTrack(ctx, insertTrack, group.Representative, true, pos); err != nil {
				return err
			}
			for _, variant := range group.Variants {
				if err := execInsertTrack(ctx, insertTrack, variant, false, pos); err != nil {
					return err
				}
			}
		}

		for pos, fp := range fingerprints {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO fingerprints (position, root, file_count, latest_mod) VALUES (?, ?, ?, ?)`,
				pos, fp.Root, fp.FileCount, fp.LatestMod.UTC().Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("insert fingerprint: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO catalog_meta (key, value) VALUES (?, ?)`,
			metaKeyCachedAt, time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("record cache time: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit catalog: %w", err)
		}
		return nil
	})
}

func execInsertTrack(ctx context.Context, stmt *sql.Stmt, t library.Track, representative bool, pos int) error {
	repFlag := 0
	if representative {
		repFlag = 1
	}
	if _, err := stmt.ExecContext(ctx,
		t.Identity().Key(), t.Title, t.Artist, t.Album, t.Genre,
		t.Size, string(t.Format), t.Path, t.RootRank, repFlag, pos,
	); err != nil {
		return fmt.Errorf("insert track %s: %w", t.Path, err)
	}
	return nil
}

// Fingerprints returns the stored root fingerprints in position order.
func (s *Store) Fingerprints(ctx context.Context) ([]library.RootFingerprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT root, file_count, latest_mod FROM fingerprints ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()

	var out []library.RootFingerprint
	for rows.Next() {
		var fp library.RootFingerprint
		var latest string
		if err := rows.Scan(&fp.Root, &fp.FileCount, &latest); err != nil {
			return nil, fmt.Errorf("scan fingerprint: %w", err)
		}
		if latest != "" {
			parsed, err := time.Parse(time.RFC3339Nano, latest)
			if err != nil {
				return nil, fmt.Errorf("parse fingerprint time: %w", err)
			}
			fp.LatestMod = parsed
		}
		out = append(out, fp)
	}
	return out, rows.Err()
}

// Valid reports whether the stored catalog still matches the current roots.
func (s *Store) Valid(ctx context.Context, current []library.RootFingerprint) (bool, error) {
	stored, err := s.Fingerprints(ctx)
	if err != nil {
		return false, err
	}
	return library.FingerprintsMatch(stored, current), nil
}

// Groups loads the stored catalog in listing order, representatives first
// within each group.
func (s *Store) Groups(ctx context.Context) ([]library.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, artist, album, genre, size_bytes, format, path, root_rank, is_representative, group_position
         FROM tracks ORDER BY group_position, is_representative DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var groups []library.Group
	lastPos := -1
	for rows.Next() {
		var (
			t       library.Track
			format  string
			repFlag int
			pos     int
		)
		if err := rows.Scan(&t.Title, &t.Artist, &t.Album, &t.Genre,
			&t.Size, &format, &t.Path, &t.RootRank, &repFlag, &pos); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.Format = library.Format(format)

		if pos != lastPos {
			if repFlag != 1 {
				return nil, fmt.Errorf("corrupt cache: group %d has no representative first", pos)
			}
			groups = append(groups, library.Group{Representative: t})
			lastPos = pos
			continue
		}
		groups[len(groups)-1].Variants = append(groups[len(groups)-1].Variants, t)
	}
	return groups, rows.Err()
}

// Info describes the cached catalog without loading all tracks.
type Info struct {
	CachedAt   time.Time
	TrackCount int
}

// Info returns cache metadata. A zero Info means the cache is empty.
func (s *Store) Info(ctx context.Context) (Info, error) {
	var info Info

	var cachedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM catalog_meta WHERE key = ?`, metaKeyCachedAt).Scan(&cachedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return info, nil
	case err != nil:
		return info, fmt.Errorf("query cache time: %w", err)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, cachedAt); err == nil {
		info.CachedAt = parsed
	}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM tracks WHERE is_representative = 1`).Scan(&info.TrackCount); err != nil {
		return info, fmt.Errorf("count tracks: %w", err)
	}
	return info, nil
}

// Package transfer replaces the audio contents of a mounted device with
// the current playlist. A run archives the device, clears it, copies the
// playlist in order, and verifies what landed. The device is treated as
// disposable and the library as authoritative, so a failed run is always
// recoverable by running again.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"swimsync/internal/device"
	"swimsync/internal/fileutil"
	"swimsync/internal/logging"
	"swimsync/internal/playlist"
	"swimsync/internal/textutil"
)

// State names the phase a run is in. Transitions only move forward.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateClearing   State = "clearing"
	StateCopying    State = "copying"
	StateVerifying  State = "verifying"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

// ErrDeviceBusy is returned when another transfer holds the device lock.
var ErrDeviceBusy = errors.New("device is locked by another transfer")

// ErrEmptyPlaylist is returned when a run is requested with nothing to
// copy.
var ErrEmptyPlaylist = errors.New("playlist is empty")

// CapacityError reports a payload that cannot fit on the device. No
// device mutation has happened when it is returned.
type CapacityError struct {
	Required int64
	Capacity int64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("playlist needs %d bytes but device holds %d (over by %d)",
		e.Required, e.Capacity, e.Required-e.Capacity)
}

// Failure records one file that could not be copied.
type Failure struct {
	Name string
	Err  error
}

// Summary is the outcome of a run. Consumed reports whether the playlist
// session may be retired: it is set only when every transferable entry
// landed.
type Summary struct {
	State       State
	Deleted     int
	Copied      int
	Failed      int
	Skipped     int
	BytesCopied int64
	Failures    []Failure
	ArchivePath string
	Consumed    bool
	Elapsed     time.Duration
}

// Progress receives copy-phase updates. Callbacks arrive from the run
// goroutine only.
type Progress func(update Update)

// Update is one progress tick.
type Update struct {
	State      State
	File       string
	FilesDone  int
	FilesTotal int
	BytesDone  int64
	BytesTotal int64
}

// Options configures a run.
type Options struct {
	MountPath     string
	CapacityBytes int64
	AllowedExts   map[string]struct{}
	ArchiveDir    string
	CopyTimeout   time.Duration
	// DryRun validates and reports without touching the device.
	DryRun bool
}

const lockFileName = ".swimsync.lock"

// Engine runs device transfers. One Engine handles one run at a time;
// concurrent runs against the same device are excluded by an advisory
// lock on the mount.
type Engine struct {
	opts     Options
	logger   *slog.Logger
	progress Progress
}

// New returns an engine. progress may be nil.
func New(opts Options, logger *slog.Logger, progress Progress) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{
		opts:     opts,
		logger:   logging.NewComponentLogger(logger, "transfer"),
		progress: progress,
	}
}

// Run executes a full replacement transfer of the playlist entries.
// Validation failures return before any device mutation. After clearing
// begins, individual file failures are recorded and the run continues,
// so a partial result is always as large as the device allowed.
func (e *Engine) Run(ctx context.Context, entries []playlist.Entry) (Summary, error) {
	started := time.Now()
	summary := Summary{State: StateIdle}

	queue, skipped := transferable(entries)
	summary.Skipped = skipped
	if len(queue) == 0 {
		summary.State = StateFailed
		return summary, ErrEmptyPlaylist
	}

	// VALIDATING: no side effects past this phase until everything checks
	// out.
	e.setState(&summary, StateValidating, len(queue), 0)
	if err := device.Check(e.opts.MountPath); err != nil {
		summary.State = StateFailed
		return summary, err
	}
	if err := device.ProbeWritable(e.opts.MountPath); err != nil {
		summary.State = StateFailed
		return summary, err
	}

	var required int64
	for _, entry := range queue {
		required += entry.Size
	}
	if required > e.opts.CapacityBytes {
		summary.State = StateFailed
		return summary, &CapacityError{Required: required, Capacity: e.opts.CapacityBytes}
	}

	if e.opts.DryRun {
		e.logger.Info("dry run passed validation",
			logging.Int("files", len(queue)), logging.Int64("bytes", required))
		summary.State = StateDone
		summary.Elapsed = time.Since(started)
		return summary, nil
	}

	lock := flock.New(filepath.Join(e.opts.MountPath, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		summary.State = StateFailed
		return summary, fmt.Errorf("acquire device lock: %w", err)
	}
	if !locked {
		summary.State = StateFailed
		return summary, ErrDeviceBusy
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	snap, err := device.TakeSnapshot(e.opts.MountPath, e.opts.AllowedExts)
	if err != nil {
		summary.State = StateFailed
		return summary, err
	}
	if e.opts.ArchiveDir != "" && len(snap.Files) > 0 {
		archivePath, err := device.WriteArchive(e.opts.ArchiveDir, snap)
		if err != nil {
			summary.State = StateFailed
			return summary, fmt.Errorf("archive device contents: %w", err)
		}
		summary.ArchivePath = archivePath
		e.logger.Info("archived device contents",
			logging.String("archive", archivePath), logging.Int("files", len(snap.Files)))
	}

	// CLEARING: best effort, failures are logged and left behind. The
	// free-space check afterwards catches anything that stuck around.
	e.setState(&summary, StateClearing, len(queue), required)
	taken := e.clearDevice(snap, &summary)

	free, err := device.FreeSpace(e.opts.MountPath)
	if err != nil {
		summary.State = StateFailed
		return summary, err
	}
	if free < required {
		summary.State = StateFailed
		return summary, fmt.Errorf("device has %d bytes free after clearing, playlist needs %d", free, required)
	}

	// COPYING: playlist order, one failure never stops the rest.
	e.setState(&summary, StateCopying, len(queue), required)
	copied := e.copyAll(ctx, queue, taken, required, &summary)
	if err := ctx.Err(); err != nil {
		summary.State = StateFailed
		summary.Elapsed = time.Since(started)
		return summary, err
	}

	e.setState(&summary, StateVerifying, len(queue), required)
	e.verify(copied, &summary)

	summary.Elapsed = time.Since(started)
	if summary.Failed > 0 {
		summary.State = StateFailed
		e.logger.Warn("transfer finished with failures",
			logging.Int("copied", summary.Copied), logging.Int("failed", summary.Failed))
		return summary, nil
	}
	summary.State = StateDone
	summary.Consumed = true
	e.logger.Info("transfer complete",
		logging.Int("copied", summary.Copied),
		logging.Int("deleted", summary.Deleted),
		logging.Int64("bytes", summary.BytesCopied),
		logging.Duration("elapsed", summary.Elapsed))
	return summary, nil
}

// transferable drops entries whose source file vanished since the
// playlist was built.
func transferable(entries []playlist.Entry) ([]playlist.Entry, int) {
	queue := make([]playlist.Entry, 0, len(entries))
	skipped := 0
	for _, entry := range entries {
		if entry.Missing {
			skipped++
			continue
		}
		if _, err := os.Stat(entry.Path); err != nil {
			skipped++
			continue
		}
		queue = append(queue, entry)
	}
	return queue, skipped
}

// clearDevice deletes the snapshot's audio files and prunes any
// directories left empty. It returns the names still occupying the
// device root, so later copies avoid colliding with them.
func (e *Engine) clearDevice(snap device.Snapshot, summary *Summary) map[string]struct{} {
	taken := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, f := range snap.Files {
		path := filepath.Join(e.opts.MountPath, f.RelPath)
		if err := os.Remove(path); err != nil {
			e.logger.Warn("could not delete device file",
				logging.String("file", f.RelPath), logging.Error(err))
			taken[strings.ToLower(filepath.Base(f.RelPath))] = struct{}{}
			continue
		}
		summary.Deleted++
		if dir := filepath.Dir(f.RelPath); dir != "." {
			dirs[dir] = struct{}{}
		}
	}
	e.pruneDirs(dirs)
	return taken
}

// pruneDirs removes directories emptied by clearing, deepest first.
// Non-empty directories are left alone.
func (e *Engine) pruneDirs(dirs map[string]struct{}) {
	for dir := range dirs {
		for dir != "." && dir != string(filepath.Separator) {
			if err := os.Remove(filepath.Join(e.opts.MountPath, dir)); err != nil {
				break
			}
			dir = filepath.Dir(dir)
		}
	}
}

func (e *Engine) copyAll(ctx context.Context, queue []playlist.Entry, taken map[string]struct{}, required int64, summary *Summary) []copiedFile {
	var copied []copiedFile
	for i, entry := range queue {
		if ctx.Err() != nil {
			return copied
		}
		name := textutil.UniqueFileName(entry.FileName(), taken)
		taken[strings.ToLower(name)] = struct{}{}
		dst := filepath.Join(e.opts.MountPath, name)

		e.tick(Update{
			State: StateCopying, File: name,
			FilesDone: i, FilesTotal: len(queue),
			BytesDone: summary.BytesCopied, BytesTotal: required,
		})

		written, err := e.copyOne(ctx, entry.Path, dst)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{Name: name, Err: err})
			e.logger.Error("copy failed",
				logging.String("file", name), logging.Error(err))
			continue
		}
		summary.Copied++
		summary.BytesCopied += written
		copied = append(copied, copiedFile{src: entry.Path, dst: dst, size: written})

		e.tick(Update{
			State: StateCopying, File: name,
			FilesDone: i + 1, FilesTotal: len(queue),
			BytesDone: summary.BytesCopied, BytesTotal: required,
		})
	}
	return copied
}

type copiedFile struct {
	src string
	dst string
	// size is the byte count the verified copy observed, which equals the
	// source size at copy time.
	size int64
}

type copyResult struct {
	written int64
	err     error
}

// copyOne runs a verified copy under the configured per-file timeout. A
// stalled device write fails that file instead of hanging the run.
func (e *Engine) copyOne(ctx context.Context, src, dst string) (int64, error) {
	if e.opts.CopyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.CopyTimeout)
		defer cancel()
	}

	done := make(chan copyResult, 1)
	go func() {
		written, err := fileutil.CopyFileVerified(src, dst)
		done <- copyResult{written: written, err: err}
	}()

	select {
	case res := <-done:
		return res.written, res.err
	case <-ctx.Done():
		// The copy goroutine still owns dst; remove it once it lets go.
		go func() {
			<-done
			_ = os.Remove(dst)
		}()
		return 0, fmt.Errorf("copy %s: %w", filepath.Base(dst), ctx.Err())
	}
}

// verify re-stats every copied file on the device against the size the
// copy observed. A file that shrank or vanished between copy and verify is
// demoted to a failure, and the same byte count the copy added comes back
// out of the totals.
func (e *Engine) verify(copied []copiedFile, summary *Summary) {
	for _, f := range copied {
		info, err := os.Stat(f.dst)
		if err != nil || info.Size() != f.size {
			if err == nil {
				err = fmt.Errorf("device holds %d bytes, expected %d", info.Size(), f.size)
			}
			summary.Copied--
			summary.BytesCopied -= f.size
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				Name: filepath.Base(f.dst),
				Err:  fmt.Errorf("verification: %w", err),
			})
			e.logger.Error("verification failed",
				logging.String("file", filepath.Base(f.dst)), logging.Error(err))
		}
	}
}

func (e *Engine) setState(summary *Summary, state State, total int, bytesTotal int64) {
	summary.State = state
	e.logger.Debug("phase change", logging.String("state", string(state)))
	e.tick(Update{State: state, FilesTotal: total, BytesTotal: bytesTotal})
}

func (e *Engine) tick(update Update) {
	if e.progress != nil {
		e.progress(update)
	}
}

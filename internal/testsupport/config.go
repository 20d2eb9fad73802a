package testsupport

import (
	"path/filepath"
	"testing"

	"swimsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It creates one source root and a device mount directory under the test's
// temp dir and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Sources.Roots = []string{filepath.Join(base, "music")}
	cfg.Device.MountPath = filepath.Join(base, "device")
	cfg.Device.CapacityMB = 100
	cfg.Library.CachePath = filepath.Join(base, "cache", "library.db")
	cfg.Playlist.SessionPath = filepath.Join(base, "state", "session.json")
	cfg.Archive.Dir = filepath.Join(base, "archives")
	cfg.Logging.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRoots overrides the source roots on the test config.
func WithRoots(roots ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sources.Roots = roots
	}
}

// WithCapacityMB overrides the device capacity on the test config.
func WithCapacityMB(mb int64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Device.CapacityMB = mb
	}
}

// WithFormatPreference overrides the dedup format preference.
func WithFormatPreference(format string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Library.FormatPreference = format
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Sources contains the scan scope. Root order is significant: the first root
// has precedence rank 0 and wins dedup ties against later roots.
type Sources struct {
	Roots []string `toml:"roots"`
}

// Device contains the transfer target settings.
type Device struct {
	MountPath  string `toml:"mount_path"`
	CapacityMB int64  `toml:"capacity_mb"`
}

// Library contains catalog build settings.
type Library struct {
	FormatPreference string   `toml:"format_preference"`
	Extensions       []string `toml:"extensions"`
	CachePath        string   `toml:"cache_path"`
}

// Playlist contains playlist session persistence settings.
type Playlist struct {
	SessionPath string `toml:"session_path"`
}

// Archive contains device snapshot archive settings.
type Archive struct {
	Dir string `toml:"dir"`
}

// Transfer contains transfer engine tuning.
type Transfer struct {
	CopyTimeoutSeconds int `toml:"copy_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	LogDir string `toml:"log_dir"`
}

// Config encapsulates all configuration values for swimsync.
//
// Sections by subsystem:
//   - Sources: ordered scan roots (order defines precedence rank)
//   - Device: target mount path and capacity ceiling
//   - Library: format preference, extension allowlist, catalog cache path
//   - Playlist: session artifact path
//   - Archive: device snapshot archive directory
//   - Transfer: per-file copy timeout
//   - Logging: log format, level, and directory
type Config struct {
	Sources  Sources  `toml:"sources"`
	Device   Device   `toml:"device"`
	Library  Library  `toml:"library"`
	Playlist Playlist `toml:"playlist"`
	Archive  Archive  `toml:"archive"`
	Transfer Transfer `toml:"transfer"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/swimsync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return value
// is the resolved path and the third reports whether a file was actually read.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("swimsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the local state directories the tool writes to.
// Source roots and the device mount are external and never created here.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Logging.LogDir,
		c.Archive.Dir,
		filepath.Dir(c.Library.CachePath),
		filepath.Dir(c.Playlist.SessionPath),
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CapacityBytes returns the configured device capacity ceiling in bytes.
func (c *Config) CapacityBytes() int64 {
	return c.Device.CapacityMB * 1024 * 1024
}

// AllowedExtensions returns the extension allowlist as a lowercase set,
// shared by the scanner filter and the device clearing scope.
func (c *Config) AllowedExtensions() map[string]struct{} {
	set := make(map[string]struct{}, len(c.Library.Extensions))
	for _, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

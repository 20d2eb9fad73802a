package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSources(); err != nil {
		return err
	}
	if err := c.normalizeDevice(); err != nil {
		return err
	}
	if err := c.normalizeLibrary(); err != nil {
		return err
	}
	if err := c.normalizeStatePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSources() error {
	roots := make([]string, 0, len(c.Sources.Roots))
	for i, root := range c.Sources.Roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		expanded, err := expandPath(root)
		if err != nil {
			return fmt.Errorf("sources.roots[%d]: %w", i, err)
		}
		roots = append(roots, expanded)
	}
	c.Sources.Roots = roots
	return nil
}

func (c *Config) normalizeDevice() error {
	c.Device.MountPath = strings.TrimSpace(c.Device.MountPath)
	if c.Device.MountPath == "" {
		return nil
	}
	expanded, err := expandPath(c.Device.MountPath)
	if err != nil {
		return fmt.Errorf("device.mount_path: %w", err)
	}
	c.Device.MountPath = expanded
	return nil
}

func (c *Config) normalizeLibrary() error {
	c.Library.FormatPreference = strings.ToLower(strings.TrimSpace(c.Library.FormatPreference))
	if c.Library.FormatPreference == "" {
		c.Library.FormatPreference = defaultFormatPreference
	}

	if len(c.Library.Extensions) == 0 {
		c.Library.Extensions = defaultExtensions()
	}
	exts := make([]string, 0, len(c.Library.Extensions))
	for _, ext := range c.Library.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Library.Extensions = exts

	if strings.TrimSpace(c.Library.CachePath) == "" {
		c.Library.CachePath = defaultCachePath
	}
	expanded, err := expandPath(c.Library.CachePath)
	if err != nil {
		return fmt.Errorf("library.cache_path: %w", err)
	}
	c.Library.CachePath = expanded
	return nil
}

func (c *Config) normalizeStatePaths() error {
	if strings.TrimSpace(c.Playlist.SessionPath) == "" {
		c.Playlist.SessionPath = defaultSessionPath
	}
	expanded, err := expandPath(c.Playlist.SessionPath)
	if err != nil {
		return fmt.Errorf("playlist.session_path: %w", err)
	}
	c.Playlist.SessionPath = expanded

	if strings.TrimSpace(c.Archive.Dir) == "" {
		c.Archive.Dir = defaultArchiveDir
	}
	if c.Archive.Dir, err = expandPath(c.Archive.Dir); err != nil {
		return fmt.Errorf("archive.dir: %w", err)
	}

	if c.Transfer.CopyTimeoutSeconds <= 0 {
		c.Transfer.CopyTimeoutSeconds = defaultCopyTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.LogDir) != "" {
		if expanded, err := expandPath(c.Logging.LogDir); err == nil {
			c.Logging.LogDir = expanded
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"swimsync/internal/catalog"
	"swimsync/internal/config"
	"swimsync/internal/library"
	"swimsync/internal/logging"
	"swimsync/internal/metadata"
	"swimsync/internal/playlist"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) log() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// libraryIndex returns the deduplicated catalog, loading it from the
// SQLite cache when the source roots are unchanged and rescanning
// otherwise. The boolean reports whether the cache was used.
func (c *commandContext) libraryIndex(ctx context.Context, forceRescan bool, progress library.ScanProgress) (*library.Index, bool, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, false, err
	}
	allowed := cfg.AllowedExtensions()
	current := library.FingerprintRoots(cfg.Sources.Roots, allowed)

	store, err := catalog.Open(cfg.Library.CachePath)
	if err != nil {
		return nil, false, fmt.Errorf("open catalog cache: %w", err)
	}
	defer store.Close()

	if !forceRescan {
		valid, err := store.Valid(ctx, current)
		if err != nil {
			return nil, false, err
		}
		if valid {
			groups, err := store.Groups(ctx)
			if err == nil {
				return library.BuildIndex(groups), true, nil
			}
			c.log().Warn("catalog cache unreadable, rescanning", logging.Error(err))
		}
	}

	preference, ok := library.ParseFormat(cfg.Library.FormatPreference)
	if !ok {
		return nil, false, fmt.Errorf("format preference %q", cfg.Library.FormatPreference)
	}

	extractor := metadata.NewExtractor(c.log())
	scanner := library.NewScanner(cfg.Sources.Roots, allowed, extractor, c.log())
	scanner.Progress = progress

	tracks, fingerprints, _, err := scanner.Scan(ctx)
	if err != nil {
		return nil, false, err
	}

	groups := library.Deduplicate(tracks, preference)
	if err := store.Replace(ctx, groups, fingerprints); err != nil {
		c.log().Warn("catalog cache write failed", logging.Error(err))
	}
	return library.BuildIndex(groups), false, nil
}

func (c *commandContext) loadPlaylist() (*playlist.Accumulator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return playlist.Load(cfg.Playlist.SessionPath, c.log())
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

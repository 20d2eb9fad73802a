package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateDevice(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.Sources.Roots) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/swimsync/config.toml"
		}
		return fmt.Errorf("sources.roots must list at least one directory; edit %s (create with 'swimsync config init')", defaultPath)
	}
	seen := make(map[string]struct{}, len(c.Sources.Roots))
	for _, root := range c.Sources.Roots {
		if _, dup := seen[root]; dup {
			return fmt.Errorf("sources.roots lists %q more than once", root)
		}
		seen[root] = struct{}{}
	}
	return nil
}

func (c *Config) validateDevice() error {
	if c.Device.MountPath == "" {
		return errors.New("device.mount_path must be set")
	}
	if c.Device.CapacityMB <= 0 {
		return errors.New("device.capacity_mb must be positive")
	}
	return nil
}

func (c *Config) validateLibrary() error {
	switch c.Library.FormatPreference {
	case "mp3", "aac":
	default:
		return fmt.Errorf("library.format_preference must be \"mp3\" or \"aac\", got %q", c.Library.FormatPreference)
	}
	if len(c.Library.Extensions) == 0 {
		return errors.New("library.extensions must list at least one extension")
	}
	return nil
}

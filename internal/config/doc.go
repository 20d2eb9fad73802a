// Package config loads, normalizes, and validates swimsync configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// CLI needs: ordered source roots, the device mount path and capacity ceiling,
// the format preference that drives deduplication, and the extension allowlist
// shared by scanning and device clearing.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension sets, and clear validation errors.
package config

// Package catalog persists the deduplicated library between runs.
//
// The cache is a small SQLite database holding every track (representatives
// and variants, with group ordering preserved), the per-root fingerprints the
// catalog was built from, and a capture timestamp. A cache is valid only when
// fingerprints recomputed from the current source roots match the stored
// ones; anything else forces a full rescan and rewrite.
package catalog

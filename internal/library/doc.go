// Package library turns files on disk into a canonical, queryable catalog.
//
// The Scanner walks the configured source roots in order, filters by the
// extension allowlist, and extracts metadata with a bounded worker pool while
// preserving deterministic record order. Deduplicate groups the raw records
// by canonical identity, the normalized (artist, album, title) triple, and
// picks one representative per group by format preference, source-root
// precedence, and lexical path. The Index serves substring and exact queries
// over representatives and a summary precomputed at build time.
//
// Root fingerprints (file count plus newest modification time) let callers
// decide whether a persisted catalog is still valid without rescanning.
package library

// Package logging wires log/slog with the console and JSON handlers swimsync
// uses. The console handler prints compact single-line records with an
// optional component tag and colors levels when attached to a terminal; the
// JSON handler emits machine-readable records for log files.
package logging

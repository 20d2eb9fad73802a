package textutil

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// nonAlphanumericPattern matches runs of anything that is not a letter or digit.
var nonAlphanumericPattern = regexp.MustCompile(`[^\p{L}\p{N}]+`)

var keyFolder = cases.Fold()

// NormalizeKey canonicalizes a metadata value for identity comparison:
// Unicode case folding, whitespace trimming, and punctuation runs collapsed
// to single spaces. "Don't Stop  Me Now!" and "dont stop me now" normalize
// to the same key.
func NormalizeKey(value string) string {
	folded := keyFolder.String(value)
	collapsed := nonAlphanumericPattern.ReplaceAllString(folded, " ")
	return strings.TrimSpace(collapsed)
}

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// UniqueFileName returns name, or name with a numeric suffix before the
// extension when name is already taken. Membership is checked case
// insensitively; the caller records the returned value via the same rule.
func UniqueFileName(name string, taken map[string]struct{}) string {
	if _, exists := taken[strings.ToLower(name)]; !exists {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for counter := 1; ; counter++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, counter, ext)
		if _, exists := taken[strings.ToLower(candidate)]; !exists {
			return candidate
		}
	}
}

package metadata

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"swimsync/internal/logging"
)

// UnknownGenre is the sentinel used when a file carries no genre tag.
const UnknownGenre = "Unknown"

// Tags holds the textual metadata extracted from one audio file.
type Tags struct {
	Title  string
	Artist string
	Album  string
	Genre  string
}

// UnreadableError reports that a file's tags could not be read and that the
// returned Tags were synthesized from the filename instead.
type UnreadableError struct {
	Path string
	Err  error
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("unreadable tags in %s: %v", e.Path, e.Err)
}

func (e *UnreadableError) Unwrap() error { return e.Err }

// Extractor reads per-file tag metadata.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor creates a metadata extractor. A nil logger disables logging.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logging.NewComponentLogger(logger, "metadata")}
}

// Extract reads tags from the file at path. The returned Tags are always
// usable: when the file cannot be opened or parsed, or when required fields
// are missing, values are synthesized from filename tokens and the error (an
// *UnreadableError for open/parse failures) says why. Genre absence is
// normalized to UnknownGenre, never left empty.
func (e *Extractor) Extract(path string) (Tags, error) {
	file, err := os.Open(path)
	if err != nil {
		return fallbackTags(path), &UnreadableError{Path: path, Err: err}
	}
	defer file.Close()

	meta, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.Debug("tag read failed, using filename tokens",
			logging.String("path", path), logging.Error(err))
		return fallbackTags(path), &UnreadableError{Path: path, Err: err}
	}

	tags := Tags{
		Title:  strings.TrimSpace(meta.Title()),
		Artist: strings.TrimSpace(meta.Artist()),
		Album:  strings.TrimSpace(meta.Album()),
		Genre:  strings.TrimSpace(meta.Genre()),
	}

	fallback := fallbackTags(path)
	if tags.Title == "" {
		tags.Title = fallback.Title
	}
	if tags.Artist == "" {
		tags.Artist = fallback.Artist
	}
	if tags.Album == "" {
		tags.Album = fallback.Album
	}
	if tags.Genre == "" {
		tags.Genre = UnknownGenre
	}
	return tags, nil
}

// fallbackTags derives metadata from the filename. Names shaped like
// "Artist - Title" are split on the first separator; anything else becomes
// the title with unknown artist and album.
func fallbackTags(path string) Tags {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	tags := Tags{
		Title:  stem,
		Artist: "Unknown Artist",
		Album:  "Unknown Album",
		Genre:  UnknownGenre,
	}

	if parts := strings.SplitN(stem, " - ", 2); len(parts) == 2 {
		artist := strings.TrimSpace(parts[0])
		title := strings.TrimSpace(parts[1])
		if artist != "" && title != "" {
			tags.Artist = artist
			tags.Title = title
		}
	}
	return tags
}

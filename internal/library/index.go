package library

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a searchable track attribute.
type Field string

const (
	FieldTitle  Field = "title"
	FieldArtist Field = "artist"
	FieldAlbum  Field = "album"
	FieldGenre  Field = "genre"
)

// ParseField converts user input into a Field.
func ParseField(value string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(value))) {
	case FieldTitle:
		return FieldTitle, nil
	case FieldArtist:
		return FieldArtist, nil
	case FieldAlbum:
		return FieldAlbum, nil
	case FieldGenre:
		return FieldGenre, nil
	default:
		return "", fmt.Errorf("unknown field %q (want title, artist, album, or genre)", value)
	}
}

func (f Field) valueOf(t Track) string {
	switch f {
	case FieldTitle:
		return t.Title
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	case FieldGenre:
		return t.Genre
	default:
		return ""
	}
}

// NameCount pairs a value with its occurrence count, for summary rankings.
type NameCount struct {
	Name  string
	Count int
}

// Summary holds catalog statistics precomputed once at index build time.
type Summary struct {
	TrackCount   int
	TotalSize    int64
	UniqueArtist int
	UniqueAlbum  int
	UniqueGenre  int
	TopArtists   []NameCount
	TopGenres    []NameCount
}

// topN is how many leading artists/genres the summary ranks.
const topN = 5

// Index is the deduplicated catalog. Built once per scan or cache load and
// read-only afterwards until the next rebuild.
type Index struct {
	groups     []Group
	byIdentity map[Identity]int
	byPath     map[string]int
	summary    Summary
}

// BuildIndex assembles an index from deduplicated groups. Construction never
// fails on individual records; bad files were filtered upstream.
func BuildIndex(groups []Group) *Index {
	idx := &Index{
		groups:     groups,
		byIdentity: make(map[Identity]int, len(groups)),
		byPath:     make(map[string]int, len(groups)),
	}
	for i, group := range groups {
		idx.byIdentity[group.Representative.Identity()] = i
		idx.byPath[group.Representative.Path] = i
		for _, variant := range group.Variants {
			if _, taken := idx.byPath[variant.Path]; !taken {
				idx.byPath[variant.Path] = i
			}
		}
	}
	idx.summary = buildSummary(groups)
	return idx
}

// Tracks returns every representative in (artist, album, title) order.
func (idx *Index) Tracks() []Track {
	out := make([]Track, len(idx.groups))
	for i, group := range idx.groups {
		out[i] = group.Representative
	}
	return out
}

// Len returns the number of canonical tracks.
func (idx *Index) Len() int { return len(idx.groups) }

// Search returns representatives whose field contains the substring, case
// insensitively, ordered by (artist, album, title). An empty result is a
// normal outcome, not an error.
func (idx *Index) Search(field Field, substring string) []Track {
	needle := strings.ToLower(strings.TrimSpace(substring))
	if needle == "" {
		return nil
	}
	var out []Track
	for _, group := range idx.groups {
		if strings.Contains(strings.ToLower(field.valueOf(group.Representative)), needle) {
			out = append(out, group.Representative)
		}
	}
	return out
}

// Exact returns representatives whose field equals the value, ignoring case
// and surrounding whitespace.
func (idx *Index) Exact(field Field, value string) []Track {
	want := strings.TrimSpace(value)
	var out []Track
	for _, group := range idx.groups {
		if strings.EqualFold(strings.TrimSpace(field.valueOf(group.Representative)), want) {
			out = append(out, group.Representative)
		}
	}
	return out
}

// ByIdentity returns the group for a canonical identity.
func (idx *Index) ByIdentity(id Identity) (Group, bool) {
	i, ok := idx.byIdentity[id]
	if !ok {
		return Group{}, false
	}
	return idx.groups[i], true
}

// ResolvePath returns the representative for a source path. Variant paths
// resolve to their group's representative.
func (idx *Index) ResolvePath(path string) (Track, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return Track{}, false
	}
	return idx.groups[i].Representative, true
}

// Groups returns the full catalog including variants, in listing order.
func (idx *Index) Groups() []Group {
	return idx.groups
}

// Summary returns the statistics precomputed at build time.
func (idx *Index) Summary() Summary {
	return idx.summary
}

func buildSummary(groups []Group) Summary {
	summary := Summary{TrackCount: len(groups)}

	artists := make(map[string]int)
	albums := make(map[string]struct{})
	genres := make(map[string]int)

	for _, group := range groups {
		rep := group.Representative
		summary.TotalSize += rep.Size
		artists[rep.Artist]++
		albums[rep.Album] = struct{}{}
		genres[rep.Genre]++
	}

	summary.UniqueArtist = len(artists)
	summary.UniqueAlbum = len(albums)
	summary.UniqueGenre = len(genres)
	summary.TopArtists = rankCounts(artists, topN)
	summary.TopGenres = rankCounts(genres, topN)
	return summary
}

func rankCounts(counts map[string]int, limit int) []NameCount {
	ranked := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

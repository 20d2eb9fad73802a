package library

import "sort"

// Group holds one canonical recording: the representative chosen for search
// and playlists plus every non-chosen variant, retained but excluded from
// default listings.
type Group struct {
	Representative Track
	Variants       []Track
}

// Deduplicate collapses raw scan records into one Group per canonical
// identity. Representative selection within a group, in strict priority
// order: the preferred format wins; on a tie the lower source-root rank wins;
// on a tie the lexically smaller source path wins. Group members are sorted
// canonically first, so the outcome is reproducible for identical inputs no
// matter how the filesystem iterated.
func Deduplicate(tracks []Track, preferred Format) []Group {
	byIdentity := make(map[Identity][]Track)
	order := make([]Identity, 0, len(tracks))

	for _, track := range tracks {
		id := track.Identity()
		if _, seen := byIdentity[id]; !seen {
			order = append(order, id)
		}
		byIdentity[id] = append(byIdentity[id], track)
	}

	groups := make([]Group, 0, len(order))
	for _, id := range order {
		members := byIdentity[id]
		sortGroupMembers(members, preferred)
		groups = append(groups, Group{
			Representative: members[0],
			Variants:       members[1:],
		})
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return representativeLess(groups[i].Representative, groups[j].Representative)
	})
	return groups
}

func sortGroupMembers(members []Track, preferred Format) {
	sort.SliceStable(members, func(i, j int) bool {
		iPref := members[i].Format == preferred
		jPref := members[j].Format == preferred
		if iPref != jPref {
			return iPref
		}
		if members[i].RootRank != members[j].RootRank {
			return members[i].RootRank < members[j].RootRank
		}
		return members[i].Path < members[j].Path
	})
}

// representativeLess orders representatives by normalized (artist, album,
// title), the listing order the index serves.
func representativeLess(a, b Track) bool {
	ai, bi := a.Identity(), b.Identity()
	if ai.Artist != bi.Artist {
		return ai.Artist < bi.Artist
	}
	if ai.Album != bi.Album {
		return ai.Album < bi.Album
	}
	if ai.Title != bi.Title {
		return ai.Title < bi.Title
	}
	return a.Path < b.Path
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package tmdb

import "strings"

// genreIDs maps lowercase genre names to TMDB genre ids. These ids are
// stable in the TMDB API and are not fetched at runtime.
var genreIDs = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

// GenreID returns the TMDB id for a genre name, case-insensitively.
// The second return is false for unknown genres.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// GenreIDs maps genre names to TMDB ids, silently skipping unknown names.
func GenreIDs(names []string) []int {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		if id, ok := GenreID(name); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// GenreName returns the genre name for a TMDB id, or "" when unknown.
func GenreName(id int) string {
	for name, gid := range genreIDs {
		if gid == id {
			return name
		}
	}
	return ""
}

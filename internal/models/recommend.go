// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package models

// Candidate is a raw textual suggestion parsed from generator output,
// before catalog enrichment. Scoped to one generation attempt.
type Candidate struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

// EnrichedItem is a candidate resolved against the movie catalog.
type EnrichedItem struct {
	TMDBID      int64   `json:"tmdb_id"`
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// GenerationRun records the statistics of one orchestrator invocation.
// Read-only after return.
type GenerationRun struct {
	AttemptsUsed       int    `json:"attempts_used"`
	GeneratedTotal     int    `json:"generated_total"`
	AcceptedTotal      int    `json:"accepted_total"`
	FilteredWatched    int    `json:"filtered_watched"`
	FilteredDuplicate  int    `json:"filtered_duplicate"`
	FilteredLowQuality int    `json:"filtered_low_quality"`
	Succeeded          bool   `json:"succeeded"`
	Error              string `json:"error,omitempty"`
}

// GenerationConfig is a user's stored list-generation preferences,
// persisted so the nightly updater can rerun generation unattended.
type GenerationConfig struct {
	Username  string   `json:"username"`
	ListName  string   `json:"list_name"`
	Window    string   `json:"window"`
	Genres    []string `json:"genres,omitempty"`
	ListLimit int      `json:"list_limit"`
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package models defines the shared domain types: watch history entries,
// generation candidates, enriched catalog items, and run statistics.
package models

import (
	"fmt"
	"time"
)

// EntryKind distinguishes real observed history from entries fabricated
// between generation attempts to steer the next prompt.
type EntryKind string

const (
	// EntryObserved is a real watch event fetched from Trakt.
	EntryObserved EntryKind = "observed"

	// EntrySynthesized is a phantom entry representing a prior suggestion.
	// Synthesized entries carry no catalog ids.
	EntrySynthesized EntryKind = "synthesized"
)

// HistoryEntry is one watched (or synthesized) movie. Immutable once created.
type HistoryEntry struct {
	Kind EntryKind `json:"kind"`

	// TraktID and TMDBID are zero for synthesized entries.
	TraktID int64 `json:"trakt_id,omitempty"`
	TMDBID  int64 `json:"tmdb_id,omitempty"`

	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Genres    []string  `json:"genres,omitempty"`
	WatchedAt time.Time `json:"watched_at"`
}

// NewSynthesizedEntry fabricates a history entry for a suggestion that was
// already made, so subsequent prompts avoid repeating it.
func NewSynthesizedEntry(title string, year int) HistoryEntry {
	return HistoryEntry{
		Kind:      EntrySynthesized,
		Title:     title,
		Year:      year,
		WatchedAt: time.Now().UTC(),
	}
}

// Identity returns the dedup key for the entry: the Trakt id when the
// entry was observed, otherwise title plus year, because synthesized
// entries carry no ids.
func (e HistoryEntry) Identity() string {
	if e.Kind == EntryObserved && e.TraktID != 0 {
		return fmt.Sprintf("trakt:%d", e.TraktID)
	}
	return fmt.Sprintf("title:%s (%d)", e.Title, e.Year)
}

// CachedHistory is the per-user durable history record. Entries keep
// fetch order, which is not necessarily chronological.
type CachedHistory struct {
	Owner   string         `json:"owner"`
	Entries []HistoryEntry `json:"entries"`

	// LastFetchTime is the maximum WatchedAt across all observed
	// entries, nil before the first successful fetch.
	LastFetchTime *time.Time `json:"last_fetch_time,omitempty"`

	CachedAt time.Time `json:"cached_at"`
}

// Identities returns the set of dedup keys present in the cache.
func (c *CachedHistory) Identities() map[string]struct{} {
	ids := make(map[string]struct{}, len(c.Entries))
	for _, e := range c.Entries {
		ids[e.Identity()] = struct{}{}
	}
	return ids
}

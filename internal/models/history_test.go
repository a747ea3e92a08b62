// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package models

import (
	"testing"
	"time"
)

func TestIdentityObserved(t *testing.T) {
	e := HistoryEntry{Kind: EntryObserved, TraktID: 42, Title: "Alien", Year: 1979}
	if got := e.Identity(); got != "trakt:42" {
		t.Errorf("Identity() = %q, want trakt:42", got)
	}
}

func TestIdentitySynthesized(t *testing.T) {
	e := NewSynthesizedEntry("Moon", 2009)
	if e.Kind != EntrySynthesized {
		t.Errorf("Kind = %q, want %q", e.Kind, EntrySynthesized)
	}
	if e.TraktID != 0 || e.TMDBID != 0 {
		t.Error("synthesized entry must not carry catalog ids")
	}
	if got := e.Identity(); got != "title:Moon (2009)" {
		t.Errorf("Identity() = %q, want title:Moon (2009)", got)
	}
}

func TestIdentityObservedWithoutID(t *testing.T) {
	// observed entries missing an id still dedup by title/year
	e := HistoryEntry{Kind: EntryObserved, Title: "Stalker", Year: 1979}
	if got := e.Identity(); got != "title:Stalker (1979)" {
		t.Errorf("Identity() = %q, want title:Stalker (1979)", got)
	}
}

func TestCachedHistoryIdentities(t *testing.T) {
	now := time.Now()
	cache := CachedHistory{
		Owner: "alice",
		Entries: []HistoryEntry{
			{Kind: EntryObserved, TraktID: 1, TMDBID: 100, Title: "A", WatchedAt: now},
			{Kind: EntryObserved, TraktID: 2, TMDBID: 200, Title: "B", WatchedAt: now},
			NewSynthesizedEntry("C", 2020),
		},
	}

	ids := cache.Identities()
	if len(ids) != 3 {
		t.Errorf("Identities len = %d, want 3", len(ids))
	}
	for _, want := range []string{"trakt:1", "trakt:2", "title:C (2020)"} {
		if _, ok := ids[want]; !ok {
			t.Errorf("Identities missing %q", want)
		}
	}
}

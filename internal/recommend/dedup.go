// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package recommend

// dedupTracker is the per-run set of accepted catalog ids. It is not
// safe for concurrent use; each generation run owns its own tracker.
type dedupTracker struct {
	seen map[int64]struct{}
}

func newDedupTracker() *dedupTracker {
	return &dedupTracker{seen: make(map[int64]struct{})}
}

// accept registers the id and returns true if it was not already
// present, false for a duplicate.
func (d *dedupTracker) accept(tmdbID int64) bool {
	if _, ok := d.seen[tmdbID]; ok {
		return false
	}
	d.seen[tmdbID] = struct{}{}
	return true
}

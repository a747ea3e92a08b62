// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package history

import "time"

// windowDays maps the lookback periods offered by the UI to day counts.
var windowDays = map[string]int{
	"1 day":    1,
	"1 week":   7,
	"1 month":  30,
	"3 months": 90,
}

// defaultWindowDays is used for unrecognized periods.
const defaultWindowDays = 30

// WindowDuration converts a human-readable lookback period to a
// duration. Unknown periods fall back to one month.
func WindowDuration(period string) time.Duration {
	days, ok := windowDays[period]
	if !ok {
		days = defaultWindowDays
	}
	return time.Duration(days) * 24 * time.Hour
}

// KnownWindows lists the accepted lookback periods.
func KnownWindows() []string {
	return []string{"1 day", "1 week", "1 month", "3 months"}
}

// ValidWindow reports whether period is one of the accepted lookbacks.
func ValidWindow(period string) bool {
	_, ok := windowDays[period]
	return ok
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package trakt

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cinefill/cinefill/internal/models"
)

// historyItem is the wire shape of one /history/movies row.
type historyItem struct {
	WatchedAt time.Time `json:"watched_at"`
	Type      string    `json:"type"`
	Movie     struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			Trakt int64  `json:"trakt"`
			TMDB  int64  `json:"tmdb"`
			IMDB  string `json:"imdb"`
			Slug  string `json:"slug"`
		} `json:"ids"`
		Genres []string `json:"genres"`
	} `json:"movie"`
}

// HistoryPage fetches one page of the user's movie watch history. A nil
// since fetches from the beginning of time; otherwise only events at or
// after since are returned. A short or empty page signals end-of-data.
func (c *Client) HistoryPage(ctx context.Context, username string, since *time.Time, page, pageSize int) ([]models.HistoryEntry, error) {
	params := url.Values{}
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("limit", fmt.Sprintf("%d", pageSize))
	if since != nil {
		params.Set("start_at", since.UTC().Format(time.RFC3339))
	}

	path := fmt.Sprintf("/users/%s/history/movies?%s", url.PathEscape(username), params.Encode())

	var items []historyItem
	if err := c.do(ctx, username, http.MethodGet, path, "history", nil, &items); err != nil {
		return nil, err
	}

	entries := make([]models.HistoryEntry, 0, len(items))
	for _, item := range items {
		if item.Movie.Title == "" {
			continue
		}
		entries = append(entries, models.HistoryEntry{
			Kind:      models.EntryObserved,
			TraktID:   item.Movie.IDs.Trakt,
			TMDBID:    item.Movie.IDs.TMDB,
			Title:     item.Movie.Title,
			Year:      item.Movie.Year,
			Genres:    item.Movie.Genres,
			WatchedAt: item.WatchedAt,
		})
	}
	return entries, nil
}

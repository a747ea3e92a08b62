// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package trakt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// listSummary is the wire shape of one entry in /users/{user}/lists.
type listSummary struct {
	Name string `json:"name"`
	IDs  struct {
		Trakt int64  `json:"trakt"`
		Slug  string `json:"slug"`
	} `json:"ids"`
}

// listItem is the wire shape of one entry in a list's /items response.
type listItem struct {
	Type  string `json:"type"`
	Movie struct {
		Title string `json:"title"`
		Year  int    `json:"year"`
		IDs   struct {
			Trakt int64 `json:"trakt"`
			TMDB  int64 `json:"tmdb"`
		} `json:"ids"`
	} `json:"movie"`
}

// moviesPayload is the request body for list item add/remove calls.
type moviesPayload struct {
	Movies []movieRef `json:"movies"`
}

type movieRef struct {
	IDs struct {
		TMDB int64 `json:"tmdb"`
	} `json:"ids"`
}

func newMoviesPayload(tmdbIDs []int64) moviesPayload {
	payload := moviesPayload{Movies: make([]movieRef, 0, len(tmdbIDs))}
	for _, id := range tmdbIDs {
		var ref movieRef
		ref.IDs.TMDB = id
		payload.Movies = append(payload.Movies, ref)
	}
	return payload
}

// AddResult reports the remote side's accounting of an add-items call.
// These counts, not the request size, are the source of truth for success.
type AddResult struct {
	Added    int
	Existing int
	NotFound int
}

// addItemsResponse is the wire shape of the items add response.
type addItemsResponse struct {
	Added struct {
		Movies int `json:"movies"`
	} `json:"added"`
	Existing struct {
		Movies int `json:"movies"`
	} `json:"existing"`
	NotFound struct {
		Movies []movieRef `json:"movies"`
	} `json:"not_found"`
}

// FindListByName returns the id of the user's list with an exact name
// match, or ErrNotFound.
func (c *Client) FindListByName(ctx context.Context, username, name string) (int64, error) {
	path := fmt.Sprintf("/users/%s/lists", url.PathEscape(username))

	var lists []listSummary
	if err := c.do(ctx, username, http.MethodGet, path, "lists", nil, &lists); err != nil {
		return 0, err
	}

	for _, l := range lists {
		if l.Name == name {
			return l.IDs.Trakt, nil
		}
	}
	return 0, ErrNotFound
}

// CreateList creates a private, rank-sorted list with comments disabled
// and returns its id.
func (c *Client) CreateList(ctx context.Context, username, name string) (int64, error) {
	body := map[string]any{
		"name":            name,
		"description":     "AI-generated movie recommendations based on your watch history",
		"privacy":         "private",
		"display_numbers": true,
		"allow_comments":  false,
		"sort_by":         "rank",
		"sort_how":        "asc",
	}

	path := fmt.Sprintf("/users/%s/lists", url.PathEscape(username))

	var created listSummary
	if err := c.do(ctx, username, http.MethodPost, path, "create_list", body, &created); err != nil {
		return 0, err
	}
	if created.IDs.Trakt == 0 {
		return 0, fmt.Errorf("trakt: create list response missing id")
	}
	return created.IDs.Trakt, nil
}

// ListItems returns the TMDB ids of the movies currently on the list.
// Items without a TMDB id are skipped.
func (c *Client) ListItems(ctx context.Context, username string, listID int64) ([]int64, error) {
	path := fmt.Sprintf("/users/%s/lists/%d/items/movies", url.PathEscape(username), listID)

	var items []listItem
	err := c.do(ctx, username, http.MethodGet, path, "list_items", nil, &items)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.Movie.IDs.TMDB != 0 {
			ids = append(ids, item.Movie.IDs.TMDB)
		}
	}
	return ids, nil
}

// AddItems adds the movies with the given TMDB ids to the list and
// returns the remote side's added/existing/not-found counts.
func (c *Client) AddItems(ctx context.Context, username string, listID int64, tmdbIDs []int64) (AddResult, error) {
	if len(tmdbIDs) == 0 {
		return AddResult{}, nil
	}

	path := fmt.Sprintf("/users/%s/lists/%d/items", url.PathEscape(username), listID)

	var resp addItemsResponse
	if err := c.do(ctx, username, http.MethodPost, path, "add_items", newMoviesPayload(tmdbIDs), &resp); err != nil {
		return AddResult{}, err
	}

	return AddResult{
		Added:    resp.Added.Movies,
		Existing: resp.Existing.Movies,
		NotFound: len(resp.NotFound.Movies),
	}, nil
}

// RemoveItems removes the movies with the given TMDB ids from the list.
func (c *Client) RemoveItems(ctx context.Context, username string, listID int64, tmdbIDs []int64) error {
	if len(tmdbIDs) == 0 {
		return nil
	}

	path := fmt.Sprintf("/users/%s/lists/%d/items/remove", url.PathEscape(username), listID)
	return c.do(ctx, username, http.MethodPost, path, "remove_items", newMoviesPayload(tmdbIDs), nil)
}

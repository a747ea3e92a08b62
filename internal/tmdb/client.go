// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package tmdb implements the TMDB movie search client used to resolve
// free-text titles into catalog records with popularity and vote data.
// Requests are rate limited client-side and guarded by a circuit breaker.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/upstream"
)

// ErrNotFound is returned when a search yields no results. An unresolved
// title is an expected outcome, not a failure.
var ErrNotFound = errors.New("tmdb: no results")

// Client talks to the TMDB v3 API.
type Client struct {
	cfg     *config.TMDBConfig
	client  *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[any]
	logger  zerolog.Logger
}

// NewClient builds a TMDB client with the configured rate limit.
func NewClient(cfg *config.TMDBConfig) *Client {
	return &Client{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		cb:      upstream.NewBreaker("tmdb"),
		logger:  logging.WithComponent("tmdb"),
	}
}

// searchResponse is the wire shape of /search/movie.
type searchResponse struct {
	Results []struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		ReleaseDate string  `json:"release_date"`
		GenreIDs    []int   `json:"genre_ids"`
		Popularity  float64 `json:"popularity"`
		VoteAverage float64 `json:"vote_average"`
		VoteCount   int     `json:"vote_count"`
	} `json:"results"`
}

// Search resolves a title (optionally constrained to a release year) to
// the first matching catalog record. Returns ErrNotFound on zero results.
func (c *Client) Search(ctx context.Context, title string, year int) (*models.EnrichedItem, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("query", title)
	params.Set("language", "en-US")
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	reqURL := c.cfg.BaseURL + "/search/movie?" + params.Encode()

	start := time.Now()
	result, err := c.cb.Execute(func() (any, error) {
		return c.search(ctx, reqURL)
	})
	metrics.RecordUpstreamRequest("tmdb", "search", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("tmdb search for %q failed: %w", title, err)
	}

	resp := result.(*searchResponse)
	if len(resp.Results) == 0 {
		return nil, ErrNotFound
	}

	first := resp.Results[0]
	item := &models.EnrichedItem{
		TMDBID:      first.ID,
		Title:       first.Title,
		Year:        releaseYear(first.ReleaseDate),
		GenreIDs:    first.GenreIDs,
		Popularity:  first.Popularity,
		VoteAverage: first.VoteAverage,
		VoteCount:   first.VoteCount,
	}

	c.logger.Debug().
		Str("query", title).
		Int64("tmdb_id", item.TMDBID).
		Float64("popularity", item.Popularity).
		Msg("resolved title")
	return item, nil
}

func (c *Client) search(ctx context.Context, reqURL string) (*searchResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, upstream.ReadBodyForError(resp.Body))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &sr, nil
}

// releaseYear extracts the year from a YYYY-MM-DD release date.
func releaseYear(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package history maintains the per-user durable watch-history cache.
// Every read first refreshes the cache incrementally, fetching only
// entries newer than the last fetch time, so the cache converges to the
// true history over repeated reads without refetching everything.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/store"
)

// Provider fetches one page of a user's watch history. A nil since means
// unbounded; a short or empty page signals end-of-data.
type Provider interface {
	HistoryPage(ctx context.Context, username string, since *time.Time, page, pageSize int) ([]models.HistoryEntry, error)
}

// Options tunes the cache's pagination ceilings and record TTL.
type Options struct {
	Namespace string

	// TTL is measured from each write, regardless of entry age.
	TTL time.Duration

	PageSize            int
	MaxFullPages        int
	MaxIncrementalPages int
}

// Cache is the per-user history cache.
type Cache struct {
	provider Provider
	store    store.Store
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCache builds a history cache on the given provider and store.
func NewCache(provider Provider, st store.Store, opts Options) *Cache {
	return &Cache{
		provider: provider,
		store:    st,
		opts:     opts,
		logger:   logging.WithComponent("history"),
		now:      time.Now,
	}
}

func (c *Cache) key(username string) store.Key {
	return store.Key{Namespace: c.opts.Namespace, Kind: "history", Owner: username}
}

// Recent returns the cached entries watched within window of now,
// refreshing the cache first. A missing cache triggers a full fetch.
func (c *Cache) Recent(ctx context.Context, username string, window time.Duration) ([]models.HistoryEntry, error) {
	cached, err := c.refresh(ctx, username)
	if err != nil {
		return nil, err
	}

	cutoff := c.now().Add(-window)
	var recent []models.HistoryEntry
	for _, e := range cached.Entries {
		if !e.WatchedAt.Before(cutoff) {
			recent = append(recent, e)
		}
	}
	return recent, nil
}

// Complete returns every cached entry, refreshing the cache first.
func (c *Cache) Complete(ctx context.Context, username string) ([]models.HistoryEntry, error) {
	cached, err := c.refresh(ctx, username)
	if err != nil {
		return nil, err
	}
	return cached.Entries, nil
}

// Invalidate drops the user's cache record.
func (c *Cache) Invalidate(ctx context.Context, username string) error {
	return c.store.Delete(ctx, c.key(username))
}

// refresh loads the user's cache, merging in anything newer than the last
// fetch. A missing record triggers a full fetch. The refreshed record is
// persisted with the configured TTL measured from this write.
func (c *Cache) refresh(ctx context.Context, username string) (*models.CachedHistory, error) {
	var cached models.CachedHistory
	err := c.store.Get(ctx, c.key(username), &cached)

	switch {
	case errors.Is(err, store.ErrKeyNotFound):
		metrics.HistoryCacheMisses.Inc()
		cached = models.CachedHistory{Owner: username}
		c.merge(ctx, &cached, nil, c.opts.MaxFullPages)
	case err != nil:
		return nil, fmt.Errorf("failed to load history cache: %w", err)
	default:
		metrics.HistoryCacheHits.Inc()
		c.merge(ctx, &cached, cached.LastFetchTime, c.opts.MaxIncrementalPages)
	}

	cached.CachedAt = c.now().UTC()
	if err := c.store.Set(ctx, c.key(username), &cached, c.opts.TTL); err != nil {
		return nil, fmt.Errorf("failed to persist history cache: %w", err)
	}
	return &cached, nil
}

// merge fetches pages newer than since and folds them into the cache,
// deduplicating by entry identity (the Trakt id for observed entries).
// A page failure keeps what was accumulated so far; having no history at
// all is not an error.
func (c *Cache) merge(ctx context.Context, cached *models.CachedHistory, since *time.Time, maxPages int) {
	known := cached.Identities()
	fetched, pages := c.fetchPages(ctx, cached.Owner, since, maxPages)

	added := 0
	for _, e := range fetched {
		id := e.Identity()
		if _, seen := known[id]; seen {
			continue
		}
		known[id] = struct{}{}
		cached.Entries = append(cached.Entries, e)
		added++
	}

	cached.LastFetchTime = maxWatchedAt(cached.Entries)
	metrics.RecordHistoryFetch(since != nil, pages, added)

	c.logger.Debug().
		Str("user", logging.SanitizeUsername(cached.Owner)).
		Bool("incremental", since != nil).
		Int("pages", pages).
		Int("fetched", len(fetched)).
		Int("added", added).
		Int("total", len(cached.Entries)).
		Msg("history cache refreshed")
}

// fetchPages walks the paginated history until a short page, the page
// ceiling, or a failure. Hitting the ceiling is a soft truncation; a
// failed page yields the entries accumulated so far.
func (c *Cache) fetchPages(ctx context.Context, username string, since *time.Time, maxPages int) ([]models.HistoryEntry, int) {
	var all []models.HistoryEntry

	page := 1
	for ; page <= maxPages; page++ {
		entries, err := c.provider.HistoryPage(ctx, username, since, page, c.opts.PageSize)
		if err != nil {
			c.logger.Warn().
				Err(err).
				Str("user", logging.SanitizeUsername(username)).
				Int("page", page).
				Msg("history page fetch failed, keeping partial result")
			return all, page
		}

		all = append(all, entries...)
		if len(entries) < c.opts.PageSize {
			return all, page
		}
	}

	c.logger.Warn().
		Str("user", logging.SanitizeUsername(username)).
		Int("max_pages", maxPages).
		Msg("history fetch hit page ceiling, result truncated")
	return all, maxPages
}

// maxWatchedAt returns the latest WatchedAt across the entries, or nil
// when there are none.
func maxWatchedAt(entries []models.HistoryEntry) *time.Time {
	var latest *time.Time
	for i := range entries {
		t := entries[i].WatchedAt
		if t.IsZero() {
			continue
		}
		if latest == nil || t.After(*latest) {
			latest = &t
		}
	}
	return latest
}

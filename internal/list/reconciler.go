// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package list reconciles a user's remote Trakt list with the final set
// of accepted recommendations: find or create the list by name, remove
// what no longer belongs, add what is missing, and retry transient
// addition failures.
package list

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/retry"
	"github.com/cinefill/cinefill/internal/trakt"
)

// ErrReconciliationFailed is returned when the remote list could not be
// made to match the desired set after all retries.
var ErrReconciliationFailed = errors.New("list: reconciliation failed")

// addAttempts and addBackoff govern the bounded retry around the
// addition call: 3 attempts with 2s, 4s, 6s waits.
const addAttempts = 3

var addBackoff = retry.Linear(2 * time.Second)

// Store is the remote list API consumed by the reconciler.
type Store interface {
	FindListByName(ctx context.Context, username, name string) (int64, error)
	CreateList(ctx context.Context, username, name string) (int64, error)
	ListItems(ctx context.Context, username string, listID int64) ([]int64, error)
	AddItems(ctx context.Context, username string, listID int64, tmdbIDs []int64) (trakt.AddResult, error)
	RemoveItems(ctx context.Context, username string, listID int64, tmdbIDs []int64) error
}

// Result describes the outcome of one reconciliation.
type Result struct {
	ListID   int64
	ListURL  string
	Added    int
	Existing int
	NotFound int
	Removed  int
}

// Reconciler converges a remote list onto a desired item set.
type Reconciler struct {
	store   Store
	backoff retry.BackoffFunc
	logger  zerolog.Logger
}

// NewReconciler builds a reconciler over the given list store.
func NewReconciler(store Store) *Reconciler {
	return &Reconciler{
		store:   store,
		backoff: addBackoff,
		logger:  logging.WithComponent("list"),
	}
}

// Reconcile makes the user's list with the given name contain exactly
// the desired items. Idempotent: a second call with the same items
// leaves the remote list unchanged. Removal failures are logged and do
// not abort the addition phase; addition failures are retried with
// linear backoff and are terminal once exhausted.
func (r *Reconciler) Reconcile(ctx context.Context, username, listName string, items []models.EnrichedItem) (*Result, error) {
	logger := r.logger.With().
		Str("user", logging.SanitizeUsername(username)).
		Str("list", listName).
		Logger()

	desired := dedupIDs(items)

	listID, created, err := r.findOrCreate(ctx, username, listName)
	if err != nil {
		metrics.RecordReconcile(err, 0, 0)
		return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}
	if created {
		logger.Info().Int64("list_id", listID).Msg("created remote list")
	}

	toAdd, toRemove := r.diff(ctx, username, listID, desired)

	removed := 0
	if len(toRemove) > 0 {
		if err := r.store.RemoveItems(ctx, username, listID, toRemove); err != nil {
			// best-effort clearing: stale extras are tolerable, missing
			// additions are not
			logger.Warn().Err(err).Int("count", len(toRemove)).Msg("failed to remove stale items")
		} else {
			removed = len(toRemove)
		}
	}

	var added trakt.AddResult
	if len(toAdd) > 0 {
		err = retry.Do(ctx, addAttempts, r.backoff, func(ctx context.Context) error {
			var addErr error
			added, addErr = r.store.AddItems(ctx, username, listID, toAdd)
			return addErr
		})
		if err != nil {
			metrics.RecordReconcile(err, 0, removed)
			return nil, fmt.Errorf("%w: adding items: %v", ErrReconciliationFailed, err)
		}
	}

	// the remote counts, not the request size, decide success
	if len(desired) > 0 && added.Added+added.Existing == 0 && len(toAdd) > 0 {
		err := fmt.Errorf("remote accepted none of %d items", len(toAdd))
		metrics.RecordReconcile(err, 0, removed)
		return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, err)
	}

	metrics.RecordReconcile(nil, added.Added, removed)
	logger.Info().
		Int64("list_id", listID).
		Int("desired", len(desired)).
		Int("added", added.Added).
		Int("existing", added.Existing).
		Int("not_found", added.NotFound).
		Int("removed", removed).
		Msg("list reconciled")

	return &Result{
		ListID:   listID,
		ListURL:  fmt.Sprintf("https://trakt.tv/users/%s/lists/%d", username, listID),
		Added:    added.Added,
		Existing: added.Existing,
		NotFound: added.NotFound,
		Removed:  removed,
	}, nil
}

// findOrCreate locates the list by exact name, creating it when absent.
func (r *Reconciler) findOrCreate(ctx context.Context, username, listName string) (int64, bool, error) {
	listID, err := r.store.FindListByName(ctx, username, listName)
	if err == nil {
		return listID, false, nil
	}
	if !errors.Is(err, trakt.ErrNotFound) {
		return 0, false, fmt.Errorf("failed to look up list: %w", err)
	}

	listID, err = r.store.CreateList(ctx, username, listName)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create list: %w", err)
	}
	return listID, true, nil
}

// diff computes the additions and removals needed to converge the remote
// list onto desired. When the current items cannot be read, every desired
// item is (re)added; the remote side's existing count absorbs overlaps.
func (r *Reconciler) diff(ctx context.Context, username string, listID int64, desired []int64) (toAdd, toRemove []int64) {
	current, err := r.store.ListItems(ctx, username, listID)
	if err != nil {
		r.logger.Warn().Err(err).Int64("list_id", listID).Msg("failed to read current items, adding all")
		return desired, nil
	}

	currentSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		currentSet[id] = struct{}{}
	}
	desiredSet := make(map[int64]struct{}, len(desired))
	for _, id := range desired {
		desiredSet[id] = struct{}{}
	}

	for _, id := range desired {
		if _, ok := currentSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for _, id := range current {
		if _, ok := desiredSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	return toAdd, toRemove
}

// dedupIDs extracts the TMDB ids from the items, dropping duplicates and
// items without an id, preserving order.
func dedupIDs(items []models.EnrichedItem) []int64 {
	seen := make(map[int64]struct{}, len(items))
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.TMDBID == 0 {
			continue
		}
		if _, ok := seen[item.TMDBID]; ok {
			continue
		}
		seen[item.TMDBID] = struct{}{}
		ids = append(ids, item.TMDBID)
	}
	return ids
}

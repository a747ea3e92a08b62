// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package updater runs the nightly sweep: it walks every stored
// generation config, regenerates the user's recommendations, and
// reconciles their remote list. Users whose history has gone quiet get
// a curated fallback list instead of nothing.
package updater

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/list"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/recommend"
	"github.com/cinefill/cinefill/internal/tmdb"
)

// Engine generates recommendations for one user.
type Engine interface {
	Generate(ctx context.Context, req recommend.Request) ([]models.EnrichedItem, models.GenerationRun, error)
}

// Reconciler converges a remote list onto the generated items.
type Reconciler interface {
	Reconcile(ctx context.Context, username, listName string, items []models.EnrichedItem) (*list.Result, error)
}

// CatalogSearch resolves fallback titles to enriched items.
type CatalogSearch interface {
	Search(ctx context.Context, title string, year int) (*models.EnrichedItem, error)
}

// Summary reports the outcome of one sweep.
type Summary struct {
	Users    int      `json:"users"`
	Updated  int      `json:"updated"`
	Fallback int      `json:"fallback"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// Updater is the nightly list refresher.
type Updater struct {
	configs    *Configs
	engine     Engine
	reconciler Reconciler
	catalog    CatalogSearch
	logger     zerolog.Logger
}

// New builds an updater over the stored configs and the generation and
// reconciliation machinery.
func New(configs *Configs, engine Engine, reconciler Reconciler, catalog CatalogSearch) *Updater {
	return &Updater{
		configs:    configs,
		engine:     engine,
		reconciler: reconciler,
		catalog:    catalog,
		logger:     logging.WithComponent("updater"),
	}
}

// UpdateAll refreshes every user with a stored config. Per-user failures
// are collected, not propagated; the sweep always completes.
func (u *Updater) UpdateAll(ctx context.Context) (*Summary, error) {
	configs, err := u.configs.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load user configs: %w", err)
	}

	metrics.UpdaterRuns.Inc()
	summary := &Summary{Users: len(configs)}
	if len(configs) == 0 {
		u.logger.Info().Msg("no user configs stored, nothing to update")
		return summary, nil
	}

	for _, cfg := range configs {
		outcome, err := u.UpdateUser(ctx, cfg)
		switch {
		case err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", logging.SanitizeUsername(cfg.Username), err))
			metrics.UpdaterUsersProcessed.WithLabelValues("failed").Inc()
		case outcome == OutcomeFallback:
			summary.Fallback++
			summary.Updated++
			metrics.UpdaterUsersProcessed.WithLabelValues("fallback").Inc()
		default:
			summary.Updated++
			metrics.UpdaterUsersProcessed.WithLabelValues("updated").Inc()
		}
	}

	metrics.UpdaterLastSuccess.SetToCurrentTime()
	u.logger.Info().
		Int("users", summary.Users).
		Int("updated", summary.Updated).
		Int("fallback", summary.Fallback).
		Int("failed", summary.Failed).
		Msg("nightly update sweep finished")
	return summary, nil
}

// Outcome classifies how a user's update was satisfied.
type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeFallback
)

// UpdateUser regenerates and reconciles one user's list. A user with no
// analyzable history receives the fallback classics list rather than a
// failure.
func (u *Updater) UpdateUser(ctx context.Context, cfg models.GenerationConfig) (Outcome, error) {
	logger := u.logger.With().Str("user", logging.SanitizeUsername(cfg.Username)).Logger()

	req := recommend.Request{
		Username:    cfg.Username,
		Window:      cfg.Window,
		Genres:      cfg.Genres,
		TargetCount: cfg.ListLimit,
	}

	items, run, err := u.engine.Generate(ctx, req)
	result := OutcomeUpdated

	if errors.Is(err, recommend.ErrNoHistory) {
		logger.Warn().Str("window", cfg.Window).Msg("no history in window, using fallback list")
		items = u.fallbackItems(ctx, cfg.Genres, req.TargetCount)
		result = OutcomeFallback
	} else if err != nil {
		return result, fmt.Errorf("generation failed: %w", err)
	}

	if len(items) == 0 {
		return result, fmt.Errorf("no recommendations produced")
	}

	if _, err := u.reconciler.Reconcile(ctx, cfg.Username, cfg.ListName, items); err != nil {
		return result, fmt.Errorf("reconciliation failed: %w", err)
	}

	logger.Info().
		Int("items", len(items)).
		Int("attempts", run.AttemptsUsed).
		Bool("fallback", result == OutcomeFallback).
		Msg("user list refreshed")
	return result, nil
}

// Run executes a sweep every interval until the context is cancelled.
func (u *Updater) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := u.UpdateAll(ctx); err != nil {
				u.logger.Error().Err(err).Msg("update sweep failed")
			}
		}
	}
}

// fallbackQualityFloor is the minimum quality score a resolved classic
// must reach, the same floor the generation engine applies.
const fallbackQualityFloor = 5.0

// fallbackClassics seeds lists for users without analyzable history.
var fallbackClassics = []models.Candidate{
	{Title: "The Dark Knight", Year: 2008},
	{Title: "Inception", Year: 2010},
	{Title: "Pulp Fiction", Year: 1994},
	{Title: "The Shawshank Redemption", Year: 1994},
	{Title: "Forrest Gump", Year: 1994},
	{Title: "The Matrix", Year: 1999},
	{Title: "Goodfellas", Year: 1990},
	{Title: "The Lord of the Rings: The Fellowship of the Ring", Year: 2001},
	{Title: "Star Wars", Year: 1977},
	{Title: "The Godfather", Year: 1972},
	{Title: "Fight Club", Year: 1999},
	{Title: "Interstellar", Year: 2014},
	{Title: "The Lion King", Year: 1994},
	{Title: "Toy Story", Year: 1995},
	{Title: "Jurassic Park", Year: 1993},
	{Title: "Back to the Future", Year: 1985},
	{Title: "E.T. the Extra-Terrestrial", Year: 1982},
	{Title: "Raiders of the Lost Ark", Year: 1981},
	{Title: "Terminator 2: Judgment Day", Year: 1991},
	{Title: "Alien", Year: 1979},
}

// fallbackItems resolves the classics against the catalog, applying the
// user's genre constraint when one is set and the same quality floor as
// the generation engine. Resolution misses are skipped.
func (u *Updater) fallbackItems(ctx context.Context, genres []string, limit int) []models.EnrichedItem {
	wanted := make(map[int]struct{})
	for _, id := range tmdb.GenreIDs(genres) {
		wanted[id] = struct{}{}
	}

	var items []models.EnrichedItem
	for _, cand := range fallbackClassics {
		if limit > 0 && len(items) >= limit {
			break
		}

		item, err := u.catalog.Search(ctx, cand.Title, cand.Year)
		if err != nil {
			continue
		}
		if recommend.Score(*item) < fallbackQualityFloor {
			continue
		}

		if len(wanted) > 0 {
			match := false
			for _, id := range item.GenreIDs {
				if _, ok := wanted[id]; ok {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		items = append(items, *item)
	}
	return items
}

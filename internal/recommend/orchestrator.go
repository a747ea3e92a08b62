// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package recommend drives recommendation generation: it prompts the
// generative model with the user's recent history, resolves the raw
// suggestions against the movie catalog, filters out watched titles,
// duplicates, and low-quality items, and retries with phantom history
// entries until the target count is reached or attempts run out.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/gemini"
	"github.com/cinefill/cinefill/internal/history"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/tmdb"
)

// ErrNoHistory is returned when the user has nothing to analyze: no
// watch history within the requested window.
var ErrNoHistory = errors.New("recommend: no watch history to analyze")

// ErrGenerationExhausted is returned when every attempt produced nothing
// usable.
var ErrGenerationExhausted = errors.New("recommend: generation attempts exhausted without results")

// HistorySource provides the analysis and exclusion history.
type HistorySource interface {
	Recent(ctx context.Context, username string, window time.Duration) ([]models.HistoryEntry, error)
	Complete(ctx context.Context, username string) ([]models.HistoryEntry, error)
}

// Generator produces raw movie suggestions from a prompt context.
type Generator interface {
	Suggest(ctx context.Context, promptCtx gemini.PromptContext) ([]models.Candidate, error)
}

// CatalogSearch resolves a free-text title to an enriched catalog record.
type CatalogSearch interface {
	Search(ctx context.Context, title string, year int) (*models.EnrichedItem, error)
}

// Request describes one generation invocation. Zero tuning fields fall
// back to the configured defaults.
type Request struct {
	Username string
	Window   string
	Genres   []string

	TargetCount     int
	MaxRetries      int
	MinQualityScore float64
}

// Orchestrator runs the generation loop.
type Orchestrator struct {
	history HistorySource
	gen     Generator
	catalog CatalogSearch
	cfg     *config.RecommendConfig
	logger  zerolog.Logger
}

// NewOrchestrator wires the generation loop to its collaborators.
func NewOrchestrator(history HistorySource, gen Generator, catalog CatalogSearch, cfg *config.RecommendConfig) *Orchestrator {
	return &Orchestrator{
		history: history,
		gen:     gen,
		catalog: catalog,
		cfg:     cfg,
		logger:  logging.WithComponent("recommend"),
	}
}

func (o *Orchestrator) applyDefaults(req *Request) {
	if req.TargetCount <= 0 {
		req.TargetCount = o.cfg.TargetCount
	}
	if req.MaxRetries <= 0 {
		req.MaxRetries = o.cfg.MaxRetries
	}
	if req.MinQualityScore <= 0 {
		req.MinQualityScore = o.cfg.MinQualityScore
	}
}

// Generate runs up to MaxRetries generation attempts and returns the
// accepted items in discovery order, truncated to TargetCount, together
// with the run statistics. The returned error is one of the sentinel
// errors for terminal failures; partial success (some items, target not
// reached) returns the items without an error.
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]models.EnrichedItem, models.GenerationRun, error) {
	o.applyDefaults(&req)
	start := time.Now()

	run := models.GenerationRun{}
	logger := o.logger.With().Str("user", logging.SanitizeUsername(req.Username)).Logger()

	analysisHistory, err := o.history.Recent(ctx, req.Username, history.WindowDuration(req.Window))
	if err != nil {
		run.Error = err.Error()
		metrics.RecordGenerationRun("error", 0, 0, time.Since(start))
		return nil, run, fmt.Errorf("failed to load recent history: %w", err)
	}
	if len(analysisHistory) == 0 {
		run.Error = fmt.Sprintf("no watch history found for the last %s", req.Window)
		metrics.RecordGenerationRun("no_history", 0, 0, time.Since(start))
		return nil, run, fmt.Errorf("%w (window %s)", ErrNoHistory, req.Window)
	}

	complete, err := o.history.Complete(ctx, req.Username)
	if err != nil {
		run.Error = err.Error()
		metrics.RecordGenerationRun("error", 0, 0, time.Since(start))
		return nil, run, fmt.Errorf("failed to load complete history: %w", err)
	}
	watched := watchedIDSet(complete)

	var accepted []models.EnrichedItem
	tracker := newDedupTracker()

	for attempt := 1; attempt <= req.MaxRetries; attempt++ {
		run.AttemptsUsed = attempt
		final := attempt == req.MaxRetries

		candidates, err := o.gen.Suggest(ctx, gemini.PromptContext{
			History: analysisHistory,
			Window:  req.Window,
			Genres:  req.Genres,
		})
		if err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Msg("generator call failed")
			candidates = nil
		}
		run.GeneratedTotal += len(candidates)

		// an empty generator result on the final attempt is terminal,
		// even when earlier attempts accumulated items
		if len(candidates) == 0 {
			if final {
				run.Error = "the model produced no usable suggestions"
				metrics.RecordGenerationRun("exhausted", run.AttemptsUsed, 0, time.Since(start))
				return nil, run, ErrGenerationExhausted
			}
			continue
		}

		batch := o.filterCandidates(ctx, candidates, watched, tracker, req.MinQualityScore, &run)
		if len(req.Genres) > 0 {
			batch = filterByGenres(batch, req.Genres)
		}
		accepted = append(accepted, batch...)

		logger.Debug().
			Int("attempt", attempt).
			Int("candidates", len(candidates)).
			Int("batch_accepted", len(batch)).
			Int("total_accepted", len(accepted)).
			Msg("generation attempt finished")

		if len(accepted) >= req.TargetCount {
			break
		}

		// fold this attempt's raw suggestions back into the prompt
		// context so the next attempt steers away from repeating them
		if !final {
			for _, cand := range candidates {
				analysisHistory = append(analysisHistory, models.NewSynthesizedEntry(cand.Title, cand.Year))
			}
		}
	}

	if len(accepted) > req.TargetCount {
		accepted = accepted[:req.TargetCount]
	}
	run.AcceptedTotal = len(accepted)
	run.Succeeded = len(accepted) > 0

	outcome := "success"
	if !run.Succeeded {
		outcome = "exhausted"
		run.Error = "no recommendations survived filtering"
	}
	metrics.RecordGenerationRun(outcome, run.AttemptsUsed, run.AcceptedTotal, time.Since(start))

	if !run.Succeeded {
		return nil, run, ErrGenerationExhausted
	}
	return accepted, run, nil
}

// filterCandidates resolves each candidate against the catalog and
// applies the watched, duplicate, and quality filters in that order.
func (o *Orchestrator) filterCandidates(ctx context.Context, candidates []models.Candidate, watched map[int64]struct{}, tracker *dedupTracker, minScore float64, run *models.GenerationRun) []models.EnrichedItem {
	var batch []models.EnrichedItem

	for _, cand := range candidates {
		item, err := o.catalog.Search(ctx, cand.Title, cand.Year)
		if err != nil {
			// a resolution miss or transient catalog failure drops the
			// candidate silently
			if !errors.Is(err, tmdb.ErrNotFound) {
				o.logger.Debug().Err(err).Str("title", cand.Title).Msg("catalog lookup failed")
			}
			metrics.RecordFiltered("unresolved")
			continue
		}

		if _, ok := watched[item.TMDBID]; ok {
			run.FilteredWatched++
			metrics.RecordFiltered("watched")
			continue
		}
		if !tracker.accept(item.TMDBID) {
			run.FilteredDuplicate++
			metrics.RecordFiltered("duplicate")
			continue
		}
		if Score(*item) < minScore {
			run.FilteredLowQuality++
			metrics.RecordFiltered("low_quality")
			continue
		}

		batch = append(batch, *item)
	}
	return batch
}

// filterByGenres keeps items whose genre set intersects the requested
// genres. Applied per attempt batch, never retroactively.
func filterByGenres(batch []models.EnrichedItem, genres []string) []models.EnrichedItem {
	wanted := make(map[int]struct{})
	for _, id := range tmdb.GenreIDs(genres) {
		wanted[id] = struct{}{}
	}
	if len(wanted) == 0 {
		return batch
	}

	kept := batch[:0]
	for _, item := range batch {
		match := false
		for _, id := range item.GenreIDs {
			if _, ok := wanted[id]; ok {
				match = true
				break
			}
		}
		if match {
			kept = append(kept, item)
		} else {
			metrics.RecordFiltered("genre")
		}
	}
	return kept
}

// watchedIDSet collects the TMDB ids of everything the user has watched.
func watchedIDSet(entries []models.HistoryEntry) map[int64]struct{} {
	ids := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if e.TMDBID != 0 {
			ids[e.TMDBID] = struct{}{}
		}
	}
	return ids
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Command server runs the Cinefill HTTP server and the nightly list
// updater.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cinefill/cinefill/internal/api"
	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/gemini"
	"github.com/cinefill/cinefill/internal/history"
	"github.com/cinefill/cinefill/internal/list"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/recommend"
	"github.com/cinefill/cinefill/internal/store"
	"github.com/cinefill/cinefill/internal/tmdb"
	"github.com/cinefill/cinefill/internal/trakt"
	"github.com/cinefill/cinefill/internal/updater"
)

// updateInterval is how often the background sweep refreshes every
// stored user list.
const updateInterval = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("store", cfg.Store.Backend).
		Str("model", cfg.Gemini.Model).
		Msg("Starting Cinefill")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	tokens := trakt.NewTokenManager(&cfg.Trakt, st, cfg.Store.Namespace)
	traktClient := trakt.NewClient(&cfg.Trakt, tokens)
	tmdbClient := tmdb.NewClient(&cfg.TMDB)
	geminiClient := gemini.NewClient(&cfg.Gemini)

	historyCache := history.NewCache(traktClient, st, history.Options{
		Namespace:           cfg.Store.Namespace,
		TTL:                 cfg.Store.HistoryTTL,
		PageSize:            cfg.Recommend.HistoryPageSize,
		MaxFullPages:        cfg.Recommend.MaxFullPages,
		MaxIncrementalPages: cfg.Recommend.MaxIncrementalPages,
	})

	engine := recommend.NewOrchestrator(historyCache, geminiClient, tmdbClient, &cfg.Recommend)
	reconciler := list.NewReconciler(traktClient)
	configs := updater.NewConfigs(st, cfg.Store.Namespace, cfg.Store.UserConfigTTL)
	sweeper := updater.New(configs, engine, reconciler, tmdbClient)

	go sweeper.Run(ctx, updateInterval)

	server := api.NewServer(cfg, tokens, engine, reconciler, historyCache, configs, sweeper)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error().Err(err).Msg("HTTP server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logging.Info().Msg("Cinefill stopped")
}

// openStore builds the configured key-value backend.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "redis":
		return store.NewRedisStore(ctx, cfg.Store.RedisURL)
	case "badger":
		return store.NewBadgerStore(cfg.Store.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

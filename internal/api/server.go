// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package api exposes the HTTP surface: the Trakt OAuth flow, the
// generation endpoint, cache and updater triggers, health, and metrics.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/list"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/recommend"
	"github.com/cinefill/cinefill/internal/trakt"
	"github.com/cinefill/cinefill/internal/updater"
)

// Authenticator runs the OAuth code flow and resolves sessions to
// Trakt usernames.
type Authenticator interface {
	AuthURL() string
	ExchangeCode(ctx context.Context, code string) (*trakt.Tokens, error)
	Username(ctx context.Context, accessToken string) (string, error)
	Store(ctx context.Context, username string, tokens *trakt.Tokens) error
	Revoke(ctx context.Context, username string) error
}

// Engine generates recommendations for one user.
type Engine interface {
	Generate(ctx context.Context, req recommend.Request) ([]models.EnrichedItem, models.GenerationRun, error)
}

// Reconciler converges a remote list onto the generated items.
type Reconciler interface {
	Reconcile(ctx context.Context, username, listName string, items []models.EnrichedItem) (*list.Result, error)
}

// HistoryCache is the subset of the history cache the API needs.
type HistoryCache interface {
	Invalidate(ctx context.Context, username string) error
}

// Sweeper runs the full nightly update pass on demand.
type Sweeper interface {
	UpdateAll(ctx context.Context) (*updater.Summary, error)
}

// Server holds the wired collaborators behind the HTTP handlers.
type Server struct {
	cfg        *config.Config
	auth       Authenticator
	engine     Engine
	reconciler Reconciler
	cache      HistoryCache
	configs    *updater.Configs
	sweeper    Sweeper
	sessions   *sessionCodec
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewServer wires the HTTP layer to the domain services.
func NewServer(cfg *config.Config, auth Authenticator, engine Engine, reconciler Reconciler, cache HistoryCache, configs *updater.Configs, sweeper Sweeper) *Server {
	return &Server{
		cfg:        cfg,
		auth:       auth,
		engine:     engine,
		reconciler: reconciler,
		cache:      cache,
		configs:    configs,
		sweeper:    sweeper,
		sessions:   newSessionCodec(cfg.Server.SessionSecret, cfg.Server.SessionMaxAge),
		validate:   validator.New(),
		logger:     logging.WithComponent("api"),
	}
}

// Router builds the Chi route tree with the full middleware stack.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Use(rateLimit(s.cfg, "auth"))
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
		r.Post("/logout", s.handleLogout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(s.cfg, "api"))
		r.Use(metricsMiddleware)
		r.Use(s.requireSession)
		r.Get("/session", s.handleSession)
		r.Post("/generate", s.handleGenerate)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/update-lists", s.handleUpdateLists)
	})

	return r
}

// rateLimit bounds requests per client IP using the configured budget.
func rateLimit(cfg *config.Config, endpoint string) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.Server.RateLimitReqs,
		cfg.Server.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(endpoint).Inc()
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		}),
	)
}

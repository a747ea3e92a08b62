// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinefill/cinefill/internal/history"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/recommend"
)

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin sends the browser to the Trakt authorization page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.auth.AuthURL(), http.StatusFound)
}

// handleCallback completes the OAuth flow: exchange the code, resolve
// the username, persist the tokens, and open a browser session.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ctx := r.Context()
	tokens, err := s.auth.ExchangeCode(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Msg("oauth code exchange failed")
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	username, err := s.auth.Username(ctx, tokens.AccessToken)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve authenticated user")
		writeError(w, http.StatusBadGateway, "authorization failed")
		return
	}

	if err := s.auth.Store(ctx, username, tokens); err != nil {
		s.logger.Error().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("failed to persist tokens")
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}

	session, err := s.sessions.issue(username, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.sessions.setCookie(w, session)

	s.logger.Info().Str("user", logging.SanitizeUsername(username)).Msg("user authenticated")
	writeJSON(w, http.StatusOK, map[string]string{"username": username})
}

// handleLogout revokes the stored tokens and clears the session cookie.
// A request without a valid session still clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	defer s.sessions.clearCookie(w)

	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if username, err := s.sessions.verify(cookie.Value); err == nil {
			if err := s.auth.Revoke(r.Context(), username); err != nil {
				s.logger.Warn().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("token revocation failed")
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"username": usernameFromContext(r.Context())})
}

// generateRequest is the POST /api/v1/generate payload.
type generateRequest struct {
	Window    string   `json:"window"`
	Genres    []string `json:"genres" validate:"omitempty,dive,min=1,max=40"`
	ListName  string   `json:"list_name" validate:"omitempty,max=120"`
	ListLimit int      `json:"list_limit" validate:"omitempty,min=1,max=100"`
}

// generateResponse reports the generation run and the reconciled list.
type generateResponse struct {
	Username string               `json:"username"`
	ListID   int64                `json:"list_id"`
	ListURL  string               `json:"list_url"`
	Items    []generatedItem      `json:"items"`
	Run      models.GenerationRun `json:"run"`
}

type generatedItem struct {
	TMDBID int64  `json:"tmdb_id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
}

// handleGenerate runs one on-demand generation for the session user,
// reconciles their list, and stores the config for the nightly sweep.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if req.Window == "" {
		req.Window = "1 month"
	}
	if !history.ValidWindow(req.Window) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown window %q", req.Window))
		return
	}
	if req.ListName == "" {
		req.ListName = "AI Recommendations"
	}

	ctx := r.Context()
	items, run, err := s.engine.Generate(ctx, recommend.Request{
		Username:    username,
		Window:      req.Window,
		Genres:      req.Genres,
		TargetCount: req.ListLimit,
	})
	switch {
	case errors.Is(err, recommend.ErrNoHistory):
		writeError(w, http.StatusNotFound, "no watch history in the selected window")
		return
	case errors.Is(err, recommend.ErrGenerationExhausted):
		writeError(w, http.StatusBadGateway, "could not generate recommendations, try again later")
		return
	case err != nil:
		s.logger.Error().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("generation failed")
		writeError(w, http.StatusInternalServerError, "generation failed")
		return
	}

	result, err := s.reconciler.Reconcile(ctx, username, req.ListName, items)
	if err != nil {
		s.logger.Error().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("list reconciliation failed")
		writeError(w, http.StatusBadGateway, "failed to update the Trakt list")
		return
	}

	// remember the shape of this run so the nightly sweep can repeat it
	if err := s.configs.Save(ctx, models.GenerationConfig{
		Username:  username,
		ListName:  req.ListName,
		Window:    req.Window,
		Genres:    req.Genres,
		ListLimit: req.ListLimit,
	}); err != nil {
		s.logger.Warn().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("failed to store generation config")
	}

	resp := generateResponse{
		Username: username,
		ListID:   result.ListID,
		ListURL:  result.ListURL,
		Items:    make([]generatedItem, 0, len(items)),
		Run:      run,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, generatedItem{TMDBID: item.TMDBID, Title: item.Title, Year: item.Year})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh drops the session user's cached history so the next
// generation refetches it in full.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	if err := s.cache.Invalidate(r.Context(), username); err != nil {
		s.logger.Error().Err(err).Str("user", logging.SanitizeUsername(username)).Msg("cache invalidation failed")
		writeError(w, http.StatusInternalServerError, "failed to refresh history cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "history cache cleared"})
}

// handleUpdateLists triggers the nightly sweep immediately.
func (s *Server) handleUpdateLists(w http.ResponseWriter, r *http.Request) {
	summary, err := s.sweeper.UpdateAll(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("manual update sweep failed")
		writeError(w, http.StatusInternalServerError, "update sweep failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

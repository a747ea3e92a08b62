// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package trakt implements the Trakt API client: OAuth device flow for
// browser sessions, paginated watch-history fetches, and personal list
// management. All authenticated calls go through a shared request helper
// that resolves the user's stored token and refreshes it when stale.
package trakt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/upstream"
)

// ErrNotAuthenticated is returned when a user has no stored token and a
// refresh is impossible. The caller should send the user back through OAuth.
var ErrNotAuthenticated = errors.New("trakt: user not authenticated")

// ErrNotFound is returned when a requested remote resource does not exist.
var ErrNotFound = errors.New("trakt: not found")

// Client talks to the Trakt API on behalf of authenticated users.
type Client struct {
	cfg    *config.TraktConfig
	client *http.Client
	tokens *TokenManager
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

// NewClient builds a Trakt client. Tokens are persisted in the given store
// so sessions survive restarts.
func NewClient(cfg *config.TraktConfig, tokens *TokenManager) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		tokens: tokens,
		cb:     upstream.NewBreaker("trakt"),
		logger: logging.WithComponent("trakt"),
	}
}

// do performs an authenticated request against the Trakt API and decodes
// the JSON response into result (which may be nil for empty responses).
// The operation label feeds the upstream request metrics.
func (c *Client) do(ctx context.Context, username, method, path, operation string, body, result any) error {
	token, err := c.tokens.AccessToken(ctx, username)
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = c.cb.Execute(func() (any, error) {
		return nil, c.doOnce(ctx, token, method, path, body, result)
	})
	metrics.RecordUpstreamRequest("trakt", operation, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("trakt %s %s failed: %w", method, path, err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, token, method, path string, body, result any) error {
	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", c.cfg.ClientID)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrNotAuthenticated
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("status %d: %s", resp.StatusCode, upstream.ReadBodyForError(resp.Body))
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

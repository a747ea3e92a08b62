// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package trakt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/store"
)

// refreshBuffer is subtracted from a token's lifetime so it is refreshed
// shortly before Trakt would reject it.
const refreshBuffer = 5 * time.Minute

// Tokens is the OAuth token pair as stored per user.
type Tokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	Scope        string    `json:"scope,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// expired reports whether the access token is within refreshBuffer of expiry.
func (t Tokens) expired(now time.Time) bool {
	deadline := t.CreatedAt.Add(time.Duration(t.ExpiresIn)*time.Second - refreshBuffer)
	return !now.Before(deadline)
}

// tokenResponse is the wire shape of Trakt's /oauth/token response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

// TokenManager performs the OAuth authorization-code flow and keeps the
// resulting token pairs in the store, refreshing them transparently.
type TokenManager struct {
	cfg       *config.TraktConfig
	client    *http.Client
	store     store.Store
	namespace string
	tokenTTL  func(expiresIn int) time.Duration
	logger    zerolog.Logger
}

// NewTokenManager builds a token manager persisting into st under the
// given key namespace.
func NewTokenManager(cfg *config.TraktConfig, st store.Store, namespace string) *TokenManager {
	return &TokenManager{
		cfg:       cfg,
		client:    &http.Client{Timeout: cfg.Timeout},
		store:     st,
		namespace: namespace,
		tokenTTL: func(expiresIn int) time.Duration {
			return time.Duration(expiresIn)*time.Second - refreshBuffer
		},
		logger: logging.WithComponent("trakt.oauth"),
	}
}

func (m *TokenManager) key(username string) store.Key {
	return store.Key{Namespace: m.namespace, Kind: "token", Owner: username}
}

// AuthURL returns the browser-facing authorization URL for the code flow.
func (m *TokenManager) AuthURL() string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", m.cfg.ClientID)
	params.Set("redirect_uri", m.cfg.RedirectURI)
	return m.cfg.AuthorizeURL + "?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token pair.
func (m *TokenManager) ExchangeCode(ctx context.Context, code string) (*Tokens, error) {
	return m.requestToken(ctx, map[string]string{
		"code":          code,
		"client_id":     m.cfg.ClientID,
		"client_secret": m.cfg.ClientSecret,
		"redirect_uri":  m.cfg.RedirectURI,
		"grant_type":    "authorization_code",
	})
}

// Refresh trades a refresh token for a new token pair.
func (m *TokenManager) Refresh(ctx context.Context, refreshToken string) (*Tokens, error) {
	return m.requestToken(ctx, map[string]string{
		"refresh_token": refreshToken,
		"client_id":     m.cfg.ClientID,
		"client_secret": m.cfg.ClientSecret,
		"redirect_uri":  m.cfg.RedirectURI,
		"grant_type":    "refresh_token",
	})
}

func (m *TokenManager) requestToken(ctx context.Context, form map[string]string) (*Tokens, error) {
	data, err := json.Marshal(form)
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/oauth/token", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &Tokens{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		ExpiresIn:    tr.ExpiresIn,
		Scope:        tr.Scope,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Store persists a token pair for the user. The record's TTL is the token
// lifetime minus the refresh buffer, so an expired record simply vanishes.
func (m *TokenManager) Store(ctx context.Context, username string, tokens *Tokens) error {
	ttl := m.tokenTTL(tokens.ExpiresIn)
	if ttl <= 0 {
		return fmt.Errorf("trakt: token lifetime %ds too short to store", tokens.ExpiresIn)
	}
	if err := m.store.Set(ctx, m.key(username), tokens, ttl); err != nil {
		return fmt.Errorf("failed to store tokens for %s: %w", logging.SanitizeUsername(username), err)
	}
	return nil
}

// AccessToken returns a valid access token for the user, refreshing the
// stored pair when it is near expiry. Returns ErrNotAuthenticated when no
// usable token exists.
func (m *TokenManager) AccessToken(ctx context.Context, username string) (string, error) {
	var tokens Tokens
	err := m.store.Get(ctx, m.key(username), &tokens)
	if errors.Is(err, store.ErrKeyNotFound) {
		return "", ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to load tokens: %w", err)
	}

	if !tokens.expired(time.Now()) {
		return tokens.AccessToken, nil
	}

	m.logger.Debug().Str("user", logging.SanitizeUsername(username)).Msg("refreshing expired access token")
	refreshed, err := m.Refresh(ctx, tokens.RefreshToken)
	if err != nil {
		// refresh failure means the user must re-authenticate
		_ = m.store.Delete(ctx, m.key(username))
		return "", ErrNotAuthenticated
	}
	if err := m.Store(ctx, username, refreshed); err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Revoke drops the stored token pair for the user.
func (m *TokenManager) Revoke(ctx context.Context, username string) error {
	return m.store.Delete(ctx, m.key(username))
}

// userSettings is the subset of Trakt's /users/settings response we read.
type userSettings struct {
	User struct {
		Username string `json:"username"`
		IDs      struct {
			Slug string `json:"slug"`
		} `json:"ids"`
	} `json:"user"`
}

// Username resolves the username behind an access token via /users/settings.
func (m *TokenManager) Username(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.cfg.BaseURL+"/users/settings", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build settings request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", "2")
	req.Header.Set("trakt-api-key", m.cfg.ClientID)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("settings request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("settings request failed with status %d", resp.StatusCode)
	}

	var settings userSettings
	if err := json.NewDecoder(resp.Body).Decode(&settings); err != nil {
		return "", fmt.Errorf("failed to decode settings response: %w", err)
	}
	if settings.User.Username == "" {
		return "", fmt.Errorf("trakt: settings response missing username")
	}
	return settings.User.Username, nil
}

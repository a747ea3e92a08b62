// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package gemini implements the generative-model client producing raw
// movie suggestions from a watch-history summary. The model returns
// free text; parsing and validation into structured candidates lives in
// this package as well.
package gemini

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/upstream"
)

// Client talks to the Gemini generateContent REST API.
type Client struct {
	cfg    *config.GeminiConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker[any]
	logger zerolog.Logger
}

// NewClient builds a Gemini client.
func NewClient(cfg *config.GeminiConfig) *Client {
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cb:     upstream.NewBreaker("gemini"),
		logger: logging.WithComponent("gemini"),
	}
}

// generateRequest is the wire shape of a generateContent request.
type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// generateResponse is the wire shape of a generateContent response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Suggest asks the model for movie suggestions based on the prompt
// context and returns the parsed, validated candidates. An empty result
// is not an error; the orchestrator decides whether it is terminal.
func (c *Client) Suggest(ctx context.Context, promptCtx PromptContext) ([]models.Candidate, error) {
	prompt := BuildPrompt(promptCtx)

	start := time.Now()
	result, err := c.cb.Execute(func() (any, error) {
		return c.generate(ctx, prompt)
	})
	metrics.RecordUpstreamRequest("gemini", "generate", time.Since(start), err)

	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := result.(string)
	candidates := ParseSuggestions(text)
	c.logger.Debug().
		Int("prompt_len", len(prompt)).
		Int("candidates", len(candidates)).
		Msg("parsed model suggestions")
	return candidates, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config: genConfig{
			Temperature:     c.cfg.Temperature,
			TopK:            c.cfg.TopK,
			TopP:            c.cfg.TopP,
			MaxOutputTokens: c.cfg.MaxOutputTokens,
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, c.cfg.Model, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, upstream.ReadBodyForError(resp.Body))
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return gr.Candidates[0].Content.Parts[0].Text, nil
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
		{"ERROR", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestInitJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf, Timestamp: true})
	defer Init(DefaultConfig())

	Info().Str("key", "value").Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) {
		t.Errorf("expected structured field in output, got %q", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message in output, got %q", out)
	}
}

func TestCtxAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), logger)
	ctx = ContextWithRequestID(ctx, "req-42")

	Ctx(ctx).Info().Msg("with id")

	if !strings.Contains(buf.String(), `"request_id":"req-42"`) {
		t.Errorf("expected request_id in output, got %q", buf.String())
	}
}

func TestCtxWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := NewTestLogger(&buf)

	ctx := ContextWithLogger(context.Background(), logger)
	Ctx(ctx).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("did not expect request_id field, got %q", buf.String())
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"short", "abc123", "***"},
		{"boundary", "123456789012", "***"},
		{"long", "abcdefghijklmnop", "abcd...mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeToken(tt.input); got != tt.want {
				t.Errorf("SanitizeToken(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeUsername(t *testing.T) {
	if got := SanitizeUsername("johndoe"); got != "jo***" {
		t.Errorf("SanitizeUsername = %q, want jo***", got)
	}
	if got := SanitizeUsername("jo"); got != "***" {
		t.Errorf("SanitizeUsername short = %q, want ***", got)
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"no query",
			"https://api.example.com/v3/search",
			"https://api.example.com/v3/search",
		},
		{
			"api key masked",
			"https://api.example.com/v3/search?api_key=secret123&query=alien",
			"https://api.example.com/v3/search?api_key=***&query=alien",
		},
		{
			"token masked",
			"https://host/path?token=abc&page=2",
			"https://host/path?token=***&page=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.input); got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

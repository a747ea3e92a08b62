// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package upstream holds shared plumbing for the outbound API clients:
// circuit breaker construction and common HTTP helpers.
package upstream

import (
	"io"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/cinefill/cinefill/internal/logging"
	"github.com/cinefill/cinefill/internal/metrics"
)

// maxErrorBodySize caps how much of an error response body is read back
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// ReadBodyForError reads at most 64KB of a response body for inclusion in
// an error message.
func ReadBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// NewBreaker builds a circuit breaker for an upstream service. The breaker
// opens after a 60% failure rate over at least 10 requests, stays open for
// 2 minutes, and allows 3 probes in half-open state.
func NewBreaker(name string) *gobreaker.CircuitBreaker[any] {
	logger := logging.WithComponent("breaker." + name)
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

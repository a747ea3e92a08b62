// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package retry provides a bounded retry helper with pluggable backoff.
// Every retry loop in the codebase goes through Do so the attempt
// accounting and context handling live in one place.
package retry

import (
	"context"
	"fmt"
	"time"
)

// BackoffFunc returns the delay before retrying after the given attempt.
// Attempts are numbered from 1.
type BackoffFunc func(attempt int) time.Duration

// Linear returns a backoff growing by base per attempt: base, 2*base, 3*base.
func Linear(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Constant returns a fixed delay between attempts.
func Constant(d time.Duration) BackoffFunc {
	return func(int) time.Duration {
		return d
	}
}

// None retries immediately.
func None() BackoffFunc {
	return func(int) time.Duration {
		return 0
	}
}

// Do runs fn up to attempts times, sleeping per backoff between failures.
// It returns nil on the first success, the context error if the context
// is cancelled while waiting, and otherwise the last error wrapped with
// the attempt count.
func Do(ctx context.Context, attempts int, backoff BackoffFunc, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		delay := backoff(attempt)
		if delay <= 0 {
			continue
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}

// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, None(), func(context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, None(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do returned %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("persistent failure")
	calls := 0
	err := Do(context.Background(), 3, None(), func(context.Context) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("expected wrapped sentinel, got %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, 5, Constant(time.Hour), func(context.Context) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoMinimumOneAttempt(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), 0, None(), func(context.Context) error {
		calls++
		return nil
	})
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := Linear(2 * time.Second)
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 6 * time.Second},
	}
	for _, tt := range tests {
		if got := backoff(tt.attempt); got != tt.want {
			t.Errorf("Linear(2s)(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestConstantBackoff(t *testing.T) {
	backoff := Constant(500 * time.Millisecond)
	for attempt := 1; attempt <= 3; attempt++ {
		if got := backoff(attempt); got != 500*time.Millisecond {
			t.Errorf("Constant(500ms)(%d) = %s", attempt, got)
		}
	}
}

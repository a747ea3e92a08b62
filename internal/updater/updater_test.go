// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package updater

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cinefill/cinefill/internal/list"
	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/recommend"
	"github.com/cinefill/cinefill/internal/store"
	"github.com/cinefill/cinefill/internal/tmdb"
)

type fakeEngine struct {
	results map[string][]models.EnrichedItem
	errs    map[string]error
	reqs    []recommend.Request
}

func (f *fakeEngine) Generate(_ context.Context, req recommend.Request) ([]models.EnrichedItem, models.GenerationRun, error) {
	f.reqs = append(f.reqs, req)
	if err := f.errs[req.Username]; err != nil {
		return nil, models.GenerationRun{Error: err.Error()}, err
	}
	items := f.results[req.Username]
	return items, models.GenerationRun{AcceptedTotal: len(items), Succeeded: true, AttemptsUsed: 1}, nil
}

type fakeReconciler struct {
	calls map[string][]models.EnrichedItem
	err   error
}

func (f *fakeReconciler) Reconcile(_ context.Context, username, _ string, items []models.EnrichedItem) (*list.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.calls == nil {
		f.calls = make(map[string][]models.EnrichedItem)
	}
	f.calls[username] = items
	return &list.Result{ListID: 1, Added: len(items)}, nil
}

type fakeCatalog struct {
	genreIDs   map[string][]int
	lowQuality map[string]bool
}

func (f *fakeCatalog) Search(_ context.Context, title string, _ int) (*models.EnrichedItem, error) {
	ids, ok := f.genreIDs[title]
	if !ok {
		ids = []int{18} // drama by default
	}
	if len(ids) == 0 {
		return nil, tmdb.ErrNotFound
	}
	item := &models.EnrichedItem{
		TMDBID:      int64(len(title)*100 + len(ids)),
		Title:       title,
		GenreIDs:    ids,
		Popularity:  20,
		VoteAverage: 8,
		VoteCount:   5000,
	}
	if f.lowQuality[title] {
		item.Popularity = 1
		item.VoteAverage = 0.9
		item.VoteCount = 100
	}
	return item, nil
}

func newTestConfigs(t *testing.T) *Configs {
	t.Helper()
	st, err := store.NewBadgerStore("")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return NewConfigs(st, "test", 30*24*time.Hour)
}

func items(n int) []models.EnrichedItem {
	out := make([]models.EnrichedItem, n)
	for i := range out {
		out[i] = models.EnrichedItem{TMDBID: int64(i + 1), Title: fmt.Sprintf("Movie %d", i+1)}
	}
	return out
}

func TestConfigsRoundTrip(t *testing.T) {
	configs := newTestConfigs(t)
	ctx := context.Background()

	cfg := models.GenerationConfig{
		Username:  "alice",
		ListName:  "AI Recommendations",
		Window:    "1 month",
		Genres:    []string{"horror"},
		ListLimit: 20,
	}
	if err := configs.Save(ctx, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := configs.Get(ctx, "alice")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ListName != cfg.ListName || got.Window != cfg.Window {
		t.Errorf("Get = %+v, want %+v", got, cfg)
	}

	if err := configs.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := configs.Get(ctx, "alice"); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestConfigsSaveRequiresUsername(t *testing.T) {
	configs := newTestConfigs(t)
	if err := configs.Save(context.Background(), models.GenerationConfig{}); err == nil {
		t.Error("expected error for config without username")
	}
}

func TestConfigsAll(t *testing.T) {
	configs := newTestConfigs(t)
	ctx := context.Background()

	for _, user := range []string{"alice", "bob"} {
		if err := configs.Save(ctx, models.GenerationConfig{Username: user, ListName: "L", Window: "1 week"}); err != nil {
			t.Fatalf("Save %s failed: %v", user, err)
		}
	}

	all, err := configs.All(ctx)
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d configs, want 2", len(all))
	}
}

func TestUpdateAllMixedOutcomes(t *testing.T) {
	configs := newTestConfigs(t)
	ctx := context.Background()
	for _, user := range []string{"ok", "nohistory", "broken"} {
		if err := configs.Save(ctx, models.GenerationConfig{
			Username: user, ListName: "AI Recommendations", Window: "1 month", ListLimit: 20,
		}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	engine := &fakeEngine{
		results: map[string][]models.EnrichedItem{"ok": items(20)},
		errs: map[string]error{
			"nohistory": recommend.ErrNoHistory,
			"broken":    errors.New("gemini down"),
		},
	}
	reconciler := &fakeReconciler{}
	u := New(configs, engine, reconciler, &fakeCatalog{genreIDs: map[string][]int{}})

	summary, err := u.UpdateAll(ctx)
	if err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}

	if summary.Users != 3 {
		t.Errorf("users = %d, want 3", summary.Users)
	}
	if summary.Updated != 2 {
		t.Errorf("updated = %d, want 2 (one normal, one fallback)", summary.Updated)
	}
	if summary.Fallback != 1 {
		t.Errorf("fallback = %d, want 1", summary.Fallback)
	}
	if summary.Failed != 1 {
		t.Errorf("failed = %d, want 1", summary.Failed)
	}
	if len(summary.Errors) != 1 {
		t.Errorf("errors = %v, want one entry", summary.Errors)
	}

	if len(reconciler.calls["ok"]) != 20 {
		t.Errorf("ok reconciled with %d items, want 20", len(reconciler.calls["ok"]))
	}
	if len(reconciler.calls["nohistory"]) == 0 {
		t.Error("nohistory user should be reconciled with fallback items")
	}
}

func TestUpdateAllEmpty(t *testing.T) {
	configs := newTestConfigs(t)
	u := New(configs, &fakeEngine{}, &fakeReconciler{}, &fakeCatalog{})

	summary, err := u.UpdateAll(context.Background())
	if err != nil {
		t.Fatalf("UpdateAll failed: %v", err)
	}
	if summary.Users != 0 || summary.Updated != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v, want all zero", summary)
	}
}

func TestUpdateUserReconcileFailure(t *testing.T) {
	configs := newTestConfigs(t)
	engine := &fakeEngine{results: map[string][]models.EnrichedItem{"alice": items(5)}}
	u := New(configs, engine, &fakeReconciler{err: errors.New("trakt down")}, &fakeCatalog{})

	_, err := u.UpdateUser(context.Background(), models.GenerationConfig{
		Username: "alice", ListName: "L", Window: "1 month",
	})
	if err == nil {
		t.Fatal("expected error when reconciliation fails")
	}
}

func TestFallbackItemsGenreFilter(t *testing.T) {
	catalog := &fakeCatalog{genreIDs: map[string][]int{
		"Alien":     {27, 878},
		"The Thing": {27},
	}}
	// every other classic resolves to drama (18) via the default
	u := New(newTestConfigs(t), &fakeEngine{}, &fakeReconciler{}, catalog)

	got := u.fallbackItems(context.Background(), []string{"horror"}, 20)
	if len(got) != 1 {
		t.Fatalf("got %d fallback items %v, want 1 (only Alien is horror)", len(got), got)
	}
	if got[0].Title != "Alien" {
		t.Errorf("fallback item = %q, want Alien", got[0].Title)
	}
}

// Classics that resolve to a low-quality record are held to the same
// score floor as generated recommendations.
func TestFallbackItemsQualityFloor(t *testing.T) {
	catalog := &fakeCatalog{
		genreIDs: map[string][]int{},
		lowQuality: map[string]bool{
			"The Dark Knight": true, // scores 4.02, below the 5.0 floor
		},
	}
	u := New(newTestConfigs(t), &fakeEngine{}, &fakeReconciler{}, catalog)

	got := u.fallbackItems(context.Background(), nil, len(fallbackClassics))
	if len(got) != len(fallbackClassics)-1 {
		t.Fatalf("got %d fallback items, want %d (low-quality classic dropped)", len(got), len(fallbackClassics)-1)
	}
	for _, item := range got {
		if item.Title == "The Dark Knight" {
			t.Error("low-quality item passed the fallback quality floor")
		}
	}
}

func TestFallbackItemsLimit(t *testing.T) {
	u := New(newTestConfigs(t), &fakeEngine{}, &fakeReconciler{}, &fakeCatalog{genreIDs: map[string][]int{}})

	got := u.fallbackItems(context.Background(), nil, 5)
	if len(got) != 5 {
		t.Errorf("got %d fallback items, want 5", len(got))
	}
}

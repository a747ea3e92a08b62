// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package trakt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/cinefill/cinefill/internal/config"
	"github.com/cinefill/cinefill/internal/store"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *TokenManager) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st, err := store.NewBadgerStore("")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.TraktConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost/callback",
		BaseURL:      srv.URL,
		AuthorizeURL: "https://trakt.tv/oauth/authorize",
		Timeout:      5 * time.Second,
	}

	tokens := NewTokenManager(cfg, st, "test")
	if err := tokens.Store(context.Background(), "alice", &Tokens{
		AccessToken:  "valid-access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		CreatedAt:    time.Now(),
	}); err != nil {
		t.Fatalf("failed to seed tokens: %v", err)
	}

	return NewClient(cfg, tokens), tokens
}

func TestAuthURL(t *testing.T) {
	cfg := &config.TraktConfig{
		ClientID:     "cid",
		RedirectURI:  "http://localhost/callback",
		AuthorizeURL: "https://trakt.tv/oauth/authorize",
	}
	m := NewTokenManager(cfg, nil, "test")

	u := m.AuthURL()
	if !strings.HasPrefix(u, "https://trakt.tv/oauth/authorize?") {
		t.Errorf("AuthURL = %q, want authorize endpoint prefix", u)
	}
	for _, part := range []string{"response_type=code", "client_id=cid"} {
		if !strings.Contains(u, part) {
			t.Errorf("AuthURL missing %q: %s", part, u)
		}
	}
}

func TestHistoryPage(t *testing.T) {
	var gotQuery string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/alice/history/movies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("trakt-api-version") != "2" {
			t.Error("missing trakt-api-version header")
		}
		if r.Header.Get("Authorization") != "Bearer valid-access-token" {
			t.Errorf("unexpected authorization header %q", r.Header.Get("Authorization"))
		}
		gotQuery = r.URL.RawQuery

		fmt.Fprint(w, `[
			{"watched_at":"2026-08-01T20:00:00Z","type":"movie","movie":{"title":"Alien","year":1979,"ids":{"trakt":1,"tmdb":348},"genres":["horror","science-fiction"]}},
			{"watched_at":"2026-08-02T21:00:00Z","type":"movie","movie":{"title":"Moon","year":2009,"ids":{"trakt":2,"tmdb":17431}}}
		]`)
	})
	c, _ := newTestClient(t, handler)

	since := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	entries, err := c.HistoryPage(context.Background(), "alice", &since, 1, 100)
	if err != nil {
		t.Fatalf("HistoryPage failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Title != "Alien" || entries[0].TraktID != 1 || entries[0].TMDBID != 348 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[0].Kind != "observed" {
		t.Errorf("entry kind = %q, want observed", entries[0].Kind)
	}
	if !strings.Contains(gotQuery, "start_at=2026-07-01T00%3A00%3A00Z") {
		t.Errorf("query missing start_at: %s", gotQuery)
	}
	if !strings.Contains(gotQuery, "limit=100") {
		t.Errorf("query missing limit: %s", gotQuery)
	}
}

func TestHistoryPageSkipsUntitledRows(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"watched_at":"2026-08-01T20:00:00Z","type":"movie","movie":{"title":"","ids":{"trakt":9}}},
			{"watched_at":"2026-08-02T21:00:00Z","type":"movie","movie":{"title":"Moon","year":2009,"ids":{"trakt":2}}}
		]`)
	})
	c, _ := newTestClient(t, handler)

	entries, err := c.HistoryPage(context.Background(), "alice", nil, 1, 100)
	if err != nil {
		t.Fatalf("HistoryPage failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Moon" {
		t.Errorf("got %+v, want only Moon", entries)
	}
}

func TestFindListByName(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"name":"Watchlist Extras","ids":{"trakt":10,"slug":"watchlist-extras"}},
			{"name":"AI Recommendations","ids":{"trakt":11,"slug":"ai-recommendations"}}
		]`)
	})
	c, _ := newTestClient(t, handler)

	id, err := c.FindListByName(context.Background(), "alice", "AI Recommendations")
	if err != nil {
		t.Fatalf("FindListByName failed: %v", err)
	}
	if id != 11 {
		t.Errorf("list id = %d, want 11", id)
	}

	_, err = c.FindListByName(context.Background(), "alice", "No Such List")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["privacy"] != "private" {
			t.Errorf("privacy = %v, want private", body["privacy"])
		}
		if body["allow_comments"] != false {
			t.Errorf("allow_comments = %v, want false", body["allow_comments"])
		}
		if body["sort_by"] != "rank" || body["sort_how"] != "asc" {
			t.Errorf("sort = %v/%v, want rank/asc", body["sort_by"], body["sort_how"])
		}
		fmt.Fprint(w, `{"name":"AI Recommendations","ids":{"trakt":42,"slug":"ai-recommendations"}}`)
	})
	c, _ := newTestClient(t, handler)

	id, err := c.CreateList(context.Background(), "alice", "AI Recommendations")
	if err != nil {
		t.Fatalf("CreateList failed: %v", err)
	}
	if id != 42 {
		t.Errorf("list id = %d, want 42", id)
	}
}

func TestListItems(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/alice/lists/42/items/movies" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"type":"movie","movie":{"title":"Alien","ids":{"trakt":1,"tmdb":348}}},
			{"type":"movie","movie":{"title":"Unknown","ids":{"trakt":2}}},
			{"type":"movie","movie":{"title":"Moon","ids":{"trakt":3,"tmdb":17431}}}
		]`)
	})
	c, _ := newTestClient(t, handler)

	ids, err := c.ListItems(context.Background(), "alice", 42)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	want := []int64{348, 17431}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}

func TestAddItems(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload moviesPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if len(payload.Movies) != 3 {
			t.Errorf("payload has %d movies, want 3", len(payload.Movies))
		}
		fmt.Fprint(w, `{"added":{"movies":2},"existing":{"movies":1},"not_found":{"movies":[]}}`)
	})
	c, _ := newTestClient(t, handler)

	result, err := c.AddItems(context.Background(), "alice", 42, []int64{348, 17431, 550})
	if err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	if result.Added != 2 || result.Existing != 1 || result.NotFound != 0 {
		t.Errorf("result = %+v, want {2 1 0}", result)
	}
}

func TestAddItemsEmptyIsNoop(t *testing.T) {
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected for empty id set")
	})
	c, _ := newTestClient(t, handler)

	result, err := c.AddItems(context.Background(), "alice", 42, nil)
	if err != nil {
		t.Fatalf("AddItems failed: %v", err)
	}
	if result != (AddResult{}) {
		t.Errorf("result = %+v, want zero", result)
	}
}

func TestRemoveItems(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if r.URL.Path != "/users/alice/lists/42/items/remove" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"deleted":{"movies":2}}`)
	})
	c, _ := newTestClient(t, handler)

	if err := c.RemoveItems(context.Background(), "alice", 42, []int64{348, 17431}); err != nil {
		t.Fatalf("RemoveItems failed: %v", err)
	}
	if !called {
		t.Error("expected remove request")
	}
}

func TestAccessTokenMissing(t *testing.T) {
	c, tokens := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	_ = c

	_, err := tokens.AccessToken(context.Background(), "nobody")
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAccessTokenRefreshesExpired(t *testing.T) {
	refreshed := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var form map[string]string
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			t.Fatalf("failed to decode form: %v", err)
		}
		if form["grant_type"] != "refresh_token" {
			t.Errorf("grant_type = %q, want refresh_token", form["grant_type"])
		}
		refreshed = true
		fmt.Fprint(w, `{"access_token":"new-access","refresh_token":"new-refresh","expires_in":7200,"scope":"public","token_type":"bearer"}`)
	})
	_, tokens := newTestClient(t, handler)

	// overwrite the seeded pair with one that is past the refresh buffer
	if err := tokens.Store(context.Background(), "alice", &Tokens{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		CreatedAt:    time.Now().Add(-time.Hour),
	}); err != nil {
		t.Fatalf("failed to store stale tokens: %v", err)
	}

	token, err := tokens.AccessToken(context.Background(), "alice")
	if err != nil {
		t.Fatalf("AccessToken failed: %v", err)
	}
	if token != "new-access" {
		t.Errorf("token = %q, want new-access", token)
	}
	if !refreshed {
		t.Error("expected refresh request")
	}
}

func TestTokensExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		tokens Tokens
		want   bool
	}{
		{"fresh", Tokens{ExpiresIn: 3600, CreatedAt: now}, false},
		{"within buffer", Tokens{ExpiresIn: 3600, CreatedAt: now.Add(-56 * time.Minute)}, true},
		{"long expired", Tokens{ExpiresIn: 3600, CreatedAt: now.Add(-2 * time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tokens.expired(now); got != tt.want {
				t.Errorf("expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

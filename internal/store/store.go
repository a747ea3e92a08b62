// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

// Package store provides a namespaced key-value store with TTL support,
// backed by either Redis or an embedded Badger database. Values are
// stored as JSON documents.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrKeyNotFound is returned when a key does not exist or has expired.
// Callers distinguish this expected condition from transient backend
// failures with errors.Is.
var ErrKeyNotFound = errors.New("store: key not found")

// Key identifies a stored value. Keys are structured rather than free-form
// strings so that every caller builds them the same way and Scan can
// enumerate one kind without string surgery at call sites.
type Key struct {
	// Namespace isolates one deployment's keys from others sharing the
	// same backend instance.
	Namespace string

	// Kind groups keys by record type, e.g. "history", "token", "config".
	Kind string

	// Owner scopes the record to a user, typically a Trakt username.
	Owner string
}

// String renders the key in its wire form: namespace:kind:owner.
func (k Key) String() string {
	return k.Namespace + ":" + k.Kind + ":" + k.Owner
}

// Validate reports whether the key has all three components and none of
// them embed the separator.
func (k Key) Validate() error {
	if k.Namespace == "" || k.Kind == "" || k.Owner == "" {
		return fmt.Errorf("store: incomplete key %q", k.String())
	}
	if strings.ContainsRune(k.Namespace, ':') || strings.ContainsRune(k.Kind, ':') {
		return fmt.Errorf("store: key component contains separator: %q", k.String())
	}
	return nil
}

// parseKey is the inverse of Key.String. The owner component may itself
// contain colons, so only the first two separators split.
func parseKey(s string) (Key, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("store: malformed key %q", s)
	}
	return Key{Namespace: parts[0], Kind: parts[1], Owner: parts[2]}, nil
}

// Store is a key-value store holding JSON documents with per-key TTLs.
type Store interface {
	// Get unmarshals the value at key into dest. Returns ErrKeyNotFound
	// when the key is absent or expired.
	Get(ctx context.Context, key Key, dest any) error

	// Set marshals value and stores it at key. A zero ttl stores the
	// value without expiry.
	Set(ctx context.Context, key Key, value any, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// Scan returns every key with the given namespace and kind.
	Scan(ctx context.Context, namespace, kind string) ([]Key, error)

	// Close releases backend resources.
	Close() error
}

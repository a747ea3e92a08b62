// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/logging"
)

// BadgerStore implements Store on an embedded Badger database, for
// single-node deployments that should not depend on a Redis server.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

// NewBadgerStore opens (or creates) the Badger database at path.
// An empty path opens an in-memory database, used by tests.
func NewBadgerStore(path string) (*BadgerStore, error) {
	logger := logging.WithComponent("store.badger")

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store at %s: %w", path, err)
	}

	return &BadgerStore{db: db, logger: logger}, nil
}

// Get implements Store.
func (s *BadgerStore) Get(_ context.Context, key Key, dest any) error {
	if err := key.Validate(); err != nil {
		return err
	}

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, dest)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	return nil
}

// Set implements Store. Badger handles TTL natively via entry expiry.
func (s *BadgerStore) Set(_ context.Context, key Key, value any, ttl time.Duration) error {
	if err := key.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key.String()), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *BadgerStore) Delete(_ context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key.String()))
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Scan implements Store with a keys-only prefix iteration. Badger drops
// expired entries from iteration automatically.
func (s *BadgerStore) Scan(_ context.Context, namespace, kind string) ([]Key, error) {
	prefix := []byte(namespace + ":" + kind + ":")

	var keys []Key
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			raw := string(it.Item().Key())
			key, err := parseKey(raw)
			if err != nil {
				s.logger.Warn().Str("key", raw).Msg("skipping malformed key during scan")
				continue
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s%s: %w", namespace, kind, err)
	}
	return keys, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

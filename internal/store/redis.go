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

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cinefill/cinefill/internal/logging"
)

// RedisStore implements Store on a Redis server. TTLs map directly onto
// Redis key expiry, so expired records vanish without a sweeper.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects to the Redis server described by rawURL
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisStore(ctx context.Context, rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		logger: logging.WithComponent("store.redis"),
	}, nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, key Key, dest any) error {
	if err := key.Validate(); err != nil {
		return err
	}

	data, err := s.client.Get(ctx, key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// Set implements Store.
func (s *RedisStore) Set(ctx context.Context, key Key, value any, ttl time.Duration) error {
	if err := key.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}

	if err := s.client.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := s.client.Del(ctx, key.String()).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Scan implements Store using SCAN with a MATCH pattern, which walks the
// keyspace incrementally instead of blocking the server like KEYS would.
func (s *RedisStore) Scan(ctx context.Context, namespace, kind string) ([]Key, error) {
	pattern := namespace + ":" + kind + ":*"

	var keys []Key
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key, err := parseKey(iter.Val())
		if err != nil {
			s.logger.Warn().Str("key", iter.Val()).Msg("skipping malformed key during scan")
			continue
		}
		keys = append(keys, key)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", pattern, err)
	}
	return keys, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

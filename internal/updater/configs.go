// Cinefill - AI-Curated Movie Lists for Trakt
// Copyright 2026 Cinefill Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinefill/cinefill

package updater

import (
	"context"
	"fmt"
	"time"

	"github.com/cinefill/cinefill/internal/models"
	"github.com/cinefill/cinefill/internal/store"
)

// Configs persists per-user generation configurations so the nightly
// sweep can regenerate lists unattended. Records expire after the
// configured TTL unless the user generates again.
type Configs struct {
	store     store.Store
	namespace string
	ttl       time.Duration
}

// NewConfigs builds a config repository in the given key namespace.
func NewConfigs(st store.Store, namespace string, ttl time.Duration) *Configs {
	return &Configs{store: st, namespace: namespace, ttl: ttl}
}

func (c *Configs) key(username string) store.Key {
	return store.Key{Namespace: c.namespace, Kind: "config", Owner: username}
}

// Save stores the user's generation config, resetting its TTL.
func (c *Configs) Save(ctx context.Context, cfg models.GenerationConfig) error {
	if cfg.Username == "" {
		return fmt.Errorf("updater: config missing username")
	}
	return c.store.Set(ctx, c.key(cfg.Username), cfg, c.ttl)
}

// Get loads the user's generation config. Returns store.ErrKeyNotFound
// when none is stored.
func (c *Configs) Get(ctx context.Context, username string) (models.GenerationConfig, error) {
	var cfg models.GenerationConfig
	err := c.store.Get(ctx, c.key(username), &cfg)
	return cfg, err
}

// Delete removes the user's generation config.
func (c *Configs) Delete(ctx context.Context, username string) error {
	return c.store.Delete(ctx, c.key(username))
}

// All returns every stored generation config. Records that vanish or
// fail to decode between scan and read are skipped.
func (c *Configs) All(ctx context.Context) ([]models.GenerationConfig, error) {
	keys, err := c.store.Scan(ctx, c.namespace, "config")
	if err != nil {
		return nil, fmt.Errorf("failed to scan configs: %w", err)
	}

	configs := make([]models.GenerationConfig, 0, len(keys))
	for _, key := range keys {
		var cfg models.GenerationConfig
		if err := c.store.Get(ctx, key, &cfg); err != nil {
			continue
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

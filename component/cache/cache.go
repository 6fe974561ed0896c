// Package cache provides the redis client-pool component. A single node and a
// cluster are served behind the same universal handle.
package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kyrelabs/keel/component"
)

// Config is the "redis" section of the configuration document.
type Config struct {
	// Addrs lists server addresses. More than one address, or Cluster, selects
	// cluster mode.
	Addrs []string `toml:"addrs" yaml:"addrs"`
	// Cluster forces cluster mode even with a single seed address.
	Cluster bool `toml:"cluster" yaml:"cluster"`

	Password     string `toml:"password" yaml:"password"`
	DB           int    `toml:"db" yaml:"db"`
	PoolSize     int    `toml:"pool_size" yaml:"pool_size"`
	MinIdleConns int    `toml:"min_idle_conns" yaml:"min_idle_conns"`
}

// Provider builds a redis.UniversalClient from the "redis" section. The client
// keeps its own connection pool, so the singleton is shared by all callers.
type Provider struct{}

// ConfigKey returns the component's section key.
func (Provider) ConfigKey() string { return "redis" }

// Create opens the client and verifies connectivity with a ping.
func (Provider) Create(ctx context.Context, cfg Config, _ *component.Registry) (redis.UniversalClient, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("redis section requires at least one address")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:         cfg.Addrs,
		IsClusterMode: cfg.Cluster,
		Password:      cfg.Password,
		DB:            cfg.DB,
		PoolSize:      cfg.PoolSize,
		MinIdleConns:  cfg.MinIdleConns,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// FromRegistry resolves the cache component.
func FromRegistry(ctx context.Context, reg *component.Registry) (redis.UniversalClient, error) {
	return component.Resolve[redis.UniversalClient, Config](ctx, reg, Provider{})
}

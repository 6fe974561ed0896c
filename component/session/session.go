// Package session provides the session store component. Sessions live in the
// cache component as hashes with an idle expiry, so constructing the store
// constructs the redis client first when it does not exist yet.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kyrelabs/keel/component"
	"github.com/kyrelabs/keel/component/cache"
)

// DefaultLifetime applies when the section does not set one.
const DefaultLifetime = 24 * time.Hour

// ErrNoSession is returned for an unknown or expired session id.
var ErrNoSession = errors.New("session not found")

// Config is the "session" section of the configuration document.
type Config struct {
	// Lifetime is the idle expiry in time.ParseDuration syntax, e.g. "24h".
	// Reads and writes refresh it.
	Lifetime string `toml:"lifetime" yaml:"lifetime"`
	// Prefix namespaces session keys in the cache. Defaults to "session".
	Prefix string `toml:"prefix" yaml:"prefix"`
}

// Store reads and writes sessions through the cache component.
type Store struct {
	client   redis.UniversalClient
	prefix   string
	lifetime time.Duration
}

// Provider builds the session store, resolving the cache component through
// the registry handle it receives.
type Provider struct{}

// ConfigKey returns the component's section key.
func (Provider) ConfigKey() string { return "session" }

// Create resolves the cache dependency and validates the section.
func (Provider) Create(ctx context.Context, cfg Config, reg *component.Registry) (*Store, error) {
	client, err := cache.FromRegistry(ctx, reg)
	if err != nil {
		return nil, err
	}

	lifetime := DefaultLifetime
	if cfg.Lifetime != "" {
		d, err := time.ParseDuration(cfg.Lifetime)
		if err != nil {
			return nil, fmt.Errorf("parse session lifetime: %w", err)
		}
		lifetime = d
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "session"
	}

	return &Store{client: client, prefix: prefix, lifetime: lifetime}, nil
}

// FromRegistry resolves the session store component.
func FromRegistry(ctx context.Context, reg *component.Registry) (*Store, error) {
	return component.Resolve[*Store, Config](ctx, reg, Provider{})
}

// Lifetime returns the configured idle expiry.
func (s *Store) Lifetime() time.Duration {
	return s.lifetime
}

// Start creates a new empty session and returns its id.
func (s *Store) Start(ctx context.Context) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}

	key := s.key(id)
	if err := s.client.HSet(ctx, key, "_created", time.Now().UTC().Format(time.RFC3339)).Err(); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if err := s.client.Expire(ctx, key, s.lifetime).Err(); err != nil {
		return "", fmt.Errorf("set session expiry: %w", err)
	}
	return id, nil
}

// Put stores one field on the session and refreshes its expiry.
func (s *Store) Put(ctx context.Context, id, field, value string) error {
	key := s.key(id)

	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	if n == 0 {
		return ErrNoSession
	}

	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return s.client.Expire(ctx, key, s.lifetime).Err()
}

// Get reads one field from the session and refreshes its expiry.
func (s *Store) Get(ctx context.Context, id, field string) (string, error) {
	key := s.key(id)

	value, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}

	if err := s.client.Expire(ctx, key, s.lifetime).Err(); err != nil {
		return "", fmt.Errorf("refresh session expiry: %w", err)
	}
	return value, nil
}

// Destroy removes the session. Destroying an unknown session is not an error.
func (s *Store) Destroy(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

func newID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Package database provides the pooled SQL database component.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kyrelabs/keel/component"
)

// Config is the "database" section of the configuration document.
type Config struct {
	// Driver is the database/sql driver name, e.g. "sqlite3" or "postgres".
	Driver string `toml:"driver" yaml:"driver"`
	// DSN is the driver-specific data source name.
	DSN string `toml:"dsn" yaml:"dsn"`

	// Pool limits; zero leaves the database/sql default in place.
	MaxOpenConns int `toml:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int `toml:"max_idle_conns" yaml:"max_idle_conns"`

	// Durations in time.ParseDuration syntax, e.g. "30m".
	ConnMaxLifetime string `toml:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime string `toml:"conn_max_idle_time" yaml:"conn_max_idle_time"`
}

// Provider builds a *sql.DB from the "database" section. The handle is itself
// a connection pool, so the one constructed value is shared cheaply by all
// callers.
type Provider struct{}

// ConfigKey returns the component's section key.
func (Provider) ConfigKey() string { return "database" }

// Create opens the pool, applies the configured limits, and verifies
// connectivity with a ping.
func (Provider) Create(ctx context.Context, cfg Config, _ *component.Registry) (*sql.DB, error) {
	if cfg.Driver == "" || cfg.DSN == "" {
		return nil, fmt.Errorf("database section requires driver and dsn")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime != "" {
		d, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("parse conn_max_lifetime: %w", err)
		}
		db.SetConnMaxLifetime(d)
	}
	if cfg.ConnMaxIdleTime != "" {
		d, err := time.ParseDuration(cfg.ConnMaxIdleTime)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("parse conn_max_idle_time: %w", err)
		}
		db.SetConnMaxIdleTime(d)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// FromRegistry resolves the database component.
func FromRegistry(ctx context.Context, reg *component.Registry) (*sql.DB, error) {
	return component.Resolve[*sql.DB, Config](ctx, reg, Provider{})
}

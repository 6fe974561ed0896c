// Package app composes an application value with shared handles to the loaded
// configuration and the resolved environment. The context is built exactly
// once at startup and cloned cheaply by reference thereafter.
package app

import (
	"context"

	"github.com/kyrelabs/keel/config"
)

// InitFunc builds the application value from the loaded configuration and the
// resolved environment. It runs exactly once per process and may block, e.g.
// while constructing components.
type InitFunc[T any] func(ctx context.Context, cfg *config.Document, env config.Environment) (T, error)

// Context bundles the application value with the shared configuration and
// environment handles. The application value is exposed as a field rather
// than proxied, so its own methods are reached through App directly. Build a
// Context with Create; the zero value is not usable.
type Context[T any] struct {
	// App is the application value.
	App T

	cfg *config.Document
	env config.Environment
}

// Create runs init once and wraps its result with the shared handles. An init
// error aborts startup; no context is returned.
func Create[T any](ctx context.Context, init InitFunc[T], cfg *config.Document, env config.Environment) (*Context[T], error) {
	application, err := init(ctx, cfg, env)
	if err != nil {
		return nil, err
	}
	return &Context[T]{App: application, cfg: cfg, env: env}, nil
}

// Config returns the shared configuration document. Consumers must treat it
// as read-only.
func (c *Context[T]) Config() *config.Document {
	return c.cfg
}

// Environment returns the resolved environment.
func (c *Context[T]) Environment() config.Environment {
	return c.env
}

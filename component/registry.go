package component

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kyrelabs/keel"
	"github.com/kyrelabs/keel/config"
)

// Provider describes how a component kind T is configured and constructed.
// Implementations are small stateless values, typically `struct{}` types.
type Provider[T, C any] interface {
	// ConfigKey returns the document key holding this kind's configuration
	// section. The key also identifies the kind inside the registry, so it
	// must be unique per component kind.
	ConfigKey() string

	// Create builds the component from its decoded configuration section. It
	// may block while establishing outward connections and may resolve other
	// components through reg. The dependency graph induced by such calls must
	// stay acyclic; reentrant cycles fail fast with a cycle error.
	Create(ctx context.Context, cfg C, reg *Registry) (T, error)
}

// Registry owns the configuration document and the singleton components
// constructed from it. Entries are populated on demand and never removed; the
// registry is dropped at process shutdown together with everything it holds.
//
// A Registry value is a handle: the handles passed to providers share the
// instance store but carry their own construction chain for cycle detection.
type Registry struct {
	doc    *config.Document
	shared *state
	path   []string
}

type state struct {
	mu        sync.RWMutex
	instances map[string]any
	flight    singleflight.Group
}

// NewRegistry creates a registry over the loaded configuration document.
func NewRegistry(doc *config.Document) *Registry {
	return &Registry{
		doc:    doc,
		shared: &state{instances: make(map[string]any)},
	}
}

// Config returns the registry's configuration document.
func (r *Registry) Config() *config.Document {
	return r.doc
}

// Resolve returns the component built by p, constructing it on first use.
//
// Construction is single-flight: concurrent first requests for the same kind
// share one Create invocation and observe the same instance; callers arriving
// while construction is in flight wait for it. A failed construction leaves no
// entry, so a later request retries from scratch.
func Resolve[T, C any](ctx context.Context, r *Registry, p Provider[T, C]) (T, error) {
	var zero T
	tag := p.ConfigKey()

	if slices.Contains(r.path, tag) {
		return zero, keel.New(keel.KindCycle, tag,
			fmt.Sprintf("component %q requested during its own construction (chain %v)",
				tag, append(slices.Clone(r.path), tag)))
	}

	if v, ok := r.shared.lookup(tag); ok {
		return downcast[T](tag, v)
	}

	v, err, _ := r.shared.flight.Do(tag, func() (any, error) {
		// A winner may have finished between the lookup and this flight.
		if v, ok := r.shared.lookup(tag); ok {
			return v, nil
		}

		cfg, err := config.Section[C](r.doc, tag)
		if err != nil {
			return nil, err
		}

		child := &Registry{
			doc:    r.doc,
			shared: r.shared,
			path:   append(slices.Clip(r.path), tag),
		}
		instance, err := p.Create(ctx, cfg, child)
		if err != nil {
			return nil, keel.Wrap(keel.KindComponent, tag, err)
		}

		r.shared.store(tag, instance)
		return instance, nil
	})
	if err != nil {
		return zero, err
	}

	return downcast[T](tag, v)
}

func (s *state) lookup(tag string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.instances[tag]
	return v, ok
}

func (s *state) store(tag string, v any) {
	s.mu.Lock()
	s.instances[tag] = v
	s.mu.Unlock()
}

// downcast brings a type-erased stored instance back to its concrete type. A
// mismatch means two providers share a config key with different component
// types; that is a programming defect, not a recoverable runtime condition.
func downcast[T any](tag string, v any) (T, error) {
	instance, ok := v.(T)
	if !ok {
		var zero T
		return zero, keel.New(keel.KindInternal, tag,
			fmt.Sprintf("component %q stored as %T, not the requested type", tag, v))
	}
	return instance, nil
}

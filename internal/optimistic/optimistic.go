// Package optimistic applies speculative updates to a cached value and
// rolls them back when the server rejects the mutation.
package optimistic

import (
	"context"
	"sync"
)

// Value is a cached copy of server state. The zero value is empty and
// ready to use.
type Value[T any] struct {
	mu     sync.RWMutex
	v      T
	loaded bool
}

// Load returns the cached value and whether one is present.
func (c *Value[T]) Load() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v, c.loaded
}

func (c *Value[T]) Store(v T) {
	c.mu.Lock()
	c.v, c.loaded = v, true
	c.mu.Unlock()
}

// Invalidate drops the cached value so the next Get fetches.
func (c *Value[T]) Invalidate() {
	c.mu.Lock()
	var zero T
	c.v, c.loaded = zero, false
	c.mu.Unlock()
}

// Get returns the cached value, calling fetch and caching its result when
// nothing is cached.
func (c *Value[T]) Get(ctx context.Context, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Load(); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	c.Store(v)
	return v, nil
}

type snapshot[T any] struct {
	v      T
	loaded bool
}

func (c *Value[T]) speculate(apply func(T) T) snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := snapshot[T]{v: c.v, loaded: c.loaded}
	if c.loaded && apply != nil {
		c.v = apply(c.v)
	}
	return prev
}

func (c *Value[T]) restore(s snapshot[T]) {
	c.mu.Lock()
	c.v, c.loaded = s.v, s.loaded
	c.mu.Unlock()
}

// Mutation describes one optimistic write.
type Mutation[T any] struct {
	// Apply returns the expected state after the write. It must not modify
	// its argument. It is skipped when nothing is cached.
	Apply func(T) T
	// Request performs the write against the server.
	Request func(ctx context.Context) error
	// Refetch reloads server state after a successful write. When nil the
	// cache is invalidated instead.
	Refetch func(ctx context.Context) (T, error)
}

// Do snapshots v, applies the speculative update and performs the request.
// On failure the snapshot is restored verbatim and the request error is
// returned. On success v is refetched; a failed refetch only invalidates
// v because the write itself went through. Concurrent mutations of the
// same value are not ordered: whichever finishes last wins.
func Do[T any](ctx context.Context, v *Value[T], m Mutation[T]) error {
	prev := v.speculate(m.Apply)

	if err := m.Request(ctx); err != nil {
		v.restore(prev)
		return err
	}

	if m.Refetch == nil {
		v.Invalidate()
		return nil
	}
	fresh, err := m.Refetch(ctx)
	if err != nil {
		v.Invalidate()
		return nil
	}
	v.Store(fresh)
	return nil
}

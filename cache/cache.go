// Package cache keeps fetched collections in memory and merges mutation
// results into them without re-fetching.
package cache

import "sync"

// Keyed is an ordered collection whose items are identified by key.
type Keyed[K comparable, V any] struct {
	mu     sync.RWMutex
	key    func(V) K
	items  []V
	loaded bool
}

func NewKeyed[K comparable, V any](key func(V) K) *Keyed[K, V] {
	return &Keyed[K, V]{key: key}
}

// Items returns a copy of the collection and whether it was ever loaded.
func (c *Keyed[K, V]) Items() ([]V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	out := make([]V, len(c.items))
	copy(out, c.items)
	return out, true
}

// Set replaces the whole collection, as after a fetch.
func (c *Keyed[K, V]) Set(items []V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]V(nil), items...)
	c.loaded = true
}

func (c *Keyed[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if c.key(item) == k {
			return item, true
		}
	}
	var zero V
	return zero, false
}

// Prepend puts a newly created item first. An item with the same key is
// removed so the collection never holds duplicates.
func (c *Keyed[K, V]) Prepend(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(v)
	items := make([]V, 0, len(c.items)+1)
	items = append(items, v)
	for _, item := range c.items {
		if c.key(item) != k {
			items = append(items, item)
		}
	}
	c.items = items
	c.loaded = true
}

// Replace swaps the item with v's key for v, keeping its position. It
// reports false when no such item is cached.
func (c *Keyed[K, V]) Replace(v V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := c.key(v)
	for i := range c.items {
		if c.key(c.items[i]) == k {
			c.items[i] = v
			return true
		}
	}
	return false
}

// Invalidate forgets the collection so the next read fetches it.
func (c *Keyed[K, V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.loaded = false
}

// Value caches a single record.
type Value[V any] struct {
	mu     sync.RWMutex
	v      V
	loaded bool
}

func (c *Value[V]) Get() (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v, c.loaded
}

func (c *Value[V]) Set(v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v = v
	c.loaded = true
}

// Update applies fn to a loaded value. It reports false, leaving the cache
// empty, when nothing is loaded.
func (c *Value[V]) Update(fn func(V) V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return false
	}
	c.v = fn(c.v)
	return true
}

func (c *Value[V]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	c.v = zero
	c.loaded = false
}

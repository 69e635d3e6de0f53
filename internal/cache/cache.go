// Package cache holds finished scan trees keyed by their root path.
package cache

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/golang/groupcache/lru"
	"github.com/pkg/errors"

	"github.com/sadopc/dutree/internal/logging"
	"github.com/sadopc/dutree/internal/model"
)

var (
	// ErrNotCached is returned when no cached root covers a path.
	ErrNotCached = errors.New("path not cached")
	// ErrInsufficientDepth is returned when the cached tree is too shallow to
	// serve a request. It signals the caller to rebuild.
	ErrInsufficientDepth = errors.New("cached tree too shallow")
	// ErrNotDirectory is returned when a directory view is requested for a
	// file.
	ErrNotDirectory = errors.New("not a directory")
)

// Cache maps root paths to entries. Its lock only guards O(1) map operations;
// tree access goes through each entry's lock.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	// recency tracks use order when the number of roots is capped.
	recency *lru.Cache
	seq     atomic.Uint64
	logger  *logging.Logger
}

// New creates a cache. maxRoots caps the number of cached roots, evicting the
// least recently used; zero means unlimited.
func New(maxRoots int, logger *logging.Logger) *Cache {
	c := &Cache{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
	if maxRoots > 0 {
		c.recency = lru.New(maxRoots)
		c.recency.OnEvicted = func(key lru.Key, _ interface{}) {
			root := key.(string)
			delete(c.entries, root)
			c.logger.Debugf("dropped %s from cache", root)
		}
	}
	return c
}

// Begin returns a sequence number for a build that is about to start.
func (c *Cache) Begin() uint64 {
	return c.seq.Add(1)
}

// Put installs e unless an entry from a later build of the same root is
// already present.
func (c *Cache) Put(e *Entry) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[e.root]; ok && old.seq > e.seq {
		c.logger.Debugf("discarding stale build of %s", e.root)
		return false
	}
	c.entries[e.root] = e
	if c.recency != nil {
		c.recency.Add(e.root, nil)
	}
	return true
}

// Get returns the entry for exactly root.
func (c *Cache) Get(root string) (*Entry, bool) {
	if c.recency != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries[root]
		if ok {
			c.recency.Get(root)
		}
		return e, ok
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[root]
	return e, ok
}

// Invalidate drops the entry for root.
func (c *Cache) Invalidate(root string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[root]
	delete(c.entries, root)
	if c.recency != nil {
		c.recency.Remove(root)
	}
	return ok
}

// Len returns the number of cached roots.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Roots returns the cached roots in lexical order.
func (c *Cache) Roots() []string {
	c.mu.RLock()
	roots := make([]string, 0, len(c.entries))
	for root := range c.entries {
		roots = append(roots, root)
	}
	c.mu.RUnlock()
	sort.Strings(roots)
	return roots
}

// Covering returns every entry whose root is path or an ancestor of path,
// deepest root first.
func (c *Cache) Covering(path string) []*Entry {
	return c.filter(func(root string) bool { return model.Contains(root, path) })
}

// Within returns every entry whose root is path or lies below it.
func (c *Cache) Within(path string) []*Entry {
	return c.filter(func(root string) bool { return model.Contains(path, root) })
}

// Lookup returns the entry with the deepest root covering path.
func (c *Cache) Lookup(path string) (*Entry, bool) {
	covering := c.Covering(path)
	if len(covering) == 0 {
		return nil, false
	}
	c.touch(covering[0].root)
	return covering[0], true
}

func (c *Cache) filter(match func(root string) bool) []*Entry {
	c.mu.RLock()
	var out []*Entry
	for root, e := range c.entries {
		if match(root) {
			out = append(out, e)
		}
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].root) != len(out[j].root) {
			return len(out[i].root) > len(out[j].root)
		}
		return out[i].root < out[j].root
	})
	return out
}

func (c *Cache) touch(root string) {
	if c.recency == nil {
		return
	}
	c.mu.Lock()
	if _, ok := c.entries[root]; ok {
		c.recency.Get(root)
	}
	c.mu.Unlock()
}

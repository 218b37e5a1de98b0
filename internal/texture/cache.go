package texture

import (
	"image"
	"sync"
)

// Resolver resolves a backdrop name to a decoded image.
type Resolver interface {
	Resolve(name string) *image.NRGBA
}

// Cache is a concurrency-safe image cache. Names go through the index when
// one is set; otherwise they are used as paths.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index
}

// NewCache creates a cache backed by index, which may be nil.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
	}
}

// Resolve loads and caches an image. It returns nil when the name cannot be
// resolved or decoded; failures are cached too.
func (c *Cache) Resolve(name string) *image.NRGBA {
	path := name
	if c.index != nil {
		p, ok := c.index.ResolvePath(name)
		if !ok {
			return nil
		}
		path = p
	}

	c.mu.RLock()
	if img, ok := c.items[path]; ok {
		c.mu.RUnlock()
		return img
	}
	c.mu.RUnlock()

	img, _ := Load(path)

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.items[path]; ok {
		return cached
	}
	c.items[path] = img
	return img
}

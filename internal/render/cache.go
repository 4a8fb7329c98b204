package render

import "container/list"

// DefaultCacheCapacity bounds the pixel cache when no capacity is configured.
const DefaultCacheCapacity = 20

// Key identifies one cached rasterization. Requests differing in any
// component are independent entries.
type Key struct {
	Page int
	DPI  int
	Safe bool // decode path
}

// PixelCache is a fixed-capacity LRU cache of rendered page images. It
// assumes a single accessor at a time; the owning session serializes access.
type PixelCache struct {
	capacity int
	ll       *list.List
	items    map[Key]*list.Element
}

type cacheEntry struct {
	key    Key
	raster *Raster
}

// NewPixelCache creates a cache holding at most capacity entries.
func NewPixelCache(capacity int) *PixelCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &PixelCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[Key]*list.Element),
	}
}

// Get returns the cached raster for key and promotes it to most recently
// used. A miss has no side effect.
func (c *PixelCache) Get(key Key) (*Raster, bool) {
	elem, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(elem)
	return elem.Value.(*cacheEntry).raster, true
}

// Put inserts or replaces the entry for key at the most-recently-used
// position, evicting least-recently-used entries while over capacity.
func (c *PixelCache) Put(key Key, raster *Raster) {
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).raster = raster
		c.ll.MoveToFront(elem)
		return
	}
	c.items[key] = c.ll.PushFront(&cacheEntry{key: key, raster: raster})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

// Purge discards every entry. Used when the owning document is replaced or a
// rendering parameter changes.
func (c *PixelCache) Purge() {
	c.ll.Init()
	c.items = make(map[Key]*list.Element)
}

// Len returns the number of cached entries.
func (c *PixelCache) Len() int { return c.ll.Len() }

// Capacity returns the fixed capacity.
func (c *PixelCache) Capacity() int { return c.capacity }

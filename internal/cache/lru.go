package cache

import (
	"container/list"
	"sync"
)

// Image is a cached poster body.
type Image struct {
	ContentType string
	Data        []byte
}

// LRUCache is a thread-safe LRU for poster images, bounded both by entry
// count and by total bytes.
type LRUCache struct {
	capacity int
	size     int64
	maxSize  int64
	items    map[string]*list.Element
	order    *list.List
	mu       sync.Mutex

	hits, misses uint64
}

type lruEntry struct {
	key string
	img Image
}

func NewLRUCache(capacity int, maxSizeBytes int64) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		maxSize:  maxSizeBytes,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (c *LRUCache) Get(key string) (Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		return elem.Value.(*lruEntry).img, true
	}
	c.misses++
	return Image{}, false
}

// Set adds or replaces key. Images larger than the byte budget are not kept.
func (c *LRUCache) Set(key string, img Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := int64(len(img.Data))
	if n > c.maxSize {
		return
	}

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*lruEntry)
		c.size += n - int64(len(entry.img.Data))
		entry.img = img
		c.order.MoveToFront(elem)
		c.trim()
		return
	}

	for c.order.Len() >= c.capacity || (c.size+n > c.maxSize && c.order.Len() > 0) {
		c.evictOldest()
	}

	c.items[key] = c.order.PushFront(&lruEntry{key: key, img: img})
	c.size += n
}

// Stats returns entry count, total bytes, hits and misses.
func (c *LRUCache) Stats() (count int, size int64, hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len(), c.size, c.hits, c.misses
}

func (c *LRUCache) trim() {
	for c.size > c.maxSize && c.order.Len() > 1 {
		c.evictOldest()
	}
}

func (c *LRUCache) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *LRUCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*lruEntry)
	c.order.Remove(elem)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.img.Data))
}

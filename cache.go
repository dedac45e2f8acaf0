package md2word

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/alnah/go-md2word/internal/yamlutil"
)

// Cache defaults.
const (
	DefaultCacheCapacity = 10
	DefaultCacheTTL      = 5 * time.Minute
)

// Cache holds recent HTML results keyed by source text and options. It is
// safe for concurrent use; stored entries are never modified.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time
	entries  map[string]*cacheEntry
	order    []string // insertion order, oldest first
}

type cacheEntry struct {
	html    string
	stats   Stats
	expires time.Time
}

// NewCache returns a cache of capacity entries that expire after ttl.
// Non-positive values select the defaults.
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		entries:  make(map[string]*cacheEntry, capacity),
	}
}

// cacheKey hashes the text with the serialized options. ok is false when
// the options cannot be serialized, which disables caching for the call.
func cacheKey(text string, opts ConversionOptions, clean CleanerOptions) (key string, ok bool) {
	o, err := yamlutil.Marshal(opts)
	if err != nil {
		return "", false
	}
	c, err := yamlutil.Marshal(clean)
	if err != nil {
		return "", false
	}

	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write(o)
	h.Write([]byte{0})
	h.Write(c)
	return hex.EncodeToString(h.Sum(nil)), true
}

func (c *Cache) get(key string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		c.remove(key)
		return nil, false
	}
	return e, true
}

func (c *Cache) set(key, html string, stats Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	for len(c.order) >= c.capacity {
		c.remove(c.order[0])
	}
	c.entries[key] = &cacheEntry{html: html, stats: stats, expires: c.now().Add(c.ttl)}
	c.order = append(c.order, key)
}

// remove deletes key. The caller holds mu.
func (c *Cache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	c.order = nil
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

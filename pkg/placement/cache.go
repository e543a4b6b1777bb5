package placement

import (
	"container/list"
	"fmt"
	"math"
	"sync"
	"time"
)

// ViewportCache memoizes viewport snapshots keyed by a fingerprint of the map
// state.
//
// Placement reads bounds and container geometry several times per interaction.
// The cache answers repeated reads for an unchanged map from memory for up to
// TTL, and evicts least-recently-used snapshots when it holds more than its
// entry limit. It is a pure performance optimization: a nil cache, or one that
// is cleared before every call, produces identical snapshots.
//
// The cache is safe for concurrent use.
//
// Example:
//
//	cache := placement.NewViewportCache(time.Second, 64)
//
//	// On every placement request
//	snap, err := cache.Get(view)
//
//	// On the map's move-end / zoom-end events
//	_ = cache.InvalidateOnMapStateChange(view)
type ViewportCache struct {
	ttl        time.Duration
	maxEntries int
	entries    map[string]*viewportEntry
	lru        *list.List // LRU list (most recent at front)
	now        func() time.Time
	mu         sync.Mutex

	hits      int64
	misses    int64
	evictions int64
}

// viewportEntry tracks a cached snapshot and its metadata
type viewportEntry struct {
	key      string
	snapshot ViewportSnapshot
	inserted time.Time
	element  *list.Element // Position in LRU list
}

// NewViewportCache creates a cache whose entries live for ttl. maxEntries
// bounds the number of snapshots held; set to 0 for no limit.
func NewViewportCache(ttl time.Duration, maxEntries int) *ViewportCache {
	return &ViewportCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*viewportEntry),
		lru:        list.New(),
		now:        time.Now,
	}
}

// WithClock replaces the time source, mainly for tests. It returns c.
func (c *ViewportCache) WithClock(now func() time.Time) *ViewportCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
	return c
}

// Fingerprint derives the cache key for the current state of view: center
// rounded to 6 decimal places, zoom, and container size in whole pixels.
func Fingerprint(view MapView) (string, error) {
	center, err := view.Center()
	if err != nil {
		return "", queryErr("center", err)
	}
	zoom, err := view.Zoom()
	if err != nil {
		return "", queryErr("zoom", err)
	}
	size, err := containerSize(view)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.6f,%.6f,%d,%d,%d",
		microdegrees(center.Lat), microdegrees(center.Lon), zoom,
		int64(math.Round(size.Width)), int64(math.Round(size.Height))), nil
}

// microdegrees rounds v to 6 decimal places. Values that round to zero lose
// their sign so both sides of the equator and prime meridian share a key.
func microdegrees(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if r == 0 {
		return 0
	}
	return r
}

// Get returns the snapshot for the current state of view.
//
// On a hit younger than TTL the cached snapshot is returned. Otherwise the map
// is queried, the result stored, and returned. Errors raised by the map are
// returned as *MapQueryError and nothing is cached.
//
// Calling Get on a nil cache reads the map directly.
func (c *ViewportCache) Get(view MapView) (ViewportSnapshot, error) {
	if c == nil {
		return ReadSnapshot(view)
	}

	key, err := Fingerprint(view)
	if err != nil {
		return ViewportSnapshot{}, err
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		if c.now().Sub(entry.inserted) < c.ttl {
			c.hits++
			c.lru.MoveToFront(entry.element)
			snap := entry.snapshot
			c.mu.Unlock()
			return snap, nil
		}
		// Expired
		c.removeEntry(entry)
	}
	c.misses++
	c.mu.Unlock()

	// Cache miss - read the map without holding the lock
	snap, err := ReadSnapshot(view)
	if err != nil {
		return ViewportSnapshot{}, err
	}

	c.mu.Lock()
	c.add(key, snap)
	c.mu.Unlock()

	return snap, nil
}

// add stores a snapshot, replacing any entry with the same key.
// Must be called with c.mu locked.
func (c *ViewportCache) add(key string, snap ViewportSnapshot) {
	if entry, ok := c.entries[key]; ok {
		// Another caller stored the same state meanwhile; keep the newer one
		entry.snapshot = snap
		entry.inserted = c.now()
		c.lru.MoveToFront(entry.element)
		return
	}

	// Evict until we have space
	if c.maxEntries > 0 {
		for len(c.entries) >= c.maxEntries && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &viewportEntry{
		key:      key,
		snapshot: snap,
		inserted: c.now(),
	}
	entry.element = c.lru.PushFront(entry)
	c.entries[key] = entry
}

// evictLRU removes the least recently used snapshot from cache.
// Must be called with c.mu locked.
func (c *ViewportCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.removeEntry(elem.Value.(*viewportEntry))
}

// removeEntry drops entry and counts an eviction.
// Must be called with c.mu locked.
func (c *ViewportCache) removeEntry(entry *viewportEntry) {
	c.lru.Remove(entry.element)
	delete(c.entries, entry.key)
	c.evictions++
}

// Clear removes all snapshots from the cache.
func (c *ViewportCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.evictions += int64(len(c.entries))
	c.entries = make(map[string]*viewportEntry)
	c.lru.Init()
}

// StalePredicate decides whether a cached snapshot should be dropped.
// age is the time elapsed since the snapshot was stored.
type StalePredicate func(key string, snap ViewportSnapshot, age time.Duration) bool

// ClearStale removes only the snapshots for which stale returns true and
// reports how many were removed.
func (c *ViewportCache) ClearStale(stale StalePredicate) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Front(); elem != nil; {
		next := elem.Next()
		entry := elem.Value.(*viewportEntry)
		if stale(entry.key, entry.snapshot, now.Sub(entry.inserted)) {
			c.removeEntry(entry)
			removed++
		}
		elem = next
	}
	return removed
}

// InvalidateOnMapStateChange drops every snapshot that does not describe the
// current state of view. Call it from the host map's move-end and zoom-end
// handlers so a stale snapshot is never served within its TTL.
func (c *ViewportCache) InvalidateOnMapStateChange(view MapView) error {
	if c == nil {
		return nil
	}
	current, err := Fingerprint(view)
	if err != nil {
		return fmt.Errorf("invalidate viewport cache: %w", err)
	}
	c.ClearStale(func(key string, _ ViewportSnapshot, _ time.Duration) bool {
		return key != current
	})
	return nil
}

// Stats returns cache statistics.
func (c *ViewportCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
		Size:       len(c.entries),
		MaxEntries: c.maxEntries,
	}
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits       int64 // Lookups answered from memory
	Misses     int64 // Lookups that queried the map
	Evictions  int64 // Snapshots dropped by TTL, LRU, Clear or invalidation
	Size       int   // Number of snapshots currently cached
	MaxEntries int   // Entry limit, 0 for unlimited
}

// HitRatio returns Hits/(Hits+Misses), or 0 before the first lookup.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

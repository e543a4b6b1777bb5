package placement

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheBasic(t *testing.T) {
	cache := NewViewportCache(time.Second, 0)
	view := tokyoView()

	// Test empty cache
	stats := cache.Stats()
	if stats.Size != 0 {
		t.Errorf("Expected empty cache, got %d snapshots", stats.Size)
	}

	// Test cache miss
	first, err := cache.Get(view)
	if err != nil {
		t.Fatalf("Failed to read snapshot: %v", err)
	}
	if first.Zoom != 10 || first.Center != tokyo {
		t.Errorf("Unexpected snapshot %+v", first)
	}
	if first.Size() != (Size{Width: 1024, Height: 768}) {
		t.Errorf("Expected container size 1024x768, got %v", first.Size())
	}

	// Test cache hit
	second, err := cache.Get(view)
	if err != nil {
		t.Fatalf("Failed to get cached snapshot: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected cached snapshot %+v, got %+v", first, second)
	}

	stats = cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Expected 1 hit, 1 miss, 1 entry, got %+v", stats)
	}
	if stats.HitRatio() != 0.5 {
		t.Errorf("Expected hit ratio 0.5, got %f", stats.HitRatio())
	}
}

func TestCacheAvoidsBoundsQueries(t *testing.T) {
	cache := NewViewportCache(time.Second, 0)
	view := tokyoView()

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	afterMiss := view.Queries()

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	afterHit := view.Queries()

	if _, err := ReadSnapshot(view); err != nil {
		t.Fatal(err)
	}
	direct := view.Queries() - afterHit

	if hitCost := afterHit - afterMiss; hitCost >= afterMiss {
		t.Errorf("Expected a hit (%d queries) to be cheaper than a miss (%d queries)", hitCost, afterMiss)
	}
	if direct != 4 {
		t.Errorf("Expected a direct read to take 4 queries, took %d", direct)
	}
}

func TestCacheTTL(t *testing.T) {
	clock := newFakeClock()
	cache := NewViewportCache(time.Second, 0).WithClock(clock.Now)
	view := tokyoView()

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	clock.Advance(999 * time.Millisecond)
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	if stats := cache.Stats(); stats.Hits != 1 {
		t.Fatalf("Expected hit within TTL, got %+v", stats)
	}

	clock.Advance(time.Millisecond)
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	stats := cache.Stats()
	if stats.Misses != 2 || stats.Evictions != 1 || stats.Size != 1 {
		t.Errorf("Expected expiry to cause a miss and an eviction, got %+v", stats)
	}
}

func TestCacheFingerprintChanges(t *testing.T) {
	cache := NewViewportCache(time.Second, 0)
	view := tokyoView()

	before, err := cache.Get(view)
	if err != nil {
		t.Fatal(err)
	}

	view.PanTo(osaka)
	after, err := cache.Get(view)
	if err != nil {
		t.Fatal(err)
	}
	if before.Center == after.Center || before.Bounds == after.Bounds {
		t.Errorf("Expected a new snapshot after panning, got %+v", after)
	}

	view.Resize(Size{Width: 800, Height: 600})
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}

	if stats := cache.Stats(); stats.Misses != 3 || stats.Size != 3 {
		t.Errorf("Expected 3 misses and 3 entries, got %+v", stats)
	}
}

func TestCacheEviction(t *testing.T) {
	cache := NewViewportCache(time.Minute, 2)
	view := tokyoView()

	// Three distinct map states for a two-entry cache
	for zoom := 8; zoom <= 10; zoom++ {
		view.SetZoom(zoom)
		if _, err := cache.Get(view); err != nil {
			t.Fatalf("Failed to read zoom %d: %v", zoom, err)
		}
	}

	stats := cache.Stats()
	if stats.Size != 2 {
		t.Errorf("Expected 2 entries, got %d", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}

	// Zoom 8 was least recently used and must be reloaded
	view.SetZoom(8)
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	if stats := cache.Stats(); stats.Misses != 4 {
		t.Errorf("Expected evicted state to miss, got %+v", stats)
	}
}

func TestCacheClear(t *testing.T) {
	cache := NewViewportCache(time.Minute, 0)
	view := tokyoView()

	for zoom := 5; zoom < 10; zoom++ {
		view.SetZoom(zoom)
		if _, err := cache.Get(view); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Stats().Size != 5 {
		t.Errorf("Expected 5 snapshots, got %d", cache.Stats().Size)
	}

	// Clear cache
	cache.Clear()

	if cache.Stats().Size != 0 {
		t.Errorf("Expected empty cache after clear, got %d snapshots", cache.Stats().Size)
	}
}

func TestCacheClearStale(t *testing.T) {
	clock := newFakeClock()
	cache := NewViewportCache(time.Minute, 0).WithClock(clock.Now)
	view := tokyoView()

	for zoom := 5; zoom < 8; zoom++ {
		view.SetZoom(zoom)
		if _, err := cache.Get(view); err != nil {
			t.Fatal(err)
		}
		clock.Advance(10 * time.Second)
	}

	removed := cache.ClearStale(func(_ string, snap ViewportSnapshot, age time.Duration) bool {
		return age > 15*time.Second
	})
	if removed != 2 {
		t.Errorf("Expected 2 stale snapshots removed, got %d", removed)
	}
	if cache.Stats().Size != 1 {
		t.Errorf("Expected 1 snapshot left, got %d", cache.Stats().Size)
	}
}

func TestCacheInvalidateOnMapStateChange(t *testing.T) {
	cache := NewViewportCache(time.Minute, 0)
	view := tokyoView()

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	view.PanTo(osaka)
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}

	if err := cache.InvalidateOnMapStateChange(view); err != nil {
		t.Fatalf("InvalidateOnMapStateChange() error = %v", err)
	}
	if cache.Stats().Size != 1 {
		t.Fatalf("Expected only the current state to survive, got %d", cache.Stats().Size)
	}

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	if stats := cache.Stats(); stats.Hits != 1 {
		t.Errorf("Expected current state to still hit, got %+v", stats)
	}
}

// TestCacheTransparency checks that caching never changes the snapshot.
func TestCacheTransparency(t *testing.T) {
	view := tokyoView()
	cached := NewViewportCache(time.Second, 0)
	cleared := NewViewportCache(time.Second, 0)

	var disabled *ViewportCache
	for i := 0; i < 5; i++ {
		a, err := cached.Get(view)
		if err != nil {
			t.Fatal(err)
		}
		cleared.Clear()
		b, err := cleared.Get(view)
		if err != nil {
			t.Fatal(err)
		}
		c, err := disabled.Get(view)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(a, c) {
			t.Fatalf("Snapshots differ: cached=%+v cleared=%+v disabled=%+v", a, b, c)
		}
	}

	if cached.Stats().Hits != 4 || cleared.Stats().Hits != 0 {
		t.Errorf("Expected only counters to differ, got cached=%+v cleared=%+v", cached.Stats(), cleared.Stats())
	}
}

func TestCacheMapFailure(t *testing.T) {
	cache := NewViewportCache(time.Second, 0)
	view := tokyoView()
	view.Fail(errDetached)

	_, err := cache.Get(view)
	var qe *MapQueryError
	if !errors.As(err, &qe) {
		t.Fatalf("Expected MapQueryError, got %v", err)
	}
	if !errors.Is(err, errDetached) {
		t.Errorf("Expected wrapped host error, got %v", err)
	}
	if cache.Stats().Size != 0 {
		t.Error("Expected nothing cached after a failure")
	}
	if err := cache.InvalidateOnMapStateChange(view); !errors.Is(err, errDetached) {
		t.Errorf("Expected invalidation to report the host error, got %v", err)
	}
}

func TestFingerprint(t *testing.T) {
	view := NewStaticView(tokyo, 10, Size{Width: 1024.4, Height: 767.6})

	key, err := Fingerprint(view)
	if err != nil {
		t.Fatal(err)
	}
	if want := "35.676200,139.650300,10,1024,768"; key != want {
		t.Errorf("Expected fingerprint %q, got %q", want, key)
	}

	// Sub-precision movement keeps the fingerprint
	view.PanTo(LatLon(35.6762000001, 139.6503000001))
	moved, err := Fingerprint(view)
	if err != nil {
		t.Fatal(err)
	}
	if moved != key {
		t.Errorf("Expected fingerprint to ignore sub-microdegree movement, got %q", moved)
	}
}

func TestFingerprintNearZero(t *testing.T) {
	view := NewStaticView(LatLon(-0.0000004, -0.0000004), 10, Size{Width: 1024, Height: 768})
	west, err := Fingerprint(view)
	if err != nil {
		t.Fatal(err)
	}
	if want := "0.000000,0.000000,10,1024,768"; west != want {
		t.Errorf("Expected fingerprint %q, got %q", want, west)
	}

	view.PanTo(LatLon(0.0000004, 0.0000004))
	east, err := Fingerprint(view)
	if err != nil {
		t.Fatal(err)
	}
	if east != west {
		t.Errorf("Expected %q on both sides of zero, got %q", west, east)
	}
}

func TestCacheHitAcrossZero(t *testing.T) {
	clock := newFakeClock()
	cache := NewViewportCache(time.Second, 0).WithClock(clock.Now)
	view := NewStaticView(LatLon(-0.0000004, 0), 3, Size{Width: 800, Height: 600})

	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}
	view.PanTo(LatLon(0.0000004, 0))
	if _, err := cache.Get(view); err != nil {
		t.Fatal(err)
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d hits and %d misses", stats.Hits, stats.Misses)
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	cache := NewViewportCache(time.Second, 4)
	view := tokyoView()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := cache.Get(view); err != nil {
					t.Error(err)
					return
				}
				if j%10 == 0 {
					cache.ClearStale(func(string, ViewportSnapshot, time.Duration) bool { return i%2 == 0 })
				}
			}
		}(i)
	}
	wg.Wait()

	stats := cache.Stats()
	if stats.Hits+stats.Misses != 400 {
		t.Errorf("Expected 400 lookups, got %+v", stats)
	}
}

package md2word

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedCache(capacity int, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestNewCache_Defaults(t *testing.T) {
	t.Parallel()

	c := NewCache(0, -time.Second)
	if c.capacity != DefaultCacheCapacity || c.ttl != DefaultCacheTTL {
		t.Errorf("NewCache(0, -1s) = %d/%v, want %d/%v", c.capacity, c.ttl, DefaultCacheCapacity, DefaultCacheTTL)
	}
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	c, clock := newClockedCache(4, time.Minute)
	c.set("k", "<p>x</p>", Stats{Words: 1})

	clock.Advance(59 * time.Second)
	if e, ok := c.get("k"); !ok || e.html != "<p>x</p>" {
		t.Fatalf("get before expiry = %v, %v", e, ok)
	}

	clock.Advance(time.Second)
	if _, ok := c.get("k"); ok {
		t.Error("get at expiry hit, want miss")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want expired entry dropped", c.Len())
	}
}

func TestCache_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(2, time.Hour)
	c.set("a", "A", Stats{})
	c.set("b", "B", Stats{})
	c.get("a") // reads do not refresh insertion order
	c.set("c", "C", Stats{})

	if _, ok := c.get("a"); ok {
		t.Error("oldest entry a survived eviction")
	}
	for _, k := range []string{"b", "c"} {
		if _, ok := c.get(k); !ok {
			t.Errorf("entry %s evicted, want kept", k)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_SetReplaces(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(2, time.Hour)
	c.set("a", "old", Stats{})
	c.set("b", "B", Stats{})
	c.set("a", "new", Stats{})
	c.set("c", "C", Stats{})

	// a was reinserted after b, so b is now the oldest.
	if _, ok := c.get("b"); ok {
		t.Error("entry b survived, want evicted")
	}
	if e, ok := c.get("a"); !ok || e.html != "new" {
		t.Errorf("get(a) = %v, %v, want new", e, ok)
	}
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	c, _ := newClockedCache(4, time.Hour)
	c.set("a", "A", Stats{})
	c.set("b", "B", Stats{})
	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	c.set("c", "C", Stats{})
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	base := DefaultOptions()
	other := DefaultOptions()
	other.Table.MergeCells = false
	noCite := DefaultCleanerOptions()
	noCite.RemoveCitations = false

	k1, ok := cacheKey("text", base, DefaultCleanerOptions())
	if !ok {
		t.Fatal("cacheKey() not ok")
	}
	k2, _ := cacheKey("text", base, DefaultCleanerOptions())
	if k1 != k2 {
		t.Error("equal inputs give different keys")
	}

	for name, k := range map[string]string{
		"text":    mustKey(t, "text2", base, DefaultCleanerOptions()),
		"options": mustKey(t, "text", other, DefaultCleanerOptions()),
		"cleaner": mustKey(t, "text", base, noCite),
	} {
		if k == k1 {
			t.Errorf("changing %s keeps the key", name)
		}
	}
}

func mustKey(t *testing.T, text string, o ConversionOptions, c CleanerOptions) string {
	t.Helper()
	k, ok := cacheKey(text, o, c)
	if !ok {
		t.Fatal("cacheKey() not ok")
	}
	return k
}

func TestCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := NewCache(8, time.Hour)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := string(rune('a' + i%10))
			c.set(key, key, Stats{})
			c.get(key)
		}()
	}
	wg.Wait()

	if n := c.Len(); n > 8 {
		t.Errorf("Len() = %d, want at most 8", n)
	}
}

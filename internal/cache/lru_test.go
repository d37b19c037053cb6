package cache

import (
	"testing"
	"time"
)

func newTestCache(t *testing.T, size int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	t.Helper()
	c := NewLRUCache[string](size, ttl)
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(t, 2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b was least recently used and should be evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("%s should still be cached", k)
		}
	}
	if got := c.Size(); got != 2 {
		t.Fatalf("Size = %d, want 2", got)
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	c, now := newTestCache(t, 10, time.Minute)
	c.Set("rev:1", "x")
	c.Set("rev:2", "y")

	*now = now.Add(2 * time.Minute)
	c.Set("rev:3", "z")

	if _, ok := c.Get("rev:1"); ok {
		t.Fatal("expired entry returned")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1 (rev:2)", n)
	}
	if v, ok := c.Get("rev:3"); !ok || v != "z" {
		t.Fatalf("Get(rev:3) = %q, %v", v, ok)
	}
}

func TestLRUCache_Stats(t *testing.T) {
	c, _ := newTestCache(t, 4, time.Minute)
	c.Get("missing")
	c.Set("k", "v")
	c.Get("k")
	c.Get("k")
	c.Delete("k")
	c.Get("k")

	want := Stats{Hits: 2, Misses: 2, Entries: 0}
	if got := c.Stats(); got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
}

type countingCleaner struct{ n int }

func (c *countingCleaner) CleanExpired() int { c.n++; return 1 }

func TestManager_SweepAndStop(t *testing.T) {
	m := NewManager()
	a, b := &countingCleaner{}, &countingCleaner{}
	m.Register(a, b)

	if got := m.Sweep(); got != 2 {
		t.Fatalf("Sweep = %d, want 2", got)
	}
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
	if a.n != 1 || b.n != 1 {
		t.Fatalf("cleaners called %d/%d times", a.n, b.n)
	}
}

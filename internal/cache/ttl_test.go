package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestTTLCache_GetPut(t *testing.T) {
	c := NewTTL[string](Options{TTL: time.Hour, MaxSize: 10})

	if _, ok := c.Get("missing"); ok {
		t.Error("Get on empty cache returned a value")
	}

	c.Put("svc:KAI", "player-service")
	got, ok := c.Get("svc:KAI")
	if !ok || got != "player-service" {
		t.Errorf("Get() = %q, %v; want player-service, true", got, ok)
	}
}

func TestTTLCache_LazyExpiry(t *testing.T) {
	c := NewTTL[int](Options{TTL: 30 * time.Minute, MaxSize: 10})
	now := time.Unix(1_700_000_000, 0)

	c.PutAt("repo:KAI", 1, now)

	if _, ok := c.GetAt("repo:KAI", now.Add(29*time.Minute)); !ok {
		t.Error("entry expired before TTL")
	}
	if _, ok := c.GetAt("repo:KAI", now.Add(30*time.Minute)); ok {
		t.Error("entry survived past TTL")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after lazy removal, want 0", c.Len())
	}
}

func TestTTLCache_EvictsLeastRecentlyCreated(t *testing.T) {
	c := NewTTL[int](Options{TTL: time.Hour, MaxSize: 3})
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		c.PutAt(fmt.Sprintf("k%d", i), i, now.Add(time.Duration(i)*time.Second))
	}
	// k0 is oldest; inserting k3 must evict it.
	c.PutAt("k3", 3, now.Add(10*time.Second))

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.GetAt("k0", now.Add(11*time.Second)); ok {
		t.Error("least-recently-created entry was not evicted")
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if _, ok := c.GetAt(k, now.Add(11*time.Second)); !ok {
			t.Errorf("entry %s evicted unexpectedly", k)
		}
	}
}

func TestTTLCache_PutResetsCreation(t *testing.T) {
	c := NewTTL[int](Options{TTL: time.Hour, MaxSize: 2})
	now := time.Unix(1_700_000_000, 0)

	c.PutAt("a", 1, now)
	c.PutAt("b", 2, now.Add(time.Second))
	// Re-creating a makes b the oldest.
	c.PutAt("a", 10, now.Add(2*time.Second))
	c.PutAt("c", 3, now.Add(3*time.Second))

	if _, ok := c.GetAt("b", now.Add(4*time.Second)); ok {
		t.Error("b should have been evicted as least recently created")
	}
	if v, ok := c.GetAt("a", now.Add(4*time.Second)); !ok || v != 10 {
		t.Errorf("a = %d, %v; want 10, true", v, ok)
	}
}

func TestTTLCache_InsertSweepsExpired(t *testing.T) {
	c := NewTTL[int](Options{TTL: time.Minute, MaxSize: 10})
	now := time.Unix(1_700_000_000, 0)

	c.PutAt("old", 1, now)
	c.PutAt("fresh", 2, now.Add(2*time.Minute))

	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (expired entry swept on insert)", c.Len())
	}
}

func TestTTLCache_ZeroMaxSizeHoldsNothing(t *testing.T) {
	c := NewTTL[int](Options{TTL: time.Hour, MaxSize: 0})
	c.Put("k", 1)
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestTTLCache_EmptyKeyIgnored(t *testing.T) {
	c := NewTTL[int](Options{TTL: time.Hour, MaxSize: 10})
	c.Put("", 1)
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
	if _, ok := c.Get(""); ok {
		t.Error("Get(\"\") returned a value")
	}
}

func TestFactoryKey(t *testing.T) {
	if got := FactoryKey("players", "KAI"); got != "players:KAI" {
		t.Errorf("FactoryKey() = %q, want %q", got, "players:KAI")
	}
}

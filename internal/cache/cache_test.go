package cache

import (
	"testing"
	"time"
)

func testCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	cfg.Dir = t.TempDir()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutGet(t *testing.T) {
	c := testCache(t, Config{MaxEntries: 10, MaxAge: time.Hour})

	key := Key("card.arb", "fingerprint-1")
	if _, ok := c.Get(key); ok {
		t.Fatal("hit before Put")
	}
	if err := c.Put(key, "card.arb", []byte("<div>card</div>")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, ok := c.Get(key)
	if !ok || string(data) != "<div>card</div>" {
		t.Fatalf("Get = (%q, %v)", data, ok)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestKeyIsStable(t *testing.T) {
	if Key("a", "b") != Key("a", "b") {
		t.Fatal("same inputs, different keys")
	}
	if Key("a", "b") == Key("ab") {
		t.Fatal("input boundaries must matter")
	}
}

func TestInvalidateSource(t *testing.T) {
	c := testCache(t, Config{MaxEntries: 10, MaxAge: time.Hour})

	c.Put(Key("app", "v1"), "app.arb", []byte("one"))
	c.Put(Key("app", "v2"), "app.arb", []byte("two"))
	c.Put(Key("card", "v1"), "card.arb", []byte("three"))

	if removed := c.InvalidateSource("app.arb"); removed != 2 {
		t.Fatalf("removed %d entries, want 2", removed)
	}
	if _, ok := c.Get(Key("app", "v1")); ok {
		t.Fatal("invalidated entry still readable")
	}
	if _, ok := c.Get(Key("card", "v1")); !ok {
		t.Fatal("unrelated entry was dropped")
	}
}

func TestEvictionKeepsRecent(t *testing.T) {
	c := testCache(t, Config{MaxEntries: 2, MaxAge: time.Hour})

	c.Put("k1", "a.arb", []byte("1"))
	time.Sleep(5 * time.Millisecond)
	c.Put("k2", "b.arb", []byte("2"))
	time.Sleep(5 * time.Millisecond)
	c.Put("k3", "c.arb", []byte("3"))

	if _, ok := c.Get("k1"); ok {
		t.Fatal("oldest entry survived eviction")
	}
	if _, ok := c.Get("k2"); !ok {
		t.Fatal("recent entry was evicted")
	}
	if _, ok := c.Get("k3"); !ok {
		t.Fatal("newest entry was evicted")
	}
}

func TestIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c, err := New(Config{Dir: dir, MaxEntries: 10, MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Put("persist", "a.arb", []byte("kept"))
	c.Close()

	c2, err := New(Config{Dir: dir, MaxEntries: 10, MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer c2.Close()

	data, ok := c2.Get("persist")
	if !ok || string(data) != "kept" {
		t.Fatalf("after reopen Get = (%q, %v)", data, ok)
	}
}

func TestClear(t *testing.T) {
	c := testCache(t, Config{MaxEntries: 10, MaxAge: time.Hour})
	c.Put("k", "a.arb", []byte("x"))
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := c.Stats().Entries; got != 0 {
		t.Fatalf("%d entries after Clear, want 0", got)
	}
}

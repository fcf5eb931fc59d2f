// Package cache is the content-addressed artifact cache behind the
// build command. Rendered output is keyed by the source template's
// fingerprint, so an unchanged component costs one hash instead of a
// parse, compile, and render.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const indexFile = "index.json"

// Config holds cache configuration.
type Config struct {
	// Dir is the cache directory.
	Dir string
	// MaxEntries caps the number of artifacts; least recently used
	// entries are evicted past it.
	MaxEntries int
	// MaxAge expires entries untouched for longer than this.
	MaxAge time.Duration
}

// DefaultConfig returns the default configuration, rooted under the
// user cache directory.
func DefaultConfig() Config {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return Config{
		Dir:        filepath.Join(base, "arbor"),
		MaxEntries: 512,
		MaxAge:     7 * 24 * time.Hour,
	}
}

// Cache stores rendered artifacts on disk with a JSON index.
type Cache struct {
	mu     sync.Mutex
	dir    string
	cfg    Config
	index  *index
	hits   int64
	misses int64
	stop   chan struct{}
	once   sync.Once
}

type index struct {
	Version string            `json:"version"`
	Entries map[string]*entry `json:"entries"`
	Updated time.Time         `json:"updated"`
}

type entry struct {
	Key        string    `json:"key"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	Source     string    `json:"source,omitempty"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"last_access"`
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// New opens (or creates) a cache under cfg.Dir and starts a background
// sweep for expired entries.
func New(cfg Config) (*Cache, error) {
	if cfg.Dir == "" {
		cfg = DefaultConfig()
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}
	c := &Cache{
		dir:  cfg.Dir,
		cfg:  cfg,
		stop: make(chan struct{}),
	}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	go c.sweep()
	return c, nil
}

// Key builds a cache key from any number of input strings.
func Key(inputs ...string) string {
	h := sha256.New()
	for _, in := range inputs {
		h.Write([]byte(in))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// Get returns the cached artifact for a key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	e, ok := c.index.Entries[key]
	if !ok || c.expired(e) {
		c.misses++
		c.mu.Unlock()
		return nil, false
	}
	e.LastAccess = time.Now()
	c.hits++
	path := e.Path
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		c.mu.Lock()
		delete(c.index.Entries, key)
		c.saveIndexLocked()
		c.mu.Unlock()
		return nil, false
	}
	return data, true
}

// Put stores an artifact under a key. Source names the file the
// artifact was rendered from, for path-based invalidation.
func (c *Cache) Put(key string, source string, data []byte) error {
	path := filepath.Join(c.dir, sanitize(key))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cache: write artifact: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.index.Entries[key] = &entry{
		Key:        key,
		Path:       path,
		Size:       int64(len(data)),
		Source:     source,
		Created:    now,
		LastAccess: now,
	}
	c.evictLocked()
	return c.saveIndexLocked()
}

// InvalidateSource drops every artifact rendered from a source file and
// returns how many were removed.
func (c *Cache) InvalidateSource(source string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, e := range c.index.Entries {
		if e.Source == source {
			c.removeLocked(key)
			removed++
		}
	}
	if removed > 0 {
		c.saveIndexLocked()
	}
	return removed
}

// Clear drops everything.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.index.Entries {
		c.removeLocked(key)
	}
	return c.saveIndexLocked()
}

// Stats returns a snapshot of the hit counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.index.Entries)}
}

// Close stops the background sweep and flushes the index.
func (c *Cache) Close() error {
	c.once.Do(func() { close(c.stop) })
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveIndexLocked()
}

func (c *Cache) expired(e *entry) bool {
	return c.cfg.MaxAge > 0 && time.Since(e.LastAccess) > c.cfg.MaxAge
}

// evictLocked removes least recently used entries past MaxEntries.
func (c *Cache) evictLocked() {
	if c.cfg.MaxEntries <= 0 || len(c.index.Entries) <= c.cfg.MaxEntries {
		return
	}
	keys := make([]string, 0, len(c.index.Entries))
	for key := range c.index.Entries {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.index.Entries[keys[i]].LastAccess.Before(c.index.Entries[keys[j]].LastAccess)
	})
	for _, key := range keys[:len(keys)-c.cfg.MaxEntries] {
		c.removeLocked(key)
	}
}

func (c *Cache) removeLocked(key string) {
	if e, ok := c.index.Entries[key]; ok {
		os.Remove(e.Path)
		delete(c.index.Entries, key)
	}
}

// sweep drops expired entries periodically until Close.
func (c *Cache) sweep() {
	if c.cfg.MaxAge <= 0 {
		return
	}
	ticker := time.NewTicker(c.cfg.MaxAge / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			dirty := false
			for key, e := range c.index.Entries {
				if c.expired(e) {
					c.removeLocked(key)
					dirty = true
				}
			}
			if dirty {
				c.saveIndexLocked()
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) loadIndex() error {
	c.index = &index{Version: "1", Entries: make(map[string]*entry)}
	data, err := os.ReadFile(filepath.Join(c.dir, indexFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: read index: %w", err)
	}
	var idx index
	if err := json.Unmarshal(data, &idx); err != nil || idx.Entries == nil {
		// A corrupt index is not fatal; start over.
		return nil
	}
	c.index = &idx
	return nil
}

func (c *Cache) saveIndexLocked() error {
	c.index.Updated = time.Now()
	data, err := json.MarshalIndent(c.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.dir, indexFile), data, 0o644)
}

// sanitize makes a key safe as a file name.
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key) + ".html"
}

package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultTTL is how long a generated message is reused for the same diff.
const DefaultTTL = 3600 * time.Second

// Store caches generated commit messages by diff key.
type Store interface {
	// Get returns the cached text for key. Stale entries are misses.
	Get(key string) (string, bool)
	// Put stores text under key, replacing any previous entry.
	Put(key, text string) error
	// IsFresh reports whether key has an entry inside the freshness window.
	IsFresh(key string) bool
}

// Key returns the cache key for a diff: the hex SHA-256 of its text.
func Key(diff string) string {
	sum := sha256.Sum256([]byte(diff))
	return hex.EncodeToString(sum[:])
}

// File is a Store backed by one plain-text file per key. Freshness is taken
// from the file modification time. Stale files are left on disk.
type File struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewFile creates a file cache rooted at dir, creating the directory if needed.
// A non-positive ttl selects DefaultTTL.
func NewFile(dir string, ttl time.Duration) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is empty")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &File{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Get retrieves a cached message by key. Returns ("", false) on miss.
func (c *File) Get(key string) (string, bool) {
	if !c.IsFresh(key) {
		return "", false
	}
	data, err := os.ReadFile(c.entryPath(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Put writes text as the entry for key.
func (c *File) Put(key, text string) error {
	if err := os.WriteFile(c.entryPath(key), []byte(text), 0o600); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// IsFresh reports whether the entry for key exists and is younger than the TTL.
func (c *File) IsFresh(key string) bool {
	info, err := os.Stat(c.entryPath(key))
	if err != nil || info.IsDir() {
		return false
	}
	return c.now().Sub(info.ModTime()) < c.ttl
}

// Clear removes all cache entries.
func (c *File) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading cache directory: %w", err)
	}
	var removed int
	for _, e := range entries {
		if !isEntryName(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// Stats returns cache statistics.
type Stats struct {
	Dir        string `json:"dir" yaml:"dir"`
	Entries    int    `json:"entries" yaml:"entries"`
	TotalBytes int64  `json:"totalBytes" yaml:"totalBytes"`
	Stale      int    `json:"stale" yaml:"stale"`
	TTLSeconds int    `json:"ttlSeconds" yaml:"ttlSeconds"`
}

// GetStats returns information about the cache.
func (c *File) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir, TTLSeconds: int(c.ttl / time.Second)}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading cache directory: %w", err)
	}
	now := c.now()
	for _, e := range entries {
		if !isEntryName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
		if now.Sub(info.ModTime()) >= c.ttl {
			stats.Stale++
		}
	}
	return stats, nil
}

// Dir returns the cache directory path.
func (c *File) Dir() string {
	return c.dir
}

func (c *File) entryPath(key string) string {
	return filepath.Join(c.dir, key)
}

// isEntryName matches the 64-char hex names produced by Key.
func isEntryName(name string) bool {
	if len(name) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}

// Memory is an in-process Store, mainly for tests.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memEntry
	puts    int
}

type memEntry struct {
	text    string
	written time.Time
}

// NewMemory creates an empty in-memory store. A nil now uses time.Now.
func NewMemory(ttl time.Duration, now func() time.Time) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Memory{ttl: ttl, now: now, entries: make(map[string]memEntry)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok || m.now().Sub(e.written) >= m.ttl {
		return "", false
	}
	return e.text, true
}

func (m *Memory) Put(key, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memEntry{text: text, written: m.now()}
	m.puts++
	return nil
}

func (m *Memory) IsFresh(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Puts returns how many times Put was called.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

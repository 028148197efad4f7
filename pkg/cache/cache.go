// Package cache keeps rendered reports keyed by the content that produced
// them, so unchanged inputs are not re-analysed across runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-dataflow/pkg/report"
)

// snapshotVersion is bumped whenever the persisted layout or report
// semantics change; older snapshots are discarded on load.
const snapshotVersion = 1

// Key derives the cache key for one analysis of one input.
func Key(content []byte, analysis string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(analysis))
	return hex.EncodeToString(h.Sum(nil))
}

// Entry is one cached report.
type Entry struct {
	Key        string         `msgpack:"key"`
	Report     *report.Report `msgpack:"report"`
	CreatedAt  time.Time      `msgpack:"created_at"`
	AccessedAt time.Time      `msgpack:"accessed_at"`
}

// Stats counts cache traffic since creation or the last Load.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
}

// Cache is an in-memory LRU of reports with msgpack persistence.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	items      map[string]*listItem
	lru        *list // most recent at front
	maxEntries int
	stats      Stats
	now        func() time.Time
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

type list struct {
	head *listItem // most recently accessed
	tail *listItem // least recently accessed
	len  int
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) unlink(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

// removeBack removes and returns the least recently used item.
func (l *list) removeBack() *listItem {
	item := l.tail
	if item != nil {
		l.unlink(item)
	}
	return item
}

// New creates a cache holding at most maxEntries reports; 0 means unlimited.
func New(maxEntries int) *Cache {
	return &Cache{
		items:      make(map[string]*listItem),
		lru:        &list{},
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the report stored under key.
func (c *Cache) Get(key string) (*report.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	item.AccessedAt = c.now()
	c.lru.moveToFront(item)
	return item.Report, true
}

// Put stores r under key, evicting the least recently used entries when full.
func (c *Cache) Put(key string, r *report.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if item, exists := c.items[key]; exists {
		item.Report = r
		item.AccessedAt = now
		c.lru.moveToFront(item)
		return
	}

	item := &listItem{Entry: Entry{Key: key, Report: r, CreatedAt: now, AccessedAt: now}}
	c.items[key] = item
	c.lru.pushFront(item)

	for c.maxEntries > 0 && c.lru.len > c.maxEntries {
		old := c.lru.removeBack()
		delete(c.items, old.Key)
		c.stats.Evictions++
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found {
		c.lru.unlink(item)
		delete(c.items, key)
	}
}

// Len returns the number of entries in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns the traffic counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

type snapshot struct {
	Version int     `msgpack:"version"`
	Entries []Entry `msgpack:"entries"`
}

// Save writes the entries, most recent first, using msgpack.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := snapshot{Version: snapshotVersion, Entries: make([]Entry, 0, c.lru.len)}
	for item := c.lru.head; item != nil; item = item.next {
		snap.Entries = append(snap.Entries, item.Entry)
	}
	return msgpack.NewEncoder(w).Encode(&snap)
}

// Load replaces the contents with a snapshot written by Save. A snapshot
// from another version loads as empty.
func (c *Cache) Load(r io.Reader) error {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	c.stats = Stats{}
	if snap.Version != snapshotVersion {
		return nil
	}

	for i := len(snap.Entries) - 1; i >= 0; i-- {
		e := snap.Entries[i]
		if e.Report == nil {
			continue
		}
		if _, dup := c.items[e.Key]; dup {
			continue
		}
		item := &listItem{Entry: e}
		c.items[e.Key] = item
		c.lru.pushFront(item)
	}
	for c.maxEntries > 0 && c.lru.len > c.maxEntries {
		old := c.lru.removeBack()
		delete(c.items, old.Key)
	}
	return nil
}

// SaveFile persists the cache to path, creating parent directories.
// The file is replaced atomically.
func (c *Cache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cache-*")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := c.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace cache file: %w", err)
	}
	return nil
}

// LoadFile loads the cache from path. A missing file leaves it empty.
func (c *Cache) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No cache file is not an error
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

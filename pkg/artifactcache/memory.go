package artifactcache

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// entry holds a cached value with its expiration time, key, and position
// in the expiry heap.
type entry[V any] struct {
	expiresAt time.Time // zero value = never expires
	value     V
	key       string
	index     int // heap index, -1 once removed
}

// isExpired reports whether the entry has passed its expiration time.
func (e *entry[V]) isExpired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		return false
	}
	return now.After(e.expiresAt)
}

// expiryHeap orders entries by remaining TTL, soonest-to-expire first.
// Entries that never expire sort after everything else.
type expiryHeap[V any] []*entry[V]

func (h expiryHeap[V]) Len() int { return len(h) }

func (h expiryHeap[V]) Less(i, j int) bool {
	if h[i].expiresAt.IsZero() {
		return false
	}
	if h[j].expiresAt.IsZero() {
		return true
	}
	return h[i].expiresAt.Before(h[j].expiresAt)
}

func (h expiryHeap[V]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *expiryHeap[V]) Push(x any) {
	e := x.(*entry[V])
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *expiryHeap[V]) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Memory is an in-memory cache with TTL-based expiration and optional
// capacity-bounded eviction. When the entry count exceeds the configured
// maximum, entries are evicted in ascending order of remaining TTL
// (soonest-to-expire first).
//
// It uses a hash map for O(1) lookups and a binary heap keyed by expiry
// for O(log n) eviction ordering. Expiry is checked lazily on every
// lookup, so a hit never returns a stale entry even with the background
// janitor disabled.
type Memory[V any] struct {
	items   map[string]*entry[V]
	expiry  expiryHeap[V]
	opts    *memoryOptions
	onEvict func(key string, value V)
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
}

// NewMemory creates a new in-memory cache.
//
// Example:
//
//	c := artifactcache.NewMemory[[]byte](
//	    artifactcache.WithDefaultTTL(5 * time.Minute),
//	    artifactcache.WithCleanupInterval(30 * time.Second),
//	    artifactcache.WithMaxEntries(1024),
//	)
//	defer c.Close()
func NewMemory[V any](opts ...MemoryOption) *Memory[V] {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory[V]{
		items: make(map[string]*entry[V]),
		opts:  o,
		done:  make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// SetEvictCallback sets a callback function that is called when entries
// leave the cache: capacity eviction, TTL expiry, manual deletion, and
// clearing.
func (m *Memory[V]) SetEvictCallback(fn func(key string, value V)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = fn
}

// Get retrieves a value by key.
// Returns ErrNotFound if the key does not exist or has expired.
// Expired entries are removed as a side effect (lazy eviction).
func (m *Memory[V]) Get(_ context.Context, key string) (V, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}

	if e.isExpired(time.Now()) {
		m.removeEntry(e)
		var zero V
		return zero, ErrNotFound
	}

	return e.value, nil
}

// Set stores a value with the given TTL, overwriting any existing entry
// and resetting its creation time.
// TTL semantics: positive = expires after duration, zero = use default TTL,
// negative = never expires.
func (m *Memory[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	// ttl < 0: expiresAt stays zero (never expires)

	// Overwrite existing entry in place so the cache holds exactly one
	// entry per key even when writers race.
	if e, ok := m.items[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		heap.Fix(&m.expiry, e.index)
		return nil
	}

	// Evict the soonest-to-expire entry if at capacity.
	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		m.evictSoonest()
	}

	e := &entry[V]{key: key, value: value, expiresAt: expiresAt}
	m.items[key] = e
	heap.Push(&m.expiry, e)

	return nil
}

// Delete removes a key from the cache.
func (m *Memory[V]) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if e, ok := m.items[key]; ok {
		m.removeEntry(e)
	}

	return nil
}

// Has checks whether a key exists and has not expired.
func (m *Memory[V]) Has(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return false, nil
	}

	if e.isExpired(time.Now()) {
		m.removeEntry(e)
		return false, nil
	}

	return true, nil
}

// Clear removes all entries from the cache.
func (m *Memory[V]) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if m.onEvict != nil {
		for _, e := range m.items {
			m.onEvict(e.key, e.value)
		}
	}

	m.items = make(map[string]*entry[V])
	m.expiry = m.expiry[:0]

	return nil
}

// Len returns the number of entries currently held, including entries
// that have expired but not yet been collected.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the background janitor goroutine and marks the cache as closed.
// Close is idempotent.
func (m *Memory[V]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	return nil
}

// janitor periodically removes expired entries.
func (m *Memory[V]) janitor() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

// deleteExpired pops expired entries off the top of the expiry heap.
func (m *Memory[V]) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for len(m.expiry) > 0 {
		e := m.expiry[0]
		if !e.isExpired(now) {
			break
		}
		m.removeEntry(e)
	}
}

// evictSoonest removes the entry with the smallest remaining TTL.
// Caller must hold the mutex.
func (m *Memory[V]) evictSoonest() {
	if len(m.expiry) == 0 {
		return
	}
	m.removeEntry(m.expiry[0])
}

// removeEntry removes an entry from both the map and the heap and
// triggers the eviction callback. Caller must hold the mutex.
func (m *Memory[V]) removeEntry(e *entry[V]) {
	heap.Remove(&m.expiry, e.index)
	delete(m.items, e.key)

	if m.onEvict != nil {
		m.onEvict(e.key, e.value)
	}
}

var _ Cache[any] = (*Memory[any])(nil)

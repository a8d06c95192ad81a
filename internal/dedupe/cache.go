// ABOUTME: Thread-safe TTL cache for deduplicating observed messages and threads.
// ABOUTME: Remembers composite channel:message keys so repeated deliveries are dropped.

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

// DefaultCleanupInterval is how often the background sweep drops expired
// keys that were never looked up again.
const DefaultCleanupInterval = time.Minute

// Key builds the identity under which a message is remembered. Message ids
// are only unique per channel, so the channel id is part of the key.
func Key(channelID, messageID string) string {
	return channelID + ":" + messageID
}

// entry stores the seen time and insertion-order element for a cached key.
type entry struct {
	seenAt  time.Time
	element *list.Element
}

// Cache is a thread-safe, TTL-based, size-limited record of seen keys.
// Insertion order lives in a doubly-linked list so that hitting capacity
// evicts the oldest key in O(1).
type Cache struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    *list.List // oldest key at the front
	ttl      time.Duration
	capacity int
	now      func() time.Time
	interval time.Duration
	done     chan struct{}
	closed   bool
}

// Option adjusts cache construction.
type Option func(*Cache)

// WithClock replaces the time source. Tests use this to drive expiry
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCleanupInterval changes how often the background sweep runs.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New creates a dedupe cache with the given TTL and maximum key count.
// A background goroutine periodically clears expired entries; callers must
// Close the cache to stop it.
func New(ttl time.Duration, capacity int, opts ...Option) *Cache {
	c := &Cache{
		entries:  make(map[string]*entry),
		order:    list.New(),
		ttl:      ttl,
		capacity: capacity,
		now:      time.Now,
		interval: DefaultCleanupInterval,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.cleanupLoop()
	return c
}

// Check reports whether the key has been seen within the TTL window.
func (c *Cache) Check(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.now().Sub(e.seenAt) < c.ttl
}

// CheckAndMark atomically checks a key and marks it when unseen. It returns
// true for a duplicate and false for a fresh key that is now recorded.
// Separate Check/Mark calls would leave a window where two observers of the
// same delivery both pass; this closes it.
func (c *Cache) CheckAndMark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && c.now().Sub(e.seenAt) < c.ttl {
		return true
	}
	c.markLocked(key)
	return false
}

// Mark records a key as seen, refreshing it if already present. At capacity
// the oldest key is evicted to make room.
func (c *Cache) Mark(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markLocked(key)
}

// markLocked must be called with mu held.
func (c *Cache) markLocked(key string) {
	now := c.now()

	if e, ok := c.entries[key]; ok {
		e.seenAt = now
		c.order.MoveToBack(e.element)
		return
	}

	if len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}

	c.entries[key] = &entry{
		seenAt:  now,
		element: c.order.PushBack(key),
	}
}

// evictOldestLocked must be called with mu held.
func (c *Cache) evictOldestLocked() {
	front := c.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, key)
}

// Len returns the number of keys currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanupLoop periodically removes expired entries until Close.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.done:
			return
		}
	}
}

// removeExpired drops every key at or past the TTL.
func (c *Cache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, e := range c.entries {
		if now.Sub(e.seenAt) >= c.ttl {
			c.order.Remove(e.element)
			delete(c.entries, key)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}

package cache

import (
	"container/list"
	"sync"
	"time"
)

type item[V any] struct {
	key     string
	value   V
	expires time.Time
	elem    *list.Element
}

// LRU is a thread-safe fixed-capacity cache with per-entry TTL.
// The profile store uses it to avoid re-reading persona files on every
// backstory lookup.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*item[V]
	order    *list.List
}

// NewLRU creates a cache holding at most capacity entries, each living
// for ttl after insertion. ttl <= 0 means entries never expire.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 256
	}
	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*item[V], capacity),
		order:    list.New(),
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	it, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if !it.expires.IsZero() && time.Now().After(it.expires) {
		c.remove(it)
		return zero, false
	}
	c.order.MoveToFront(it.elem)
	return it.value, true
}

func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := time.Time{}
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	if it, ok := c.items[key]; ok {
		it.value = value
		it.expires = expires
		c.order.MoveToFront(it.elem)
		return
	}
	if len(c.items) >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.remove(c.items[back.Value.(string)])
		}
	}
	c.items[key] = &item[V]{
		key:     key,
		value:   value,
		expires: expires,
		elem:    c.order.PushFront(key),
	}
}

// Purge drops every entry. Used when the backing profile file changes.
func (c *LRU[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*item[V], c.capacity)
	c.order.Init()
}

func (c *LRU[V]) remove(it *item[V]) {
	c.order.Remove(it.elem)
	delete(c.items, it.key)
}

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// LRU is a bounded in-memory cache with per-entry TTL.
type LRU struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	items    map[string]*list.Element
	order    *list.List
	hits     int64
	misses   int64
	now      func() time.Time
}

type entry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewLRU creates a cache holding at most capacity entries. A zero ttl means
// entries never expire.
func NewLRU(capacity int, ttl time.Duration) *LRU {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	e := el.Value.(*entry)
	if c.ttl > 0 && c.now().After(e.expiresAt) {
		c.remove(el)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return e.value, true
}

func (c *LRU) Set(_ context.Context, key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry{key: key, value: value, expiresAt: expiresAt})

	for len(c.items) > c.capacity {
		c.remove(c.order.Back())
	}
}

// Clear drops every entry. Hit and miss counters are kept.
func (c *LRU) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	return nil
}

func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    len(c.items),
		MaxSize: c.capacity,
	}
}

func (c *LRU) remove(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
}

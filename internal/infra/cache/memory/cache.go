// Package memory is a bounded in-process posterior cache.
package memory

import (
	"container/list"
	"context"
	"sync"

	"pedigreecore/pkg/domain"
)

// DefaultCapacity bounds the cache when New receives a non-positive size.
const DefaultCapacity = 128

type entry struct {
	key   string
	table domain.PosteriorTable
}

// Cache evicts the least recently used table once capacity is reached.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element
}

// New returns an empty cache holding at most capacity tables.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

// Get returns a copy of the table stored under key.
func (c *Cache) Get(_ context.Context, key string) (domain.PosteriorTable, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false, nil
	}
	c.order.MoveToFront(el)
	return cloneTable(el.Value.(*entry).table), true, nil
}

// Set stores a copy of table under key.
func (c *Cache) Set(_ context.Context, key string, table domain.PosteriorTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).table = cloneTable(table)
		c.order.MoveToFront(el)
		return nil
	}
	c.items[key] = c.order.PushFront(&entry{key: key, table: cloneTable(table)})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
	return nil
}

// Len reports the number of cached tables.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func cloneTable(t domain.PosteriorTable) domain.PosteriorTable {
	out := make(domain.PosteriorTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

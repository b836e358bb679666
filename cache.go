// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rmq

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// cachedAnswer is the portion of a query result worth caching. Elapsed is
// recomputed per call, so it is not stored.
type cachedAnswer struct {
	value Value
	index int
}

// queryCache is a fixed-size LRU cache of range-minimum answers keyed by
// [left, right]. Engines purge it on every mutation (Preprocess, Update,
// BatchUpdate, Clear), so a cached answer is always consistent with the
// current array.
//
// Thread Safety: All methods are safe for concurrent use. Engines themselves
// are single-writer; the cache is locked independently because read-only
// query fan-out is allowed.
type queryCache struct {
	mu       sync.Mutex
	capacity int
	items    map[[2]int]*list.Element
	order    *list.List // Front = most recent, Back = least recent

	hits   atomic.Int64
	misses atomic.Int64
}

// cacheEntry holds the key-answer pair in the list.
type cacheEntry struct {
	key    [2]int
	answer cachedAnswer
}

// newQueryCache creates a cache holding at most capacity answers.
func newQueryCache(capacity int) *queryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &queryCache{
		capacity: capacity,
		items:    make(map[[2]int]*list.Element, capacity),
		order:    list.New(),
	}
}

// get returns the cached answer for [left, right], if present.
func (c *queryCache) get(left, right int) (cachedAnswer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[[2]int{left, right}]; ok {
		c.order.MoveToFront(elem)
		c.hits.Add(1)
		return elem.Value.(*cacheEntry).answer, true
	}

	c.misses.Add(1)
	return cachedAnswer{}, false
}

// put stores the answer for [left, right], evicting the least recently used
// entry when the cache is full.
func (c *queryCache) put(left, right int, answer cachedAnswer) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := [2]int{left, right}
	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).answer = answer
		c.order.MoveToFront(elem)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}

	c.items[key] = c.order.PushFront(&cacheEntry{key: key, answer: answer})
}

// purge discards every cached answer. Called on any engine mutation.
func (c *queryCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[[2]int]*list.Element, c.capacity)
	c.order.Init()
}

// stats returns hit and miss counts since construction.
func (c *queryCache) stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

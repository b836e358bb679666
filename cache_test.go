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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryCache_HitAndMiss(t *testing.T) {
	c := newQueryCache(4)

	_, ok := c.get(0, 5)
	assert.False(t, ok)

	c.put(0, 5, cachedAnswer{value: 7, index: 2})
	answer, ok := c.get(0, 5)
	require.True(t, ok)
	assert.Equal(t, Value(7), answer.value)
	assert.Equal(t, 2, answer.index)

	hits, misses := c.stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestQueryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := newQueryCache(2)

	c.put(0, 1, cachedAnswer{value: 1})
	c.put(0, 2, cachedAnswer{value: 2})

	// Touch (0, 1) so (0, 2) becomes the eviction candidate.
	_, ok := c.get(0, 1)
	require.True(t, ok)

	c.put(0, 3, cachedAnswer{value: 3})

	_, ok = c.get(0, 2)
	assert.False(t, ok)
	_, ok = c.get(0, 1)
	assert.True(t, ok)
	_, ok = c.get(0, 3)
	assert.True(t, ok)
}

func TestQueryCache_PurgeKeepsCounters(t *testing.T) {
	c := newQueryCache(4)
	c.put(1, 2, cachedAnswer{value: 9})
	_, _ = c.get(1, 2)

	c.purge()

	_, ok := c.get(1, 2)
	assert.False(t, ok)

	hits, misses := c.stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(2), misses)
}

func TestQueryCache_OverwriteSameKey(t *testing.T) {
	c := newQueryCache(2)
	c.put(3, 4, cachedAnswer{value: 10, index: 3})
	c.put(3, 4, cachedAnswer{value: -1, index: 4})

	answer, ok := c.get(3, 4)
	require.True(t, ok)
	assert.Equal(t, Value(-1), answer.value)
	assert.Equal(t, 4, answer.index)
}

func TestQueryCache_ZeroCapacityFallsBackToDefault(t *testing.T) {
	c := newQueryCache(0)
	c.put(0, 0, cachedAnswer{value: 1})
	_, ok := c.get(0, 0)
	assert.True(t, ok)
}

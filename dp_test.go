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
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicProgramming_AllRanges(t *testing.T) {
	// Small enough to check every (left, right) pair against a direct scan.
	data := []Value{6, 2, 9, 2, 5, 1, 1, 8}

	e := NewDynamicProgramming(Config{})
	mustPreprocess(t, e, data)

	for left := 0; left < len(data); left++ {
		for right := left; right < len(data); right++ {
			wantValue, wantIndex := scanMinimum(data, left, right)

			result, err := e.QueryDetailed(context.Background(), left, right)
			require.NoError(t, err)
			assert.Equal(t, wantValue, result.MinimumValue, "range [%d, %d]", left, right)
			assert.Equal(t, wantIndex, result.MinimumIndex, "range [%d, %d]", left, right)
		}
	}
}

func TestDynamicProgramming_TableCeiling(t *testing.T) {
	// 6000² entries of 16 bytes each exceed the 512 MiB ceiling. The
	// rejection happens before allocation, so this test stays cheap.
	data := make([]Value, 6000)

	e := NewDynamicProgramming(Config{})
	err := e.Preprocess(context.Background(), data)
	require.ErrorIs(t, err, ErrAllocation)
	assert.False(t, e.IsPreprocessed())

	// The engine remains usable with an input under the ceiling.
	mustPreprocess(t, e, []Value{3, 1, 2})
	value, err := e.Query(context.Background(), 0, 2)
	require.NoError(t, err)
	assert.Equal(t, Value(1), value)
}

func TestDynamicProgramming_Stats(t *testing.T) {
	e := NewDynamicProgramming(Config{})
	mustPreprocess(t, e, []Value{4, 2, 7, 1})

	stats := e.TableStats()
	assert.Equal(t, 16, stats.TableEntries)
	assert.Greater(t, stats.MemoryBytes, 0)
	assert.Equal(t, stats.MemoryBytes, e.MemoryUsage())
}

func TestDynamicProgramming_DiscardReleasesTables(t *testing.T) {
	e := NewDynamicProgramming(Config{})
	mustPreprocess(t, e, []Value{4, 2, 7, 1})

	e.Clear()
	assert.Equal(t, 0, e.TableStats().TableEntries)
}

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

func TestSparseTable_KnownScenario(t *testing.T) {
	data := []Value{9, 3, 7, 1, 8, 2, 5, 4, 6}

	e := NewSparseTable(Config{})
	mustPreprocess(t, e, data)

	cases := []struct {
		left, right int
		wantValue   Value
		wantIndex   int
	}{
		{0, 8, 1, 3},
		{4, 8, 2, 5},
		{0, 2, 3, 1},
		{5, 7, 2, 5},
		{8, 8, 6, 8},
	}
	for _, tc := range cases {
		result, err := e.QueryDetailed(context.Background(), tc.left, tc.right)
		require.NoError(t, err)
		assert.Equal(t, tc.wantValue, result.MinimumValue, "range [%d, %d]", tc.left, tc.right)
		assert.Equal(t, tc.wantIndex, result.MinimumIndex, "range [%d, %d]", tc.left, tc.right)
	}
}

func TestSparseTable_Validate(t *testing.T) {
	e := NewSparseTable(Config{})

	err := e.Validate()
	assert.ErrorIs(t, err, ErrNotPreprocessed)

	mustPreprocess(t, e, randomArray(5, 1000))
	assert.NoError(t, e.Validate())
}

func TestSparseTable_ValidateDetectsCorruption(t *testing.T) {
	e := NewSparseTable(Config{})
	mustPreprocess(t, e, []Value{4, 2, 7, 1, 9, 3, 8, 5})

	// Corrupt one level-1 entry and expect Validate to notice.
	e.table[0*e.levels+1] = 999
	assert.ErrorIs(t, e.Validate(), ErrAlgorithm)
}

func TestSparseTable_Levels(t *testing.T) {
	cases := []struct {
		n          int
		wantLevels int
	}{
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{7, 3},
		{8, 4},
		{1000, 10},
	}

	for _, tc := range cases {
		e := NewSparseTable(Config{})
		mustPreprocess(t, e, make([]Value, tc.n))
		assert.Equal(t, tc.wantLevels, e.TableStats().Levels, "n=%d", tc.n)
	}
}

func TestSparseTable_Stats(t *testing.T) {
	e := NewSparseTable(Config{})
	mustPreprocess(t, e, []Value{5, 1, 4, 2})

	stats := e.TableStats()
	// n=4: 4 windows of length 1, 3 of length 2, 1 of length 4.
	assert.Equal(t, 3, stats.Levels)
	assert.Equal(t, 8, stats.Entries)
	assert.Greater(t, stats.MemoryBytes, 0)
}

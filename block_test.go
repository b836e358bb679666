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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockDecomposition_UpdateScenario(t *testing.T) {
	data := []Value{5, 2, 8, 1, 9, 3}

	e := NewBlockDecomposition(Config{})
	mustPreprocess(t, e, data)

	result, err := e.QueryDetailed(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Value(1), result.MinimumValue)
	assert.Equal(t, 3, result.MinimumIndex)

	// Raising the current minimum forces the block rescan to find the next
	// smallest value instead of keeping a stale cached minimum.
	require.NoError(t, e.Update(context.Background(), 3, 10))
	result, err = e.QueryDetailed(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Value(2), result.MinimumValue)
	assert.Equal(t, 1, result.MinimumIndex)

	require.NoError(t, e.Update(context.Background(), 5, -4))
	result, err = e.QueryDetailed(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Value(-4), result.MinimumValue)
	assert.Equal(t, 5, result.MinimumIndex)
}

func TestBlockDecomposition_BatchUpdate(t *testing.T) {
	e := NewBlockDecomposition(Config{})
	mustPreprocess(t, e, []Value{5, 2, 8, 1, 9, 3})

	updates := []Update{
		{Index: 1, Value: 7},
		{Index: 3, Value: 6},
		{Index: 4, Value: 0},
	}
	require.NoError(t, e.BatchUpdate(context.Background(), updates))

	result, err := e.QueryDetailed(context.Background(), 0, 5)
	require.NoError(t, err)
	assert.Equal(t, Value(0), result.MinimumValue)
	assert.Equal(t, 4, result.MinimumIndex)
}

func TestBlockDecomposition_BatchUpdateDisjointOrderIndependent(t *testing.T) {
	data := randomArray(21, 500)
	updates := []Update{
		{Index: 7, Value: -50},
		{Index: 123, Value: 17},
		{Index: 456, Value: -3},
		{Index: 250, Value: 200},
	}
	reversed := []Update{updates[3], updates[2], updates[1], updates[0]}

	a := NewBlockDecomposition(Config{})
	b := NewBlockDecomposition(Config{})
	mustPreprocess(t, a, data)
	mustPreprocess(t, b, data)

	require.NoError(t, a.BatchUpdate(context.Background(), updates))
	require.NoError(t, b.BatchUpdate(context.Background(), reversed))

	for _, r := range [][2]int{{0, 499}, {0, 100}, {100, 300}, {400, 499}} {
		wantA, err := a.QueryDetailed(context.Background(), r[0], r[1])
		require.NoError(t, err)
		wantB, err := b.QueryDetailed(context.Background(), r[0], r[1])
		require.NoError(t, err)
		assert.Equal(t, wantA.MinimumValue, wantB.MinimumValue)
		assert.Equal(t, wantA.MinimumIndex, wantB.MinimumIndex)
	}
}

func TestBlockDecomposition_BatchUpdateAllOrNothing(t *testing.T) {
	e := NewBlockDecomposition(Config{})
	mustPreprocess(t, e, []Value{5, 5, 5, 5})

	updates := []Update{
		{Index: 0, Value: 1},
		{Index: 100, Value: 2},
	}
	require.ErrorIs(t, e.BatchUpdate(context.Background(), updates), ErrOutOfBounds)

	value, err := e.Query(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, Value(5), value)
}

func TestBlockDecomposition_BlockSizing(t *testing.T) {
	t.Run("default is sqrt-based", func(t *testing.T) {
		e := NewBlockDecomposition(Config{})
		mustPreprocess(t, e, make([]Value, 100))
		// floor(sqrt(100)) + 1 = 11.
		assert.Equal(t, 11, e.BlockLayout().BlockSize)
	})

	t.Run("explicit size honored", func(t *testing.T) {
		e := NewBlockDecomposition(Config{}.WithBlockSize(16))
		mustPreprocess(t, e, make([]Value, 100))
		layout := e.BlockLayout()
		assert.Equal(t, 16, layout.BlockSize)
		assert.Equal(t, 7, layout.NumBlocks)
	})

	t.Run("oversized block clamped to array length", func(t *testing.T) {
		e := NewBlockDecomposition(Config{}.WithBlockSize(1000))
		mustPreprocess(t, e, make([]Value, 10))
		layout := e.BlockLayout()
		assert.Equal(t, 10, layout.BlockSize)
		assert.Equal(t, 1, layout.NumBlocks)
	})
}

func TestBlockDecomposition_BlockSizeOne(t *testing.T) {
	data := []Value{4, 1, 3, 1, 2}

	e := NewBlockDecomposition(Config{}.WithBlockSize(1))
	mustPreprocess(t, e, data)

	result, err := e.QueryDetailed(context.Background(), 0, 4)
	require.NoError(t, err)
	assert.Equal(t, Value(1), result.MinimumValue)
	assert.Equal(t, 1, result.MinimumIndex)
}

func TestBlockDecomposition_ParallelBuildMatchesSequential(t *testing.T) {
	const n = 20_000
	data := randomArray(31, n)

	seq := NewBlockDecomposition(Config{})
	par := NewBlockDecomposition(Config{}.WithParallel(true))
	mustPreprocess(t, seq, data)
	mustPreprocess(t, par, data)

	require.Equal(t, seq.BlockLayout(), par.BlockLayout())

	rng := rand.New(rand.NewSource(32))
	for i := 0; i < 200; i++ {
		left := rng.Intn(n)
		right := left + rng.Intn(n-left)

		want, err := seq.QueryDetailed(context.Background(), left, right)
		require.NoError(t, err)
		got, err := par.QueryDetailed(context.Background(), left, right)
		require.NoError(t, err)
		assert.Equal(t, want.MinimumValue, got.MinimumValue)
		assert.Equal(t, want.MinimumIndex, got.MinimumIndex)
	}
}

func TestBlockDecomposition_RebuildBlocks(t *testing.T) {
	e := NewBlockDecomposition(Config{})

	require.ErrorIs(t, e.RebuildBlocks(), ErrNotPreprocessed)

	mustPreprocess(t, e, []Value{5, 2, 8, 1})

	// Mutate the stored copy directly, then rebuild.
	e.data[3] = 100
	require.NoError(t, e.RebuildBlocks())

	result, err := e.QueryDetailed(context.Background(), 0, 3)
	require.NoError(t, err)
	assert.Equal(t, Value(2), result.MinimumValue)
	assert.Equal(t, 1, result.MinimumIndex)
}

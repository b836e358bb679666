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

func TestLCA_TreeInvariants(t *testing.T) {
	cases := []struct {
		name string
		data []Value
	}{
		{"mixed", []Value{3, 1, 4, 1, 5, 9, 2, 6}},
		{"sorted ascending", []Value{1, 2, 3, 4, 5, 6, 7}},
		{"sorted descending", []Value{7, 6, 5, 4, 3, 2, 1}},
		{"all equal", []Value{5, 5, 5, 5, 5}},
		{"single", []Value{42}},
		{"two", []Value{2, 1}},
		{"random", randomArray(3, 500)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewLCA(Config{})
			mustPreprocess(t, e, tc.data)
			assert.NoError(t, e.Validate())
		})
	}
}

func TestLCA_ValidateBeforePreprocess(t *testing.T) {
	e := NewLCA(Config{})
	assert.ErrorIs(t, e.Validate(), ErrNotPreprocessed)
	assert.Nil(t, e.InOrder())
}

func TestLCA_InOrderReproducesArrayOrder(t *testing.T) {
	e := NewLCA(Config{})
	mustPreprocess(t, e, []Value{9, 3, 7, 1, 8, 2, 5})

	order := e.InOrder()
	require.Len(t, order, 7)
	for pos, idx := range order {
		assert.Equal(t, pos, idx)
	}
}

func TestLCA_EqualValues(t *testing.T) {
	// With equal values the strictly-greater pop keeps the earliest equal
	// minimum as the ancestor, so ties resolve to the lowest index.
	e := NewLCA(Config{})
	mustPreprocess(t, e, []Value{5, 1, 1, 5, 1})

	cases := []struct {
		left, right int
		wantIndex   int
	}{
		{0, 4, 1},
		{2, 4, 2},
		{3, 4, 4},
		{1, 2, 1},
	}
	for _, tc := range cases {
		result, err := e.QueryDetailed(context.Background(), tc.left, tc.right)
		require.NoError(t, err)
		assert.Equal(t, Value(1), result.MinimumValue, "range [%d, %d]", tc.left, tc.right)
		assert.Equal(t, tc.wantIndex, result.MinimumIndex, "range [%d, %d]", tc.left, tc.right)
	}
}

func TestLCA_DegenerateTreeDepth(t *testing.T) {
	// Sorted input degenerates the tree to a path. The build and every
	// query must survive depth ~n.
	const n = 10_000
	data := make([]Value, n)
	for i := range data {
		data[i] = Value(i)
	}

	e := NewLCA(Config{})
	mustPreprocess(t, e, data)

	layout := e.TreeLayout()
	assert.Equal(t, n, layout.NodeCount)
	assert.Equal(t, n-1, layout.TreeDepth)

	result, err := e.QueryDetailed(context.Background(), n-2, n-1)
	require.NoError(t, err)
	assert.Equal(t, Value(n-2), result.MinimumValue)
	assert.Equal(t, n-2, result.MinimumIndex)

	result, err = e.QueryDetailed(context.Background(), 0, n-1)
	require.NoError(t, err)
	assert.Equal(t, Value(0), result.MinimumValue)
}

func TestLCA_AgreeWithNaiveOnRandomRanges(t *testing.T) {
	const n = 2000
	data := randomArray(55, n)

	reference := NewNaive(Config{})
	e := NewLCA(Config{})
	mustPreprocess(t, reference, data)
	mustPreprocess(t, e, data)
	require.NoError(t, e.Validate())

	rng := rand.New(rand.NewSource(56))
	for i := 0; i < 1000; i++ {
		left := rng.Intn(n)
		right := left + rng.Intn(n-left)

		want, err := reference.QueryDetailed(context.Background(), left, right)
		require.NoError(t, err)
		got, err := e.QueryDetailed(context.Background(), left, right)
		require.NoError(t, err)

		assert.Equal(t, want.MinimumValue, got.MinimumValue, "range [%d, %d]", left, right)
		assert.Equal(t, want.MinimumIndex, got.MinimumIndex, "range [%d, %d]", left, right)
	}
}

func TestLCA_TreeLayout(t *testing.T) {
	e := NewLCA(Config{})
	mustPreprocess(t, e, []Value{3, 1, 2})

	layout := e.TreeLayout()
	assert.Equal(t, 3, layout.NodeCount)
	// Root is index 1, both neighbors hang one level below.
	assert.Equal(t, 1, layout.TreeDepth)
	assert.Greater(t, layout.Levels, 0)
	assert.Greater(t, layout.MemoryBytes, 0)
}

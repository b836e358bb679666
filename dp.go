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
	"fmt"
	"unsafe"
)

// DynamicProgramming precomputes the minimum of every range.
//
// Description:
//
//	Builds an n×n table with dp[i][j] = min(A[i..j]) and a parallel argmin
//	table, bottom-up by increasing range length. Queries are two O(1)
//	lookups. The quadratic space makes this viable only for small arrays;
//	preprocessing rejects inputs whose tables would exceed the 512 MiB
//	ceiling before allocating anything.
//
// Invariants:
//   - dp[i][j] and minIndex[i][j] are defined only for i <= j
//   - minIndex[i][j] is the FIRST index in [i, j] attaining dp[i][j]
//   - Entries with i > j are never read
//
// No update support: a single write invalidates O(n) table entries, so the
// whole table would have to be rebuilt.
//
// Thread Safety: Single writer; see the package documentation.
type DynamicProgramming struct {
	base

	// Flat row-major n×n tables; entry (i, j) lives at i*n + j.
	table    []Value
	minIndex []int
	n        int
}

// DPStats contains statistics about the DP engine's tables.
type DPStats struct {
	TableEntries int // Populated entries (n²; only the upper triangle is read)
	MemoryBytes  int // Approximate memory for both tables plus the data copy
}

var _ Engine = (*DynamicProgramming)(nil)

// NewDynamicProgramming creates a full-table engine.
func NewDynamicProgramming(cfg Config) *DynamicProgramming {
	e := &DynamicProgramming{}
	e.base = newBase(KindDynamicProgramming, "Dynamic Programming", false, cfg)
	e.base.algo = e
	return e
}

// build fills both tables bottom-up by increasing range length.
//
// Algorithm:
//
//	Time:  O(n²)
//	Space: O(n²)
//
// For length L >= 2, min(A[i..i+L-1]) extends min(A[i..i+L-2]) by one
// element; <= on the comparison keeps the earlier argmin on ties, which
// preserves first-occurrence semantics across the whole table.
func (e *DynamicProgramming) build(ctx context.Context) error {
	n := len(e.data)

	required := uint64(n) * uint64(n) * uint64(unsafe.Sizeof(Value(0))+unsafe.Sizeof(int(0)))
	if required > maxTableBytes {
		return fmt.Errorf("%w: %d element table needs %d MiB, ceiling is %d MiB",
			ErrAllocation, n, required>>20, maxTableBytes>>20)
	}

	e.n = n
	e.table = make([]Value, n*n)
	e.minIndex = make([]int, n*n)

	for i := 0; i < n; i++ {
		e.table[i*n+i] = e.data[i]
		e.minIndex[i*n+i] = i
	}

	for length := 2; length <= n; length++ {
		if err := checkCancel(ctx, "dp table build"); err != nil {
			return err
		}
		for i := 0; i+length <= n; i++ {
			j := i + length - 1
			prev := i*n + j - 1
			if e.table[prev] <= e.data[j] {
				e.table[i*n+j] = e.table[prev]
				e.minIndex[i*n+j] = e.minIndex[prev]
			} else {
				e.table[i*n+j] = e.data[j]
				e.minIndex[i*n+j] = j
			}
		}
	}

	return nil
}

// minimum is a direct table lookup.
func (e *DynamicProgramming) minimum(left, right int) (Value, int, error) {
	return e.table[left*e.n+right], e.minIndex[left*e.n+right], nil
}

// discard releases both tables.
func (e *DynamicProgramming) discard() {
	e.table = nil
	e.minIndex = nil
	e.n = 0
}

// Complexity returns the engine's descriptive complexity labels.
func (e *DynamicProgramming) Complexity() ComplexityInfo {
	return ComplexityInfo{
		PreprocessingTime:  "O(n²)",
		PreprocessingSpace: "O(n²)",
		QueryTime:          "O(1)",
		QuerySpace:         "O(1)",
		TotalSpace:         "O(n²)",
	}
}

// TableStats returns table statistics for tests and benchmarks.
func (e *DynamicProgramming) TableStats() DPStats {
	return DPStats{
		TableEntries: len(e.table),
		MemoryBytes:  e.MemoryUsage(),
	}
}

// MemoryUsage estimates memory usage in bytes.
func (e *DynamicProgramming) MemoryUsage() int {
	return len(e.data)*int(unsafe.Sizeof(Value(0))) +
		len(e.table)*int(unsafe.Sizeof(Value(0))) +
		len(e.minIndex)*int(unsafe.Sizeof(int(0)))
}

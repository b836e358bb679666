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
	"math/bits"
	"unsafe"
)

// SparseTable precomputes minima over all power-of-two-length ranges.
//
// Description:
//
//	st[i][j] = min(A[i..i+2^j-1]), built by binary lifting: each level-j
//	entry combines two overlapping level-(j-1) entries. Any query range is
//	covered by two overlapping power-of-two windows, so queries are O(1)
//	after an O(1) log lookup. Minimum is idempotent, so the overlap is
//	harmless.
//
// Invariants:
//   - st[i][j] is defined only while i+2^j-1 < n
//   - minIndex[i][j] is the FIRST index in its window attaining st[i][j]
//   - logTable[k] = floor(log2(k)) for k in [1, n]
//
// No update support: a single write invalidates O(log n) entries per
// position across every level that covers it.
//
// Thread Safety: Single writer; see the package documentation.
type SparseTable struct {
	base

	// Flat row-major tables; entry (i, j) lives at i*levels + j.
	table    []Value
	minIndex []int
	logTable []int
	levels   int
}

// SparseTableStats contains statistics about the sparse table.
type SparseTableStats struct {
	Levels      int // Number of levels (floor(log2 n) + 1)
	Entries     int // Defined table entries across all levels
	MemoryBytes int // Approximate memory for tables plus the data copy
}

var _ Engine = (*SparseTable)(nil)

// NewSparseTable creates a sparse-table engine.
func NewSparseTable(cfg Config) *SparseTable {
	e := &SparseTable{}
	e.base = newBase(KindSparseTable, "Sparse Table", false, cfg)
	e.base.algo = e
	return e
}

// build constructs the log table and all lifting levels.
//
// Algorithm:
//
//	Time:  O(n log n)
//	Space: O(n log n)
//
// Level 0 holds the raw values. Level j combines st[i][j-1] with
// st[i+2^(j-1)][j-1] wherever the right half stays in bounds; <= on the
// comparison keeps the left half on ties, which by construction holds the
// lower index.
func (e *SparseTable) build(ctx context.Context) error {
	n := len(e.data)

	e.levels = bits.Len(uint(n)) // floor(log2 n) + 1
	e.logTable = make([]int, n+1)
	for k := 2; k <= n; k++ {
		e.logTable[k] = e.logTable[k/2] + 1
	}

	e.table = make([]Value, n*e.levels)
	e.minIndex = make([]int, n*e.levels)

	for i := 0; i < n; i++ {
		e.table[i*e.levels] = e.data[i]
		e.minIndex[i*e.levels] = i
	}

	for j := 1; j < e.levels; j++ {
		if err := checkCancel(ctx, "sparse table build"); err != nil {
			return err
		}
		half := 1 << (j - 1)
		span := 1 << j
		for i := 0; i+span <= n; i++ {
			left := i*e.levels + j - 1
			right := (i+half)*e.levels + j - 1
			if e.table[left] <= e.table[right] {
				e.table[i*e.levels+j] = e.table[left]
				e.minIndex[i*e.levels+j] = e.minIndex[left]
			} else {
				e.table[i*e.levels+j] = e.table[right]
				e.minIndex[i*e.levels+j] = e.minIndex[right]
			}
		}
	}

	return nil
}

// minimum combines the two overlapping power-of-two windows covering the
// range. <= favors the left window, whose argmin is the lower index.
func (e *SparseTable) minimum(left, right int) (Value, int, error) {
	k := e.logTable[right-left+1]
	a := left*e.levels + k
	b := (right-(1<<k)+1)*e.levels + k

	if e.table[a] <= e.table[b] {
		return e.table[a], e.minIndex[a], nil
	}
	return e.table[b], e.minIndex[b], nil
}

// discard releases every table.
func (e *SparseTable) discard() {
	e.table = nil
	e.minIndex = nil
	e.logTable = nil
	e.levels = 0
}

// Complexity returns the engine's descriptive complexity labels.
func (e *SparseTable) Complexity() ComplexityInfo {
	return ComplexityInfo{
		PreprocessingTime:  "O(n log n)",
		PreprocessingSpace: "O(n log n)",
		QueryTime:          "O(1)",
		QuerySpace:         "O(1)",
		TotalSpace:         "O(n log n)",
	}
}

// Validate checks the table against its defining recurrence.
//
// Description:
//
//	Recomputes every defined entry from the level below and compares.
//	O(n log n); intended for tests and post-build verification, not for
//	the query path.
func (e *SparseTable) Validate() error {
	if !e.preprocessed {
		return fmt.Errorf("%w: nothing to validate", ErrNotPreprocessed)
	}

	n := len(e.data)
	for i := 0; i < n; i++ {
		if e.table[i*e.levels] != e.data[i] {
			return fmt.Errorf("%w: level 0 entry %d does not match data", ErrAlgorithm, i)
		}
	}

	for j := 1; j < e.levels; j++ {
		half := 1 << (j - 1)
		span := 1 << j
		for i := 0; i+span <= n; i++ {
			left := e.table[i*e.levels+j-1]
			right := e.table[(i+half)*e.levels+j-1]
			want := left
			if right < want {
				want = right
			}
			if e.table[i*e.levels+j] != want {
				return fmt.Errorf("%w: entry (%d, %d) = %d, want %d",
					ErrAlgorithm, i, j, e.table[i*e.levels+j], want)
			}
		}
	}

	return nil
}

// TableStats returns table statistics for tests and benchmarks.
func (e *SparseTable) TableStats() SparseTableStats {
	n := len(e.data)
	entries := 0
	for j := 0; j < e.levels; j++ {
		if span := 1 << j; span <= n {
			entries += n - span + 1
		}
	}
	return SparseTableStats{
		Levels:      e.levels,
		Entries:     entries,
		MemoryBytes: e.MemoryUsage(),
	}
}

// MemoryUsage estimates memory usage in bytes.
func (e *SparseTable) MemoryUsage() int {
	return len(e.data)*int(unsafe.Sizeof(Value(0))) +
		len(e.table)*int(unsafe.Sizeof(Value(0))) +
		len(e.minIndex)*int(unsafe.Sizeof(int(0))) +
		len(e.logTable)*int(unsafe.Sizeof(int(0)))
}

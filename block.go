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
	"math"
	"runtime"
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// minParallelBlocks is the block count below which a parallel build is not
// worth the goroutine overhead.
const minParallelBlocks = 64

// BlockDecomposition partitions the array into √n-sized blocks with
// precomputed per-block minima.
//
// Description:
//
//	A query touching several blocks combines a linear scan of the partial
//	left block, O(1) lookups of every fully covered block, and a linear
//	scan of the partial right block, giving O(√n) queries after an O(n)
//	build. Updates rescan only the owning block: a "keep the old minimum
//	unless the new value is smaller" shortcut breaks when the updated index
//	WAS the block's minimum and the new value is larger, so the full block
//	rescan is not optional.
//
// Invariants:
//   - blockSize in [1, n]; block b covers [b*blockSize, min((b+1)*blockSize, n))
//   - blockMin[b] / blockMinIndex[b] describe exactly that slice
//   - blockMinIndex[b] is the FIRST index in the block attaining blockMin[b]
//
// Thread Safety: Single writer; see the package documentation.
type BlockDecomposition struct {
	base

	blockSize     int
	numBlocks     int
	blockMin      []Value
	blockMinIndex []int
}

// BlockStats contains statistics about the block decomposition.
type BlockStats struct {
	BlockSize   int // Elements per block (last block may be shorter)
	NumBlocks   int // Total number of blocks
	MemoryBytes int // Approximate memory for block arrays plus the data copy
}

var _ Engine = (*BlockDecomposition)(nil)

// NewBlockDecomposition creates a block-decomposition engine. A positive
// Config.BlockSize overrides the default floor(sqrt(n))+1, clamped to n.
func NewBlockDecomposition(cfg Config) *BlockDecomposition {
	e := &BlockDecomposition{}
	e.base = newBase(KindBlockDecomposition, "Block Decomposition", true, cfg)
	e.base.algo = e
	return e
}

// build computes every block's minimum with one linear scan per block.
//
// Algorithm:
//
//	Time:  O(n), parallel across blocks when Config.EnableParallel is set
//	Space: O(√n) beyond the data copy
func (e *BlockDecomposition) build(ctx context.Context) error {
	n := len(e.data)

	e.blockSize = e.calculateBlockSize(n)
	e.numBlocks = (n + e.blockSize - 1) / e.blockSize
	e.blockMin = make([]Value, e.numBlocks)
	e.blockMinIndex = make([]int, e.numBlocks)

	if e.cfg.EnableParallel && e.numBlocks >= minParallelBlocks {
		return e.buildParallel(ctx)
	}

	for b := 0; b < e.numBlocks; b++ {
		if b%1024 == 0 {
			if err := checkCancel(ctx, "block build"); err != nil {
				return err
			}
		}
		e.computeBlockMinimum(b)
	}
	return nil
}

// buildParallel scans blocks concurrently. Blocks are independent, so the
// result is identical to the sequential build.
func (e *BlockDecomposition) buildParallel(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	// Shard by worker rather than by block to keep goroutine count bounded.
	workers := runtime.GOMAXPROCS(0)
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i, b := 0, w; b < e.numBlocks; i, b = i+1, b+workers {
				if i%1024 == 0 {
					if err := checkCancel(ctx, "parallel block build"); err != nil {
						return err
					}
				}
				e.computeBlockMinimum(b)
			}
			return nil
		})
	}
	return g.Wait()
}

// calculateBlockSize picks the configured size (clamped to n) or the
// floor(sqrt(n))+1 default.
func (e *BlockDecomposition) calculateBlockSize(n int) int {
	if e.cfg.BlockSize > DefaultBlockSize {
		if e.cfg.BlockSize > n {
			return n
		}
		return e.cfg.BlockSize
	}
	return int(math.Sqrt(float64(n))) + 1
}

// computeBlockMinimum rescans block b and refreshes its (min, argmin) pair.
func (e *BlockDecomposition) computeBlockMinimum(b int) {
	start := b * e.blockSize
	end := start + e.blockSize
	if end > len(e.data) {
		end = len(e.data)
	}
	e.blockMin[b], e.blockMinIndex[b] = scanMinimum(e.data, start, end-1)
}

// minimum combines the partial left block, the covered middle blocks, and
// the partial right block, left to right so the first occurrence wins.
func (e *BlockDecomposition) minimum(left, right int) (Value, int, error) {
	leftBlock := left / e.blockSize
	rightBlock := right / e.blockSize

	if leftBlock == rightBlock {
		value, index := scanMinimum(e.data, left, right)
		return value, index, nil
	}

	leftBlockEnd := (leftBlock+1)*e.blockSize - 1
	value, index := scanMinimum(e.data, left, leftBlockEnd)

	for b := leftBlock + 1; b < rightBlock; b++ {
		if e.blockMin[b] < value {
			value = e.blockMin[b]
			index = e.blockMinIndex[b]
		}
	}

	rightBlockStart := rightBlock * e.blockSize
	if v, i := scanMinimum(e.data, rightBlockStart, right); v < value {
		value = v
		index = i
	}

	return value, index, nil
}

// discard releases the block arrays.
func (e *BlockDecomposition) discard() {
	e.blockMin = nil
	e.blockMinIndex = nil
	e.blockSize = 0
	e.numBlocks = 0
}

// Update sets A[index] = value and rescans the owning block.
func (e *BlockDecomposition) Update(ctx context.Context, index int, value Value) error {
	if err := e.ensurePreprocessed(); err != nil {
		return err
	}
	if err := e.validateIndex(index); err != nil {
		return err
	}

	e.data[index] = value
	e.computeBlockMinimum(index / e.blockSize)
	e.noteUpdates(1)
	return nil
}

// BatchUpdate validates every index, applies all writes, then rescans each
// distinct touched block exactly once.
func (e *BlockDecomposition) BatchUpdate(ctx context.Context, updates []Update) error {
	if err := e.ensurePreprocessed(); err != nil {
		return err
	}
	if err := e.validateUpdates(updates); err != nil {
		return err
	}

	touched := make(map[int]struct{}, len(updates))
	for _, u := range updates {
		e.data[u.Index] = u.Value
		touched[u.Index/e.blockSize] = struct{}{}
	}
	for b := range touched {
		e.computeBlockMinimum(b)
	}

	e.noteUpdates(len(updates))
	return nil
}

// RebuildBlocks rescans every block. Exposed for recovery after the stored
// copy has been mutated outside Update/BatchUpdate.
func (e *BlockDecomposition) RebuildBlocks() error {
	if err := e.ensurePreprocessed(); err != nil {
		return err
	}

	for b := 0; b < e.numBlocks; b++ {
		e.computeBlockMinimum(b)
	}
	if e.cache != nil {
		e.cache.purge()
	}
	return nil
}

// Complexity returns the engine's descriptive complexity labels.
func (e *BlockDecomposition) Complexity() ComplexityInfo {
	return ComplexityInfo{
		PreprocessingTime:  "O(n)",
		PreprocessingSpace: "O(√n)",
		QueryTime:          "O(√n)",
		QuerySpace:         "O(1)",
		TotalSpace:         "O(n + √n)",
	}
}

// BlockLayout returns the block size and block count for tests and
// benchmarks.
func (e *BlockDecomposition) BlockLayout() BlockStats {
	return BlockStats{
		BlockSize:   e.blockSize,
		NumBlocks:   e.numBlocks,
		MemoryBytes: e.MemoryUsage(),
	}
}

// MemoryUsage estimates memory usage in bytes.
func (e *BlockDecomposition) MemoryUsage() int {
	return len(e.data)*int(unsafe.Sizeof(Value(0))) +
		len(e.blockMin)*int(unsafe.Sizeof(Value(0))) +
		len(e.blockMinIndex)*int(unsafe.Sizeof(int(0)))
}

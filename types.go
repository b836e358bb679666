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

import "time"

// Value is the element type stored in an engine's array.
type Value = int64

// Default configuration values and limits.
const (
	// MaxArraySize is the maximum supported input length for any engine.
	MaxArraySize = 1_000_000

	// DefaultBlockSize of 0 means the Block engine derives its block size
	// from the array length (floor(sqrt(n)) + 1).
	DefaultBlockSize = 0

	// DefaultCacheCapacity is the query-result cache size used when
	// Config.EnableCaching is set.
	DefaultCacheCapacity = 1024

	// maxTableBytes is the ceiling for the DP engine's derived tables.
	// Checked before allocation, not after it fails.
	maxTableBytes = 512 << 20
)

// EngineKind identifies one of the five engine implementations. The set is
// closed: every kind maps to exactly one concrete type via New().
type EngineKind int

const (
	// KindNaive scans the range on every query. O(1) preprocessing.
	KindNaive EngineKind = iota

	// KindDynamicProgramming precomputes every range. O(n²) space.
	KindDynamicProgramming

	// KindSparseTable precomputes power-of-two ranges. O(n log n) space.
	KindSparseTable

	// KindBlockDecomposition precomputes per-block minima. O(√n) query.
	KindBlockDecomposition

	// KindLCA reduces the query to a lowest-common-ancestor lookup on a
	// Cartesian tree. O(log n) query.
	KindLCA

	// numEngineKinds is the number of engine kinds (for iteration).
	numEngineKinds
)

// kindNames maps EngineKind values to their metric/CLI labels.
var kindNames = map[EngineKind]string{
	KindNaive:              "naive",
	KindDynamicProgramming: "dp",
	KindSparseTable:        "sparse_table",
	KindBlockDecomposition: "block",
	KindLCA:                "lca",
}

// String returns the label for the EngineKind.
func (k EngineKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEngineKind converts a label back to an EngineKind.
func ParseEngineKind(s string) (EngineKind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Kinds returns all engine kinds in declaration order.
func Kinds() []EngineKind {
	kinds := make([]EngineKind, 0, numEngineKinds)
	for k := EngineKind(0); k < numEngineKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// QueryResult is the detailed answer to a range-minimum query.
//
// MinimumIndex is always the FIRST index in [left, right] attaining
// MinimumValue; every engine honors this tie-break.
type QueryResult struct {
	// MinimumValue is the minimum value in the queried range.
	MinimumValue Value

	// MinimumIndex is the lowest index attaining MinimumValue.
	MinimumIndex int

	// Elapsed is the wall time spent answering this query.
	Elapsed time.Duration
}

// Update is a single (index, value) write for BatchUpdate.
type Update struct {
	Index int
	Value Value
}

// ComplexityInfo carries the descriptive complexity labels for an engine.
// The fields are labels, not measured values.
type ComplexityInfo struct {
	PreprocessingTime  string
	PreprocessingSpace string
	QueryTime          string
	QuerySpace         string
	TotalSpace         string
}

// Config carries optional engine behavior knobs.
//
// Recognized options affect only auxiliary bookkeeping (statistics, caching,
// block sizing, build parallelism) and never algorithmic correctness. The
// zero value is a valid configuration.
type Config struct {
	// EnableCaching adds a bounded LRU cache of query results, purged on
	// any mutation of the engine's state.
	EnableCaching bool

	// EnableParallel allows engines with independent build units (the
	// Block engine's per-block scans) to build concurrently.
	EnableParallel bool

	// TrackStatistics enables per-engine query/update counters. Counters
	// are not atomic; leave this off for concurrent read-only query use.
	TrackStatistics bool

	// BlockSize overrides the Block engine's block size when > 0. Values
	// larger than the array length are clamped.
	BlockSize int
}

// WithCaching returns a copy of the config with caching set.
func (c Config) WithCaching(enable bool) Config {
	c.EnableCaching = enable
	return c
}

// WithParallel returns a copy of the config with parallel builds set.
func (c Config) WithParallel(enable bool) Config {
	c.EnableParallel = enable
	return c
}

// WithStatistics returns a copy of the config with statistics tracking set.
func (c Config) WithStatistics(enable bool) Config {
	c.TrackStatistics = enable
	return c
}

// WithBlockSize returns a copy of the config with an explicit block size.
func (c Config) WithBlockSize(size int) Config {
	c.BlockSize = size
	return c
}

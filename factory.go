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
	"fmt"
	"math"
)

// OptimizationCriteria selects what NewOptimal should favor.
type OptimizationCriteria int

const (
	// OptimizeBalanced weighs preprocessing, query time, and memory together.
	OptimizeBalanced OptimizationCriteria = iota
	// OptimizeQueryTime favors O(1) lookups regardless of build cost.
	OptimizeQueryTime
	// OptimizePreprocessingTime favors the cheapest possible build.
	OptimizePreprocessingTime
	// OptimizeMemoryUsage favors O(n) total space.
	OptimizeMemoryUsage
	// OptimizeUpdateSupport restricts the choice to updatable engines.
	OptimizeUpdateSupport
)

// New creates an engine of the given kind.
//
// Outputs:
//   - Engine: the engine, not yet preprocessed
//   - error: ErrUnknownKind for a kind outside the enum
func New(kind EngineKind, cfg Config) (Engine, error) {
	switch kind {
	case KindNaive:
		return NewNaive(cfg), nil
	case KindDynamicProgramming:
		return NewDynamicProgramming(cfg), nil
	case KindSparseTable:
		return NewSparseTable(cfg), nil
	case KindBlockDecomposition:
		return NewBlockDecomposition(cfg), nil
	case KindLCA:
		return NewLCA(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// NewAll creates one engine of every kind, in enum order. Intended for
// cross-engine comparison tests and benchmarks.
func NewAll(cfg Config) []Engine {
	engines := make([]Engine, 0, numEngineKinds)
	for _, kind := range Kinds() {
		e, err := New(kind, cfg)
		if err != nil {
			continue
		}
		engines = append(engines, e)
	}
	return engines
}

// NewOptimal creates the engine best suited to the workload described by the
// array size, expected query count, and the chosen criteria.
func NewOptimal(arraySize, expectedQueries int, criteria OptimizationCriteria, cfg Config) (Engine, error) {
	var kind EngineKind

	switch criteria {
	case OptimizeQueryTime:
		if arraySize <= 1000 {
			kind = KindDynamicProgramming
		} else {
			kind = KindSparseTable
		}

	case OptimizePreprocessingTime:
		kind = KindNaive

	case OptimizeMemoryUsage:
		if expectedQueries < arraySize/10 {
			kind = KindNaive
		} else {
			kind = KindBlockDecomposition
		}

	case OptimizeUpdateSupport:
		if expectedQueries < arraySize {
			kind = KindNaive
		} else {
			kind = KindBlockDecomposition
		}

	default:
		kind = Recommend(arraySize, expectedQueries, false)
	}

	return New(kind, cfg)
}

// Recommend picks an engine kind for the described workload.
//
// Description:
//
//	Heuristic thresholds, tuned for the common shapes of this problem:
//	update requirements restrict the choice to Naive or Block, tiny arrays
//	favor the full DP table, query counts below sqrt(n) never amortize a
//	build, and query counts above n*log2(n) amortize even the sparse
//	table. Everything in between gets block decomposition.
func Recommend(arraySize, expectedQueries int, requiresUpdates bool) EngineKind {
	if requiresUpdates {
		if expectedQueries < arraySize/10 {
			return KindNaive
		}
		return KindBlockDecomposition
	}

	if arraySize <= 100 {
		return KindDynamicProgramming
	}
	if arraySize <= 1000 && expectedQueries > arraySize*10 {
		return KindDynamicProgramming
	}

	if float64(expectedQueries) < math.Sqrt(float64(arraySize)) {
		return KindNaive
	}

	if float64(expectedQueries) > float64(arraySize)*math.Log2(float64(arraySize)) {
		return KindSparseTable
	}

	return KindBlockDecomposition
}

// Description returns a one-line human-readable summary of an engine kind.
func Description(kind EngineKind) string {
	switch kind {
	case KindNaive:
		return "Naive Linear Scan - O(n) query, O(1) preprocessing, supports updates"
	case KindDynamicProgramming:
		return "Dynamic Programming - O(1) query, O(n²) preprocessing and space"
	case KindSparseTable:
		return "Sparse Table - O(1) query, O(n log n) preprocessing and space"
	case KindBlockDecomposition:
		return "Block Decomposition - O(√n) query, O(n) preprocessing, supports updates"
	case KindLCA:
		return "LCA-based - O(log n) query, O(n log n) preprocessing"
	default:
		return "Unknown engine"
	}
}

// SupportsFeature reports whether a kind provides a named capability.
// Recognized features: "update", "O(1) query", "O(n) space",
// "O(1) preprocessing". Unknown features report false.
func SupportsFeature(kind EngineKind, feature string) bool {
	switch feature {
	case "update":
		return kind == KindNaive || kind == KindBlockDecomposition
	case "O(1) query":
		return kind == KindDynamicProgramming || kind == KindSparseTable
	case "O(n) space":
		return kind == KindNaive || kind == KindBlockDecomposition
	case "O(1) preprocessing":
		return kind == KindNaive
	}
	return false
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rmq provides interchangeable range-minimum query engines.
//
// The package contains five engines answering "what is the minimum value (and
// its first index) in A[left..right]" under different preprocessing/query/
// memory tradeoffs: a naive linear scan, a full dynamic-programming table, a
// sparse table, square-root block decomposition, and a Cartesian-tree/LCA
// reduction. All five implement the same Engine contract and are
// interchangeable; the factory in factory.go selects among them.
//
// # Ownership Model
//
// An engine takes a private copy of the input slice during Preprocess():
//   - The caller's slice is never retained or mutated
//   - The copy is mutated only through Update()/BatchUpdate()
//   - All derived structures are owned exclusively by the engine instance
//
// # Thread Safety
//
// Engines are NOT safe for concurrent mutation. They are designed for:
//   - Single-writer access for Preprocess, Update, BatchUpdate, Clear
//   - Read-only concurrent Query/QueryDetailed ONLY when no writer is active
//     and statistics tracking is disabled
//
// No internal locking is provided; callers needing concurrent query fan-out
// must treat the post-Preprocess state as immutable.
//
// # Lifecycle
//
// A typical engine lifecycle:
//  1. Create with New(kind, cfg) or a concrete constructor
//  2. Call Preprocess(ctx, values) to build derived state
//  3. Issue Query/QueryDetailed calls (and Update where supported)
//  4. Call Clear() to release derived state, or drop the engine
package rmq

import "errors"

// Sentinel errors for engine operations. All errors returned by this package
// wrap exactly one of these, so callers can classify failures with errors.Is.
var (
	// ErrInvalidData is returned when Preprocess receives an empty input
	// or one that exceeds MaxArraySize.
	ErrInvalidData = errors.New("input data is empty or invalid")

	// ErrAllocation is returned when the memory required for an engine's
	// derived structures exceeds its configured ceiling. The check is
	// proactive where feasible: the error is raised before attempting the
	// allocation, not after it fails.
	ErrAllocation = errors.New("derived structure memory unavailable")

	// ErrNotPreprocessed is returned when a query or update is issued
	// before a successful Preprocess call.
	ErrNotPreprocessed = errors.New("engine has not been preprocessed")

	// ErrInvalidQuery is returned when a query range has left > right.
	ErrInvalidQuery = errors.New("invalid query range")

	// ErrOutOfBounds is returned when an index or range end falls outside
	// the preprocessed array.
	ErrOutOfBounds = errors.New("index out of bounds")

	// ErrNotSupported is returned when an update is requested on an engine
	// whose SupportsUpdate() is false.
	ErrNotSupported = errors.New("operation not supported by this engine")

	// ErrAlgorithm is returned on an internal invariant violation, such as
	// an LCA lookup resolving to no node. It always indicates a defect,
	// never an expected condition.
	ErrAlgorithm = errors.New("internal algorithm failure")

	// ErrUnknownKind is returned by the factory for an unrecognized
	// EngineKind.
	ErrUnknownKind = errors.New("unknown engine kind")
)

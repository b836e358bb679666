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

import "context"

// Naive answers queries with a linear scan of the requested range.
//
// Description:
//
//	No derived state is built: Preprocess only stores the private copy, so
//	preprocessing is O(1) beyond the copy and memory stays O(n). Queries
//	cost O(right-left+1); updates are O(1) writes. The other four engines
//	are validated against this one in tests.
//
// Thread Safety: Single writer; see the package documentation.
type Naive struct {
	base
}

var _ Engine = (*Naive)(nil)

// NewNaive creates a linear-scan engine.
func NewNaive(cfg Config) *Naive {
	e := &Naive{}
	e.base = newBase(KindNaive, "Naive", true, cfg)
	e.base.algo = e
	return e
}

// build is a no-op: the stored copy is the only state.
func (e *Naive) build(ctx context.Context) error { return nil }

// minimum scans [left, right] once, keeping the first occurrence on ties.
func (e *Naive) minimum(left, right int) (Value, int, error) {
	value, index := scanMinimum(e.data, left, right)
	return value, index, nil
}

// discard has nothing to release beyond what the base already drops.
func (e *Naive) discard() {}

// Update sets A[index] = value in place.
func (e *Naive) Update(ctx context.Context, index int, value Value) error {
	if err := e.ensurePreprocessed(); err != nil {
		return err
	}
	if err := e.validateIndex(index); err != nil {
		return err
	}

	e.data[index] = value
	e.noteUpdates(1)
	return nil
}

// BatchUpdate applies all writes after validating every index (all-or-nothing).
func (e *Naive) BatchUpdate(ctx context.Context, updates []Update) error {
	if err := e.ensurePreprocessed(); err != nil {
		return err
	}
	if err := e.validateUpdates(updates); err != nil {
		return err
	}

	for _, u := range updates {
		e.data[u.Index] = u.Value
	}
	e.noteUpdates(len(updates))
	return nil
}

// Complexity returns the engine's descriptive complexity labels.
func (e *Naive) Complexity() ComplexityInfo {
	return ComplexityInfo{
		PreprocessingTime:  "O(1)",
		PreprocessingSpace: "O(1)",
		QueryTime:          "O(n)",
		QuerySpace:         "O(1)",
		TotalSpace:         "O(n)",
	}
}

// scanMinimum returns the minimum of data[left..right] and the first index
// attaining it. The strict < keeps the lowest index on ties.
func scanMinimum(data []Value, left, right int) (Value, int) {
	value := data[left]
	index := left
	for i := left + 1; i <= right; i++ {
		if data[i] < value {
			value = data[i]
			index = i
		}
	}
	return value, index
}

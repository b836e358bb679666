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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine is the contract every range-minimum query engine implements.
//
// Description:
//
//	An Engine answers minimum-value queries over contiguous index ranges of
//	a preprocessed array. The five implementations trade preprocessing time
//	and memory against query time; they are interchangeable through this
//	interface and must agree on every answer, including the first-occurrence
//	tie-break for repeated minima.
//
// Thread Safety: See the package documentation. Single writer; concurrent
// read-only queries only while no writer is active.
type Engine interface {
	// Preprocess stores a private copy of data and builds all derived
	// state, replacing any previous state. On failure the engine is left
	// in the empty, un-preprocessed state.
	Preprocess(ctx context.Context, data []Value) error

	// Query returns the minimum value in [left, right] (both inclusive).
	Query(ctx context.Context, left, right int) (Value, error)

	// QueryDetailed returns the minimum value, the first index attaining
	// it, and the wall time spent on this call.
	QueryDetailed(ctx context.Context, left, right int) (QueryResult, error)

	// Update sets A[index] = value. Engines with SupportsUpdate() == false
	// return ErrNotSupported.
	Update(ctx context.Context, index int, value Value) error

	// BatchUpdate applies a set of point writes. All indices are validated
	// before any write is applied (all-or-nothing).
	BatchUpdate(ctx context.Context, updates []Update) error

	// Clear discards the array copy and all derived state. A subsequent
	// Query fails with ErrNotPreprocessed.
	Clear()

	// Name returns the human-readable engine name.
	Name() string

	// Kind returns the engine's kind.
	Kind() EngineKind

	// Complexity returns the engine's descriptive complexity labels.
	Complexity() ComplexityInfo

	// SupportsUpdate reports whether point updates are supported.
	SupportsUpdate() bool

	// IsPreprocessed reports whether a successful Preprocess has run.
	IsPreprocessed() bool

	// Size returns the length of the preprocessed array, 0 if none.
	Size() int
}

// algorithm is the engine-specific half of the contract. The shared base
// handles validation, lifecycle, caching, and telemetry; each engine supplies
// only its build step and its range-minimum lookup.
type algorithm interface {
	// build constructs derived state from base.data. On error the base
	// rolls the engine back to the empty state.
	build(ctx context.Context) error

	// minimum returns the minimum value in [left, right] and the first
	// index attaining it. Bounds are already validated.
	minimum(left, right int) (Value, int, error)

	// discard releases all derived state.
	discard()
}

// EngineStats contains the bookkeeping counters shared by all engines.
// Counters are populated only when Config.TrackStatistics is set.
type EngineStats struct {
	QueryCount    int64         // Queries answered (cache hits included)
	UpdateCount   int64         // Point updates applied
	LastQueryTime time.Duration // Duration of the most recent query
	CacheHits     int64         // Cache hits (0 unless caching enabled)
	CacheMisses   int64         // Cache misses (0 unless caching enabled)
}

// base implements the shared Engine lifecycle: input validation, the private
// data copy, rollback-on-failure, result caching, statistics, and telemetry.
// Concrete engines embed it and register themselves as its algorithm.
type base struct {
	kind      EngineKind
	name      string
	updatable bool
	cfg       Config
	algo      algorithm

	data         []Value
	preprocessed bool

	lastQueryTime time.Duration
	queryCount    int64
	updateCount   int64

	cache *queryCache // nil unless cfg.EnableCaching
}

// newBase initializes the shared engine state. The concrete constructor must
// set b.algo to the embedding engine before first use.
func newBase(kind EngineKind, name string, updatable bool, cfg Config) base {
	b := base{
		kind:      kind,
		name:      name,
		updatable: updatable,
		cfg:       cfg,
	}
	if cfg.EnableCaching {
		b.cache = newQueryCache(DefaultCacheCapacity)
	}
	return b
}

// Preprocess stores a private copy of data and delegates to the engine's
// build step.
//
// Description:
//
//	Validates the input, discards any previous state, copies the input, and
//	invokes the engine-specific build. On any failure the engine is rolled
//	back to the empty, un-preprocessed state so partially built structures
//	are never observable.
//
// Inputs:
//   - ctx: Context for cancellation and tracing. Must not be nil.
//   - data: Input values. Must be non-empty and at most MaxArraySize long.
//
// Outputs:
//   - error: ErrInvalidData, ErrAllocation, or a wrapped context error.
//
// Thread Safety: NOT safe for concurrent use with any other method.
func (b *base) Preprocess(ctx context.Context, data []Value) error {
	if err := validatePreprocessInputs(ctx, data); err != nil {
		b.rollback()
		preprocessTotal.WithLabelValues(b.kind.String(), preprocessResultLabel(err)).Inc()
		return err
	}

	ctx, span := getTracer().Start(ctx, "rmq."+b.name+".Preprocess",
		trace.WithAttributes(
			attribute.String("engine", b.kind.String()),
			attribute.Int("size", len(data)),
		),
	)
	defer span.End()

	start := time.Now()

	// Replace any previous state before building.
	span.AddEvent("copying_input")
	b.algo.discard()
	b.preprocessed = false
	b.data = make([]Value, len(data))
	copy(b.data, data)
	if b.cache != nil {
		b.cache.purge()
	}

	span.AddEvent("building")
	if err := b.algo.build(ctx); err != nil {
		b.rollback()
		span.RecordError(err)
		span.SetStatus(codes.Error, "build failed")
		preprocessTotal.WithLabelValues(b.kind.String(), preprocessResultLabel(err)).Inc()
		slog.Error("engine preprocessing failed",
			slog.String("engine", b.kind.String()),
			slog.Int("size", len(data)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("build %s engine: %w", b.kind, err)
	}

	b.preprocessed = true
	elapsed := time.Since(start)

	preprocessDuration.WithLabelValues(b.kind.String()).Observe(elapsed.Seconds())
	preprocessTotal.WithLabelValues(b.kind.String(), "success").Inc()
	span.SetAttributes(attribute.Int64("build_time_us", elapsed.Microseconds()))
	span.SetStatus(codes.Ok, "preprocessed")

	slog.Debug("engine preprocessed",
		slog.String("engine", b.kind.String()),
		slog.Int("size", len(b.data)),
		slog.Duration("build_time", elapsed))

	return nil
}

// Query returns the minimum value in [left, right]. This is the fast path:
// no span is opened and no argmin bookkeeping beyond what the engine computes
// anyway.
func (b *base) Query(ctx context.Context, left, right int) (Value, error) {
	result, err := b.answer(left, right)
	if err != nil {
		queryTotal.WithLabelValues(b.kind.String(), queryResultLabel(err)).Inc()
		return 0, err
	}
	return result.MinimumValue, nil
}

// QueryDetailed returns the full QueryResult including the argmin index and
// the elapsed wall time for this call.
func (b *base) QueryDetailed(ctx context.Context, left, right int) (QueryResult, error) {
	ctx, span := getTracer().Start(ctx, "rmq."+b.name+".QueryDetailed",
		trace.WithAttributes(
			attribute.String("engine", b.kind.String()),
			attribute.Int("left", left),
			attribute.Int("right", right),
		),
	)
	defer span.End()

	result, err := b.answer(left, right)
	if err != nil {
		queryTotal.WithLabelValues(b.kind.String(), queryResultLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return QueryResult{}, err
	}

	span.SetAttributes(
		attribute.Int64("minimum_value", result.MinimumValue),
		attribute.Int("minimum_index", result.MinimumIndex),
	)
	span.SetStatus(codes.Ok, "query complete")
	return result, nil
}

// answer validates the range and resolves the minimum, consulting the result
// cache when enabled. Shared by Query and QueryDetailed.
func (b *base) answer(left, right int) (QueryResult, error) {
	if err := b.ensurePreprocessed(); err != nil {
		return QueryResult{}, err
	}
	if err := b.validateRange(left, right); err != nil {
		return QueryResult{}, err
	}

	start := time.Now()

	if b.cache != nil {
		if cached, ok := b.cache.get(left, right); ok {
			elapsed := time.Since(start)
			b.noteQuery(elapsed)
			queryTotal.WithLabelValues(b.kind.String(), "cache_hit").Inc()
			return QueryResult{
				MinimumValue: cached.value,
				MinimumIndex: cached.index,
				Elapsed:      elapsed,
			}, nil
		}
	}

	value, index, err := b.algo.minimum(left, right)
	if err != nil {
		return QueryResult{}, err
	}

	elapsed := time.Since(start)
	b.noteQuery(elapsed)
	queryDuration.WithLabelValues(b.kind.String()).Observe(elapsed.Seconds())
	queryTotal.WithLabelValues(b.kind.String(), "success").Inc()

	if b.cache != nil {
		b.cache.put(left, right, cachedAnswer{value: value, index: index})
	}

	return QueryResult{MinimumValue: value, MinimumIndex: index, Elapsed: elapsed}, nil
}

// Update is the default implementation for engines without update support.
// Updatable engines shadow it.
func (b *base) Update(ctx context.Context, index int, value Value) error {
	return fmt.Errorf("%w: update on %s", ErrNotSupported, b.name)
}

// BatchUpdate is the default implementation for engines without update
// support. Updatable engines shadow it.
func (b *base) BatchUpdate(ctx context.Context, updates []Update) error {
	return fmt.Errorf("%w: batch update on %s", ErrNotSupported, b.name)
}

// Clear discards the array copy and all derived state, returning the engine
// to the empty, un-preprocessed state.
func (b *base) Clear() {
	b.rollback()
}

// Name returns the human-readable engine name.
func (b *base) Name() string { return b.name }

// Kind returns the engine's kind.
func (b *base) Kind() EngineKind { return b.kind }

// SupportsUpdate reports whether point updates are supported.
func (b *base) SupportsUpdate() bool { return b.updatable }

// IsPreprocessed reports whether a successful Preprocess has run.
func (b *base) IsPreprocessed() bool { return b.preprocessed }

// Size returns the length of the preprocessed array, 0 if none.
func (b *base) Size() int { return len(b.data) }

// Config returns the configuration the engine was constructed with.
func (b *base) Config() Config { return b.cfg }

// LastQueryTime returns the duration of the most recent successful query.
func (b *base) LastQueryTime() time.Duration { return b.lastQueryTime }

// Stats returns the shared bookkeeping counters. Counters stay zero unless
// Config.TrackStatistics is set.
func (b *base) Stats() EngineStats {
	stats := EngineStats{
		QueryCount:    b.queryCount,
		UpdateCount:   b.updateCount,
		LastQueryTime: b.lastQueryTime,
	}
	if b.cache != nil {
		stats.CacheHits, stats.CacheMisses = b.cache.stats()
	}
	return stats
}

// rollback returns the engine to the empty, un-preprocessed state.
func (b *base) rollback() {
	b.algo.discard()
	b.data = nil
	b.preprocessed = false
	if b.cache != nil {
		b.cache.purge()
	}
}

// noteQuery records per-engine query bookkeeping.
func (b *base) noteQuery(elapsed time.Duration) {
	b.lastQueryTime = elapsed
	if b.cfg.TrackStatistics {
		b.queryCount++
	}
}

// noteUpdates records per-engine update bookkeeping and invalidates cached
// answers. Every updatable engine calls this after mutating the array.
func (b *base) noteUpdates(n int) {
	if b.cfg.TrackStatistics {
		b.updateCount += int64(n)
	}
	if b.cache != nil {
		b.cache.purge()
	}
	updateTotal.WithLabelValues(b.kind.String()).Add(float64(n))
}

// ensurePreprocessed fails with ErrNotPreprocessed before any query or
// update that needs derived state.
func (b *base) ensurePreprocessed() error {
	if !b.preprocessed {
		return fmt.Errorf("%w: %s requires a successful Preprocess call", ErrNotPreprocessed, b.name)
	}
	return nil
}

// validateRange validates query bounds against the preprocessed array.
// A reversed range is an invalid query; an index past the end is a bounds
// violation. The distinction matters to callers classifying failures.
func (b *base) validateRange(left, right int) error {
	if left > right {
		return fmt.Errorf("%w: left %d > right %d", ErrInvalidQuery, left, right)
	}
	if left < 0 || right >= len(b.data) {
		return fmt.Errorf("%w: range [%d, %d] for array of size %d", ErrOutOfBounds, left, right, len(b.data))
	}
	return nil
}

// validateIndex validates a single update index.
func (b *base) validateIndex(index int) error {
	if index < 0 || index >= len(b.data) {
		return fmt.Errorf("%w: index %d for array of size %d", ErrOutOfBounds, index, len(b.data))
	}
	return nil
}

// validateUpdates validates every index in a batch before any write is
// applied, making BatchUpdate all-or-nothing.
func (b *base) validateUpdates(updates []Update) error {
	for _, u := range updates {
		if err := b.validateIndex(u.Index); err != nil {
			return err
		}
	}
	return nil
}

// validatePreprocessInputs validates the arguments to Preprocess.
func validatePreprocessInputs(ctx context.Context, data []Value) error {
	if ctx == nil {
		return errors.New("ctx must not be nil")
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: input is empty", ErrInvalidData)
	}
	if len(data) > MaxArraySize {
		return fmt.Errorf("%w: size %d exceeds maximum %d", ErrInvalidData, len(data), MaxArraySize)
	}
	return nil
}

// checkCancel polls ctx during long builds. Engines call it every few
// thousand elements so cancellation latency stays bounded without a branch
// per element.
func checkCancel(ctx context.Context, stage string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s canceled: %w", stage, ctx.Err())
	default:
		return nil
	}
}

// preprocessResultLabel maps a preprocess error to its metric label.
func preprocessResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidData):
		return "invalid_data"
	case errors.Is(err, ErrAllocation):
		return "allocation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// queryResultLabel maps a query error to its metric label.
func queryResultLabel(err error) string {
	switch {
	case errors.Is(err, ErrNotPreprocessed):
		return "not_preprocessed"
	case errors.Is(err, ErrInvalidQuery):
		return "invalid_range"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrAlgorithm):
		return "algorithm"
	default:
		return "other"
	}
}
